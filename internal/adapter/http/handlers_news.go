package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/Strob0t/technews/internal/domain/article"
	"github.com/Strob0t/technews/internal/domain/query"
	"github.com/Strob0t/technews/internal/domain/relevance"
)

type newsResponse struct {
	Status       string            `json:"status"`
	TotalResults int               `json:"totalResults"`
	Articles     []article.Article `json:"articles"`
}

// GetNews handles GET /api/news: keyword search, the regional pseudo-category,
// or category headlines. For the regional view an optional topic narrows the
// list with the relevance filter.
func (h *Handlers) GetNews(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	params, err := query.ParseNews(values)
	if err != nil {
		writeDomainError(w, r, err, newsErrors)
		return
	}

	rawTopic := values.Get("topic")
	topic, err := relevance.ParseTopic(rawTopic)
	if err != nil {
		writeDomainError(w, r, err, newsErrors)
		return
	}

	page, ok := h.fetchNews(w, r, params)
	if !ok {
		return
	}
	if params.Operation == query.OpRegional && rawTopic != "" {
		page.Articles = article.Dedupe(relevance.Filter(page.Articles, topic))
	}
	writeNews(w, page)
}

// GetEverything handles GET /api/everything.
func (h *Handlers) GetEverything(w http.ResponseWriter, r *http.Request) {
	h.serveParsed(w, r, query.ParseEverything)
}

// GetTopHeadlines handles GET /api/top-headlines.
func (h *Handlers) GetTopHeadlines(w http.ResponseWriter, r *http.Request) {
	h.serveParsed(w, r, query.ParseHeadlines)
}

func (h *Handlers) serveParsed(w http.ResponseWriter, r *http.Request, parse func(url.Values) (query.Params, error)) {
	params, err := parse(r.URL.Query())
	if err != nil {
		writeDomainError(w, r, err, newsErrors)
		return
	}
	if page, ok := h.fetchNews(w, r, params); ok {
		writeNews(w, page)
	}
}

func (h *Handlers) fetchNews(w http.ResponseWriter, r *http.Request, params query.Params) (article.Page, bool) {
	page, err := h.News.Fetch(r.Context(), params)
	if err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			return article.Page{}, false
		}
		writeDomainError(w, r, err, newsErrors)
		return article.Page{}, false
	}
	return page, true
}

func writeNews(w http.ResponseWriter, page article.Page) {
	articles := page.Articles
	if articles == nil {
		articles = []article.Article{}
	}
	writeJSON(w, http.StatusOK, newsResponse{
		Status:       "ok",
		TotalResults: page.TotalResults,
		Articles:     articles,
	})
}
