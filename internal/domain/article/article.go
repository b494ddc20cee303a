// Package article defines the news article model shared by the proxy, the
// cache and the relevance filter.
package article

import "time"

// Source identifies the publisher of an article.
type Source struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Article is a single news item as delivered by the upstream news service.
// Nullable upstream fields are pointers so that null round-trips unchanged.
type Article struct {
	Source      Source    `json:"source"`
	Author      *string   `json:"author"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	URL         string    `json:"url"`
	URLToImage  *string   `json:"urlToImage"`
	PublishedAt time.Time `json:"publishedAt"`
	Content     *string   `json:"content"`
}

// DescriptionText returns the description or "" when it is null.
func (a *Article) DescriptionText() string {
	if a.Description == nil {
		return ""
	}
	return *a.Description
}

// Page is one result set returned by the upstream service. It is the unit
// stored in the response cache.
type Page struct {
	TotalResults int       `json:"totalResults"`
	Articles     []Article `json:"articles"`
}

// Dedupe returns the articles with duplicate URLs removed. The first
// occurrence wins and the relative order of the survivors is preserved,
// since upstream ordering reflects relevance or recency.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for i := range articles {
		if _, dup := seen[articles[i].URL]; dup {
			continue
		}
		seen[articles[i].URL] = struct{}{}
		out = append(out, articles[i])
	}
	return out
}
