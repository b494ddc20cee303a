package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Strob0t/technews/internal/domain"
)

// Limits enforced on incoming parameters.
const (
	MaxTermLength     = 100
	MaxPageSize       = 100
	MaxImageURLLength = 2000
)

// CategoryIndian is the pseudo-category answered by a regional keyword search.
const CategoryIndian = "indian"

// Defaults applied when a parameter is omitted.
const (
	DefaultCategory          = "technology"
	DefaultHeadlinesCategory = "general"
	DefaultCountry           = "us"
	DefaultSortBy            = "publishedAt"
	DefaultLanguage          = "en"
	DefaultEverythingSize    = 20
	DefaultHeadlinesSize     = 10
)

var categories = map[string]bool{
	"business":      true,
	"entertainment": true,
	"general":       true,
	"health":        true,
	"science":       true,
	"sports":        true,
	"technology":    true,
	CategoryIndian:  true,
}

var sortOrders = map[string]bool{
	"relevancy":   true,
	"popularity":  true,
	"publishedAt": true,
}

// ParseNews validates the parameters of the combined news endpoint. A
// non-blank q selects a keyword search; otherwise the category decides
// between a regional search and a headlines listing.
func ParseNews(v url.Values) (Params, error) {
	category, err := parseCategory(v.Get("category"), DefaultCategory, true)
	if err != nil {
		return Params{}, err
	}
	sortBy, err := parseSortBy(v.Get("sortBy"))
	if err != nil {
		return Params{}, err
	}
	language, err := parseLanguage(v.Get("language"), DefaultLanguage)
	if err != nil {
		return Params{}, err
	}
	country, err := parseCountry(v.Get("country"))
	if err != nil {
		return Params{}, err
	}

	if term := NormalizeTerm(v.Get("q")); term != "" {
		if err := ValidateTerm(term); err != nil {
			return Params{}, err
		}
		return Params{Operation: OpSearch, Keyword: term, SortBy: sortBy, Language: language}, nil
	}

	if IsPseudoCategory(category) {
		return Params{Operation: OpRegional, Category: category, SortBy: sortBy, Language: language}, nil
	}
	return Params{Operation: OpHeadlines, Category: category, Country: country}, nil
}

// ParseEverything validates the parameters of the search-only endpoint.
// q is required; there is no category routing.
func ParseEverything(v url.Values) (Params, error) {
	term := NormalizeTerm(v.Get("q"))
	if term == "" {
		return Params{}, fmt.Errorf("q is required: %w", domain.ErrValidation)
	}
	if err := ValidateTerm(term); err != nil {
		return Params{}, err
	}
	sortBy, err := parseSortBy(v.Get("sortBy"))
	if err != nil {
		return Params{}, err
	}
	language, err := parseLanguage(v.Get("language"), "")
	if err != nil {
		return Params{}, err
	}
	page, pageSize, err := parsePaging(v, DefaultEverythingSize)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Operation: OpSearch,
		Keyword:   term,
		SortBy:    sortBy,
		Language:  language,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// ParseHeadlines validates the parameters of the headlines endpoint.
// Pseudo-categories are not accepted here.
func ParseHeadlines(v url.Values) (Params, error) {
	category, err := parseCategory(v.Get("category"), DefaultHeadlinesCategory, false)
	if err != nil {
		return Params{}, err
	}
	country, err := parseCountry(v.Get("country"))
	if err != nil {
		return Params{}, err
	}
	page, pageSize, err := parsePaging(v, DefaultHeadlinesSize)
	if err != nil {
		return Params{}, err
	}
	return Params{
		Operation: OpHeadlines,
		Category:  category,
		Country:   country,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

// NormalizeTerm trims a search term and collapses inner whitespace runs so
// that equivalent searches share a cache entry. Case is preserved because
// the upstream query language treats AND/OR/NOT specially.
func NormalizeTerm(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ValidateTerm checks a normalised search term.
func ValidateTerm(term string) error {
	if term == "" {
		return fmt.Errorf("search term must not be empty: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(term) > MaxTermLength {
		return fmt.Errorf("search term exceeds %d characters: %w", MaxTermLength, domain.ErrValidation)
	}
	return nil
}

// ValidateImageURL checks the target of an image relay request and returns
// the parsed URL.
func ValidateImageURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("url parameter is required: %w", domain.ErrValidation)
	}
	if len(raw) > MaxImageURLLength {
		return nil, fmt.Errorf("url exceeds %d characters: %w", MaxImageURLLength, domain.ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("url must be an absolute http(s) URL: %w", domain.ErrValidation)
	}
	return u, nil
}

func parseCategory(raw, def string, allowPseudo bool) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return def, nil
	}
	if !categories[c] {
		return "", fmt.Errorf("unknown category %q: %w", raw, domain.ErrValidation)
	}
	if !allowPseudo && IsPseudoCategory(c) {
		return "", fmt.Errorf("category %q is not available on this endpoint: %w", c, domain.ErrValidation)
	}
	return c, nil
}

func parseCountry(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return DefaultCountry, nil
	}
	if !isTwoLetters(c) {
		return "", fmt.Errorf("country must be a two-letter code: %w", domain.ErrValidation)
	}
	return c, nil
}

func parseSortBy(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultSortBy, nil
	}
	if !sortOrders[s] {
		return "", fmt.Errorf("sortBy must be one of relevancy, popularity, publishedAt: %w", domain.ErrValidation)
	}
	return s, nil
}

func parseLanguage(raw, def string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(raw))
	if l == "" {
		return def, nil
	}
	if !isTwoLetters(l) {
		return "", fmt.Errorf("language must be a two-letter code: %w", domain.ErrValidation)
	}
	return l, nil
}

func parsePaging(v url.Values, defSize int) (page, pageSize int, err error) {
	page, err = parseInt(v.Get("page"), "page", 1)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 {
		return 0, 0, fmt.Errorf("page must be at least 1: %w", domain.ErrValidation)
	}
	pageSize, err = parseInt(v.Get("pageSize"), "pageSize", defSize)
	if err != nil {
		return 0, 0, err
	}
	if pageSize < 1 {
		return 0, 0, fmt.Errorf("pageSize must be at least 1: %w", domain.ErrValidation)
	}
	if pageSize > MaxPageSize {
		return 0, 0, fmt.Errorf("pageSize must not exceed %d: %w", MaxPageSize, domain.ErrValidation)
	}
	return page, pageSize, nil
}

func parseInt(raw, name string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, domain.ErrValidation)
	}
	return n, nil
}

func isTwoLetters(s string) bool {
	if len(s) != 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
