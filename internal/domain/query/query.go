// Package query validates and normalises news request parameters and derives
// the canonical cache key for a request.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation selects the upstream call used to answer a request.
type Operation string

const (
	// OpSearch is a free-text search across all articles.
	OpSearch Operation = "search"
	// OpRegional is a search driven by a pseudo-category's fixed keyword query.
	OpRegional Operation = "regional"
	// OpHeadlines lists top headlines for a category and country.
	OpHeadlines Operation = "headlines"
)

// Params is a validated, normalised request. Only the fields relevant to the
// Operation are populated, so two logically identical requests compare equal.
type Params struct {
	Operation Operation
	Keyword   string
	Category  string
	Country   string
	SortBy    string
	Language  string
	Page      int // 0 = upstream default
	PageSize  int // 0 = upstream default
}

// Key returns the canonical cache key for p. It is a pure function of the
// populated fields; sortBy, language and country are enum-checked so the
// colon-separated layout cannot be ambiguous.
func (p Params) Key() string {
	var key string
	switch p.Operation {
	case OpSearch:
		key = "search:" + p.Keyword + ":" + p.SortBy + ":" + p.Language
	case OpRegional:
		key = "regional:" + p.Category + ":" + p.SortBy + ":" + p.Language
	case OpHeadlines:
		key = "headlines:" + p.Category + ":" + p.Country
	default:
		key = string(p.Operation)
	}
	if p.Page > 0 || p.PageSize > 0 {
		key += ":p" + strconv.Itoa(p.Page) + ":" + strconv.Itoa(p.PageSize)
	}
	return key
}

// String implements fmt.Stringer for log output.
func (p Params) String() string {
	return fmt.Sprintf("%s(%s)", p.Operation, p.Key())
}

// regionalTerms maps each pseudo-category to the OR query that replaces it.
var regionalTerms = map[string][]string{
	CategoryIndian: {"India", "Indian", "Delhi", "Mumbai", "Bengaluru", "Chennai", "Kolkata"},
}

// RegionalSearchTerm returns the upstream search expression for a
// pseudo-category, or "" when category is not one.
func RegionalSearchTerm(category string) string {
	terms, ok := regionalTerms[category]
	if !ok {
		return ""
	}
	return strings.Join(terms, " OR ")
}

// IsPseudoCategory reports whether category is served by a rewritten search.
func IsPseudoCategory(category string) bool {
	_, ok := regionalTerms[category]
	return ok
}
