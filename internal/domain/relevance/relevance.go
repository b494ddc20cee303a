// Package relevance narrows a regional article list to the items that are
// plausibly about the region and the selected topic. The rules are keyword
// heuristics and will misclassify some articles.
package relevance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/article"
)

// Topic selects the sub-category view of the regional feed.
type Topic string

const (
	TopicAll           Topic = "all"
	TopicFinance       Topic = "finance"
	TopicTechnology    Topic = "technology"
	TopicPolitics      Topic = "politics"
	TopicSports        Topic = "sports"
	TopicEntertainment Topic = "entertainment"
	TopicBusiness      Topic = "business"
	TopicScience       Topic = "science"
	TopicHealth        Topic = "health"
)

// exclusions reject an article for every topic.
var exclusions = []*regexp.Regexp{
	// off-topic countries
	wordPattern("pakistan", "china", "usa", "america", "uk", "britain", "russia", "ukraine",
		"israel", "gaza", "bangladesh", "sri lanka", "nepal"),
	// astrology
	wordPattern("horoscope", "horoscopes", "zodiac", "astrology", "tarot", "rashifal"),
	// tragedy and accidents
	wordPattern("accident", "crash", "killed", "dead", "death", "died", "murder", "suicide",
		"tragedy", "stampede", "collapse"),
	// personnel appointments
	wordPattern("appointed", "appoints", "resigns", "resignation", "steps down", "named as",
		"takes charge", "elevated to"),
}

// strictFinance must match for the finance topic; regional identity is not
// required there.
var strictFinance = wordPattern("sensex", "nifty", "bse", "nse", "stock market", "share price",
	"shares", "rupee", "rbi", "repo rate", "ipo", "mutual fund", "market cap", "fii", "dii",
	"equity", "bull", "bear", "rallies", "rally")

// regionalIdentity must match for every topic except finance.
var regionalIdentity = wordPattern("india", "indian", "indians", "delhi", "new delhi", "mumbai",
	"bengaluru", "bangalore", "chennai", "kolkata", "hyderabad", "pune", "modi", "rbi", "isro",
	"bollywood", "rupee")

var topicKeywords = map[Topic]*regexp.Regexp{
	TopicFinance: wordPattern("market", "markets", "stock", "stocks", "sensex", "nifty", "investors",
		"trading", "rupee", "bank", "rbi", "shares", "ipo"),
	TopicTechnology: wordPattern("technology", "tech", "startup", "startups", "software", "ai",
		"artificial intelligence", "smartphone", "digital", "internet", "app", "cyber",
		"semiconductor", "isro"),
	TopicPolitics: wordPattern("election", "elections", "bjp", "congress", "parliament", "minister",
		"government", "lok sabha", "rajya sabha", "policy", "vote", "opposition"),
	TopicSports: wordPattern("cricket", "ipl", "bcci", "hockey", "football", "kabaddi", "olympics",
		"match", "tournament", "medal"),
	TopicEntertainment: wordPattern("bollywood", "film", "films", "movie", "actor", "actress",
		"box office", "music", "ott", "series", "celebrity"),
	TopicBusiness: wordPattern("business", "company", "companies", "industry", "trade", "economy",
		"gdp", "investment", "corporate", "export", "exports", "revenue", "profit"),
	TopicScience: wordPattern("science", "research", "isro", "space", "scientists", "study",
		"discovery", "chandrayaan", "gaganyaan", "mission"),
	TopicHealth: wordPattern("health", "hospital", "hospitals", "disease", "vaccine", "medical",
		"doctor", "doctors", "covid", "patients", "aiims", "healthcare"),
}

// ParseTopic validates a topic name. An empty string selects TopicAll.
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if t == "" || t == TopicAll {
		return TopicAll, nil
	}
	if _, ok := topicKeywords[t]; !ok {
		return "", fmt.Errorf("unknown topic %q (valid: %s): %w", s, strings.Join(Topics(), ", "), domain.ErrValidation)
	}
	return t, nil
}

// Topics returns all accepted topic names in sorted order.
func Topics() []string {
	names := make([]string, 0, len(topicKeywords)+1)
	names = append(names, string(TopicAll))
	for t := range topicKeywords {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Filter returns the articles that pass the rules for topic, in their
// original order.
func Filter(articles []article.Article, topic Topic) []article.Article {
	lower := cases.Lower(language.Und)
	out := make([]article.Article, 0, len(articles))
	for i := range articles {
		text := lower.String(articles[i].Title + " " + articles[i].DescriptionText())
		if Relevant(text, topic) {
			out = append(out, articles[i])
		}
	}
	return out
}

// Relevant applies the rules to already lower-cased article text.
func Relevant(text string, topic Topic) bool {
	for _, re := range exclusions {
		if re.MatchString(text) {
			return false
		}
	}

	if topic == TopicFinance {
		if !strictFinance.MatchString(text) {
			return false
		}
	} else if !regionalIdentity.MatchString(text) {
		return false
	}

	if topic != TopicAll && topic != "" {
		re, ok := topicKeywords[topic]
		if !ok || !re.MatchString(text) {
			return false
		}
	}
	return true
}

// wordPattern compiles a case-sensitive whole-word alternation; callers
// lower-case the text first.
func wordPattern(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
