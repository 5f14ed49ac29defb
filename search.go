package wander

import (
	"strings"

	"github.com/hupe1980/wander/catalog"
)

// SearchFilter narrows search results. All set fields must match (AND).
// String matches are case-insensitive exact; MaxCost is inclusive.
type SearchFilter struct {
	Category string
	City     string
	MaxCost  *float64
}

// Matches reports whether the attraction passes the filter.
// A nil filter passes everything.
func (f *SearchFilter) Matches(a *catalog.Attraction) bool {
	if f == nil {
		return true
	}
	if f.Category != "" && !strings.EqualFold(f.Category, a.Category) {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, a.City) {
		return false
	}
	if f.MaxCost != nil && a.AvgCost > *f.MaxCost {
		return false
	}
	return true
}

// SearchResult is an attraction paired with its similarity to the query.
// Similarity is cosine similarity in [-1, 1]; higher is more similar.
type SearchResult struct {
	catalog.Attraction
	Similarity float32 `json:"similarity_score"`
}
