package catalog

import (
	"slices"
)

// Stats summarizes the catalog contents. Produced by pure aggregation;
// computing it has no side effects.
type Stats struct {
	TotalAttractions int      `json:"total_attractions"`
	Cities           int      `json:"cities"`
	Categories       int      `json:"categories"`
	AvgRating        float64  `json:"avg_rating"`
	AvgCost          float64  `json:"avg_cost_usd"`
	CityList         []string `json:"city_list,omitempty"`
	CategoryList     []string `json:"category_list,omitempty"`
}

// Stats returns aggregate statistics over all records.
func (c *Catalog) Stats() Stats {
	if len(c.records) == 0 {
		return Stats{}
	}

	cities := make(map[string]struct{})
	categories := make(map[string]struct{})

	var ratingSum, costSum float64
	for _, rec := range c.records {
		cities[rec.City] = struct{}{}
		categories[rec.Category] = struct{}{}
		ratingSum += rec.Rating
		costSum += rec.AvgCost
	}

	n := float64(len(c.records))

	return Stats{
		TotalAttractions: len(c.records),
		Cities:           len(cities),
		Categories:       len(categories),
		AvgRating:        ratingSum / n,
		AvgCost:          costSum / n,
		CityList:         sortedKeys(cities),
		CategoryList:     sortedKeys(categories),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
