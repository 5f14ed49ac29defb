package catalog

// Attraction is an immutable point-of-interest record. Records are created
// only through ingestion and are never mutated or deleted afterwards.
//
// Description is the text used as the embedding source and must be
// non-empty at ingestion time.
type Attraction struct {
	ID           string   `json:"id"`
	City         string   `json:"city"`
	Country      string   `json:"country"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	AvgCost      float64  `json:"avg_cost_usd"`
	Rating       float64  `json:"rating"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Address      string   `json:"address,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	Website      string   `json:"website,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
	LastUpdated  string   `json:"last_updated,omitempty"`
}
