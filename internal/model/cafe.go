package model

// Cafe is a café listed on the site.
//
// CafeID is the public numeric identifier used in URLs (?cafe_id=1). It is
// distinct from ID, which is whatever the document store assigned.
// Name doubles as the key reviews point at.
type Cafe struct {
	ID          string   `json:"id"`
	CafeID      int      `json:"cafe_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rating      float64  `json:"rating"`
	Items       []string `json:"items"`
	Owner       string   `json:"owner"`
	Address     string   `json:"address"`
	PriceRange  string   `json:"price_range"`
	ImageName   string   `json:"image_name"`
}
