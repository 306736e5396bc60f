package models

import "time"

// Source tags for unified property records.
const (
	SourceLocal    = "local"
	SourceExternal = "external"
)

// Coordinates is a lat/lng pair. It is only attached to a record when both
// components parsed as finite numbers.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Agency identifies who is listing a property. Local records carry the
// platform identity; external records carry whatever the provider reported.
type Agency struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

// UnifiedProperty is the common shape shared by locally stored listings and
// externally sourced ones. IDs are prefixed by source ("local_<n>" or
// "external_<n>") so they never collide across sources.
type UnifiedProperty struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Address      string       `json:"address"`
	City         string       `json:"city"`
	Price        float64      `json:"price"`
	Bedrooms     *int         `json:"bedrooms,omitempty"`
	Bathrooms    *float64     `json:"bathrooms,omitempty"`
	PropertyType string       `json:"property_type"`
	Source       string       `json:"source"`
	Score        *float64     `json:"score,omitempty"`
	Images       []string     `json:"images"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Agency       Agency       `json:"agency"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SearchCriteria is the structured form of a free-text search query. Absent
// fields mean the query did not mention them. The struct is sent verbatim as
// the "filters" payload to the external intelligence provider.
type SearchCriteria struct {
	Beds     *int     `json:"beds,omitempty"`
	Type     string   `json:"type,omitempty"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
	Location string   `json:"location,omitempty"`
	Query    string   `json:"query,omitempty"`
}

// IsEmpty reports whether no structured constraint was derived at all, which
// sends the local query builder into its broad substring fallback.
func (c SearchCriteria) IsEmpty() bool {
	return c.Beds == nil && c.Type == "" && c.MinPrice == nil &&
		c.MaxPrice == nil && c.Location == "" && c.Query == ""
}

// SearchStats are the diagnostic counts attached to a search response.
// Local and External are the pre-merge branch counts, Merged the post-dedupe
// count, Total the final count after truncation.
type SearchStats struct {
	Total    int `json:"total"`
	Local    int `json:"local"`
	External int `json:"external"`
	Merged   int `json:"merged"`
}

// SearchResponse is the aggregation endpoint's envelope.
type SearchResponse struct {
	Query     string            `json:"query"`
	Results   []UnifiedProperty `json:"results"`
	Stats     SearchStats       `json:"stats"`
	Timestamp time.Time         `json:"timestamp"`
}
