package models

import "time"

// PropertyRecord is a stored listing row. The read path scans it out of
// SQLite by hand; the batch ingest path upserts it through GORM, so the
// struct carries both tag sets.
type PropertyRecord struct {
	ID           int64     `json:"id" gorm:"primaryKey;column:id"`
	Title        string    `json:"title" gorm:"column:title"`
	Description  string    `json:"description" gorm:"column:description"`
	Address      string    `json:"address" gorm:"column:address"`
	City         string    `json:"city" gorm:"column:city"`
	PropertyType string    `json:"property_type" gorm:"column:property_type"`
	ListingType  string    `json:"listing_type" gorm:"column:listing_type"`
	Status       string    `json:"status" gorm:"column:status"`
	Price        float64   `json:"price" gorm:"column:price"`
	Bedrooms     *int      `json:"bedrooms" gorm:"column:bedrooms"`
	Bathrooms    *float64  `json:"bathrooms" gorm:"column:bathrooms"`
	SquareFeet   *int      `json:"square_feet" gorm:"column:square_feet"`
	Images       string    `json:"images" gorm:"column:images"`
	Latitude     *float64  `json:"latitude" gorm:"column:latitude"`
	Longitude    *float64  `json:"longitude" gorm:"column:longitude"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// TableName keeps GORM pointed at the same table the raw SQL layer reads.
func (PropertyRecord) TableName() string {
	return "properties"
}

// PropertyFilter is the filter object accepted by the plain listing
// endpoints. Gin binds it from the query string; invalid shapes are a 400,
// unlike the free-text aggregator which accepts any string.
type PropertyFilter struct {
	Search      string   `form:"search"`
	City        string   `form:"city"`
	ListingType string   `form:"listing_type" binding:"omitempty,oneof=sale rent"`
	Status      string   `form:"status" binding:"omitempty,oneof=active pending sold rented"`
	MinPrice    *float64 `form:"min_price" binding:"omitempty,gte=0"`
	MaxPrice    *float64 `form:"max_price" binding:"omitempty,gte=0"`
	MinBeds     *int     `form:"min_beds" binding:"omitempty,gte=0"`
	MaxBeds     *int     `form:"max_beds" binding:"omitempty,gte=0"`
	MinBaths    *float64 `form:"min_baths" binding:"omitempty,gte=0"`
	MaxBaths    *float64 `form:"max_baths" binding:"omitempty,gte=0"`
	MinSqft     *int     `form:"min_sqft" binding:"omitempty,gte=0"`
	MaxSqft     *int     `form:"max_sqft" binding:"omitempty,gte=0"`

	// Bounding box. All four must be set for the box to apply.
	MinLat *float64 `form:"min_lat" binding:"omitempty,gte=-90,lte=90"`
	MaxLat *float64 `form:"max_lat" binding:"omitempty,gte=-90,lte=90"`
	MinLng *float64 `form:"min_lng" binding:"omitempty,gte=-180,lte=180"`
	MaxLng *float64 `form:"max_lng" binding:"omitempty,gte=-180,lte=180"`

	// RequireCoordinates drops rows whose lat/lng is missing or non-finite.
	RequireCoordinates bool `form:"require_coordinates"`

	Sort   string `form:"sort" binding:"omitempty,oneof=relevance price_low price_high newest"`
	Limit  int    `form:"limit" binding:"omitempty,gte=1,lte=100"`
	Offset int    `form:"offset" binding:"omitempty,gte=0"`
}

// HasBoundingBox reports whether all four box edges were supplied.
func (f PropertyFilter) HasBoundingBox() bool {
	return f.MinLat != nil && f.MaxLat != nil && f.MinLng != nil && f.MaxLng != nil
}
