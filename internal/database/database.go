package database

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"

	_ "github.com/mattn/go-sqlite3"

	"khumo/server/config"
	"khumo/server/internal/models"
	"khumo/server/internal/normalize"
	"khumo/server/internal/textquery"
)

const (
	// Hard cap on local records per aggregated search
	localSearchLimit = 50

	// Pagination bounds for the plain listing endpoints
	defaultFilterLimit = 20
	maxFilterLimit     = 100
)

type Database struct {
	db     *sql.DB
	logger *logrus.Logger
	cache  *queryCache
}

func NewDatabase(dbPath string, cacheTTL time.Duration, logger *logrus.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{
		db:     db,
		logger: logger,
		cache:  newQueryCache(cacheTTL),
	}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

// InvalidateCache drops all cached filter query results. Called on every
// write so subsequent reads never see pre-write data.
func (d *Database) InvalidateCache() {
	d.cache.invalidate()
}

const recordColumns = `
        id,
        title,
        COALESCE(description, '') as description,
        COALESCE(address, '') as address,
        COALESCE(city, '') as city,
        COALESCE(property_type, '') as property_type,
        COALESCE(listing_type, 'sale') as listing_type,
        COALESCE(status, 'active') as status,
        price,
        bedrooms,
        bathrooms,
        square_feet,
        COALESCE(images, '') as images,
        latitude,
        longitude,
        COALESCE(created_at, CURRENT_TIMESTAMP) as created_at,
        COALESCE(updated_at, CURRENT_TIMESTAMP) as updated_at`

// SearchProperties is the local branch of the aggregated search. It derives
// structured criteria from the raw query, AND-combines one predicate per
// criterion, and falls back to a broad substring search when nothing
// structured was derived. Results are capped at 50.
func (d *Database) SearchProperties(rawQuery, sortKey string) ([]models.UnifiedProperty, error) {
	criteria := textquery.Parse(rawQuery)

	query := "SELECT " + recordColumns + " FROM properties WHERE status = 'active'"
	var args []interface{}

	hasStructured := criteria.Beds != nil || criteria.Type != "" ||
		criteria.Location != "" || criteria.MinPrice != nil || criteria.MaxPrice != nil

	if hasStructured {
		var conds []string
		if criteria.Beds != nil {
			conds = append(conds, "bedrooms >= ?")
			args = append(args, *criteria.Beds)
		}
		if criteria.Type != "" {
			conds = append(conds, "LOWER(property_type) = ?")
			args = append(args, criteria.Type)
		}
		if criteria.Location != "" {
			conds = append(conds, "LOWER(city) LIKE ?")
			args = append(args, "%"+criteria.Location+"%")
		}
		if criteria.MinPrice != nil {
			conds = append(conds, "price >= ?")
			args = append(args, *criteria.MinPrice)
		}
		if criteria.MaxPrice != nil {
			conds = append(conds, "price <= ?")
			args = append(args, *criteria.MaxPrice)
		}

		// Residual descriptive terms narrow further via title/description
		// substring matching
		if criteria.Query != "" {
			var termConds []string
			for _, term := range strings.Fields(criteria.Query) {
				termConds = append(termConds, "LOWER(title) LIKE ?", "LOWER(description) LIKE ?")
				pattern := "%" + term + "%"
				args = append(args, pattern, pattern)
			}
			conds = append(conds, "("+strings.Join(termConds, " OR ")+")")
		}

		query += " AND " + strings.Join(conds, " AND ")
	} else if trimmed := strings.ToLower(strings.TrimSpace(rawQuery)); trimmed != "" {
		// Plain text search: nothing structured was derived, so match the
		// raw query across all text fields
		query += ` AND (
            LOWER(title) LIKE ?
            OR LOWER(description) LIKE ?
            OR LOWER(city) LIKE ?
            OR LOWER(address) LIKE ?
            OR LOWER(property_type) LIKE ?
        )`
		pattern := "%" + trimmed + "%"
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}

	switch sortKey {
	case "price_low":
		query += " ORDER BY price ASC"
	case "price_high":
		query += " ORDER BY price DESC"
	default:
		query += " ORDER BY created_at DESC"
	}
	query += " LIMIT ?"
	args = append(args, localSearchLimit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("local search query failed: %w", err)
	}
	defer rows.Close()

	var results []models.UnifiedProperty
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, ToUnified(record))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"query":   rawQuery,
		"results": len(results),
	}).Debug("Local search completed")
	return results, nil
}

// FilterProperties serves the plain listing endpoints. Filter-keyed results
// are cached for the configured TTL; any write invalidates the cache.
func (d *Database) FilterProperties(filter models.PropertyFilter) ([]models.PropertyRecord, error) {
	cacheKey := filterCacheKey(filter)
	if cached, ok := d.cache.get(cacheKey); ok {
		d.logger.WithField("key", cacheKey).Debug("Filter cache hit")
		return cached, nil
	}

	query := "SELECT " + recordColumns + " FROM properties WHERE 1=1"
	var args []interface{}

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.ListingType != "" {
		query += " AND listing_type = ?"
		args = append(args, filter.ListingType)
	}
	if filter.City != "" {
		query += " AND LOWER(city) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter.City)+"%")
	}
	if filter.MinPrice != nil {
		query += " AND price >= ?"
		args = append(args, *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query += " AND price <= ?"
		args = append(args, *filter.MaxPrice)
	}
	if filter.MinBeds != nil {
		query += " AND bedrooms >= ?"
		args = append(args, *filter.MinBeds)
	}
	if filter.MaxBeds != nil {
		query += " AND bedrooms <= ?"
		args = append(args, *filter.MaxBeds)
	}
	if filter.MinBaths != nil {
		query += " AND bathrooms >= ?"
		args = append(args, *filter.MinBaths)
	}
	if filter.MaxBaths != nil {
		query += " AND bathrooms <= ?"
		args = append(args, *filter.MaxBaths)
	}
	if filter.MinSqft != nil {
		query += " AND square_feet >= ?"
		args = append(args, *filter.MinSqft)
	}
	if filter.MaxSqft != nil {
		query += " AND square_feet <= ?"
		args = append(args, *filter.MaxSqft)
	}
	if filter.HasBoundingBox() {
		// Coarse prefilter; precise containment happens in Go below
		query += " AND latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?"
		args = append(args, *filter.MinLat, *filter.MaxLat, *filter.MinLng, *filter.MaxLng)
	}

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	ranked := len(term) >= 2
	if term != "" {
		query += ` AND (
            LOWER(title) LIKE ?
            OR LOWER(description) LIKE ?
            OR LOWER(address) LIKE ?
            OR LOWER(city) LIKE ?
        )`
		pattern := "%" + term + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	switch {
	case filter.Sort == "price_low":
		query += " ORDER BY price ASC"
	case filter.Sort == "price_high":
		query += " ORDER BY price DESC"
	case filter.Sort == "newest":
		query += " ORDER BY created_at DESC"
	case ranked:
		// Weighted text-match rank, recency as tiebreak
		pattern := "%" + term + "%"
		query += ` ORDER BY (
            CASE WHEN LOWER(title) LIKE ? THEN 4 ELSE 0 END +
            CASE WHEN LOWER(description) LIKE ? THEN 2 ELSE 0 END +
            CASE WHEN LOWER(address) LIKE ? THEN 1 ELSE 0 END +
            CASE WHEN LOWER(city) LIKE ? THEN 1 ELSE 0 END
        ) DESC, created_at DESC`
		args = append(args, pattern, pattern, pattern, pattern)
	default:
		query += " ORDER BY created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if limit > maxFilterLimit {
		limit = maxFilterLimit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("filter query failed: %w", err)
	}
	defer rows.Close()

	var records []models.PropertyRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if filter.RequireCoordinates || filter.HasBoundingBox() {
		records = filterByGeography(records, filter)
	}

	d.cache.set(cacheKey, records)
	return records, nil
}

// filterByGeography drops rows whose coordinates are missing or non-finite,
// and applies precise bounding-box containment when a box was supplied.
func filterByGeography(records []models.PropertyRecord, filter models.PropertyFilter) []models.PropertyRecord {
	var bound orb.Bound
	hasBox := filter.HasBoundingBox()
	if hasBox {
		bound = orb.Bound{
			Min: orb.Point{*filter.MinLng, *filter.MinLat},
			Max: orb.Point{*filter.MaxLng, *filter.MaxLat},
		}
	}

	kept := records[:0]
	for _, record := range records {
		if record.Latitude == nil || record.Longitude == nil {
			continue
		}
		lat, lng := *record.Latitude, *record.Longitude
		if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
			continue
		}
		if hasBox && !bound.Contains(orb.Point{lng, lat}) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

// GetProperty returns a single record, or nil when no row matches.
func (d *Database) GetProperty(id int64) (*models.PropertyRecord, error) {
	row := d.db.QueryRow("SELECT "+recordColumns+" FROM properties WHERE id = ?", id)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}
	return &record, nil
}

// CreateProperty inserts a new listing and invalidates the query cache.
func (d *Database) CreateProperty(record *models.PropertyRecord) error {
	result, err := d.db.Exec(`
        INSERT INTO properties
        (title, description, address, city, property_type, listing_type, status,
         price, bedrooms, bathrooms, square_feet, images, latitude, longitude)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		record.Title,
		record.Description,
		record.Address,
		record.City,
		record.PropertyType,
		record.ListingType,
		record.Status,
		record.Price,
		record.Bedrooms,
		record.Bathrooms,
		record.SquareFeet,
		record.Images,
		record.Latitude,
		record.Longitude,
	)
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get property ID: %w", err)
	}
	record.ID = id

	d.cache.invalidate()
	return nil
}

// UpdateProperty overwrites an existing listing and invalidates the cache.
func (d *Database) UpdateProperty(record *models.PropertyRecord) error {
	result, err := d.db.Exec(`
        UPDATE properties
        SET title = ?, description = ?, address = ?, city = ?, property_type = ?,
            listing_type = ?, status = ?, price = ?, bedrooms = ?, bathrooms = ?,
            square_feet = ?, images = ?, latitude = ?, longitude = ?,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `,
		record.Title,
		record.Description,
		record.Address,
		record.City,
		record.PropertyType,
		record.ListingType,
		record.Status,
		record.Price,
		record.Bedrooms,
		record.Bathrooms,
		record.SquareFeet,
		record.Images,
		record.Latitude,
		record.Longitude,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %d", record.ID)
	}

	d.cache.invalidate()
	return nil
}

// DeleteProperty removes a listing and invalidates the cache.
func (d *Database) DeleteProperty(id int64) error {
	result, err := d.db.Exec("DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("property not found: %d", id)
	}

	d.cache.invalidate()
	return nil
}

// ToUnified converts a stored row into the unified record shape. Local
// records get a "local_" prefixed id, the platform agency identity, and
// materialized image arrays.
func ToUnified(record models.PropertyRecord) models.UnifiedProperty {
	var lat, lng interface{}
	if record.Latitude != nil {
		lat = *record.Latitude
	}
	if record.Longitude != nil {
		lng = *record.Longitude
	}

	return models.UnifiedProperty{
		ID:           fmt.Sprintf("local_%d", record.ID),
		Title:        record.Title,
		Description:  record.Description,
		Address:      record.Address,
		City:         record.City,
		Price:        normalize.Price(record.Price),
		Bedrooms:     record.Bedrooms,
		Bathrooms:    record.Bathrooms,
		PropertyType: record.PropertyType,
		Source:       models.SourceLocal,
		Images:       normalize.StringList(record.Images),
		Coordinates:  normalize.Coordinates(lat, lng),
		Agency:       models.Agency{Name: config.PlatformAgencyName},
		CreatedAt:    record.CreatedAt,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (models.PropertyRecord, error) {
	var record models.PropertyRecord
	var bedrooms, squareFeet sql.NullInt64
	var bathrooms, latitude, longitude sql.NullFloat64
	var createdAt, updatedAt sql.NullString

	// SQLite's dynamic typing means price can come back as text garbage;
	// normalize it to a finite number instead of failing the scan.
	var price interface{}

	err := row.Scan(
		&record.ID,
		&record.Title,
		&record.Description,
		&record.Address,
		&record.City,
		&record.PropertyType,
		&record.ListingType,
		&record.Status,
		&price,
		&bedrooms,
		&bathrooms,
		&squareFeet,
		&record.Images,
		&latitude,
		&longitude,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return record, err
	}

	record.Price = normalize.Price(price)
	if bedrooms.Valid {
		n := int(bedrooms.Int64)
		record.Bedrooms = &n
	}
	if bathrooms.Valid {
		b := bathrooms.Float64
		record.Bathrooms = &b
	}
	if squareFeet.Valid {
		s := int(squareFeet.Int64)
		record.SquareFeet = &s
	}
	if latitude.Valid {
		l := latitude.Float64
		record.Latitude = &l
	}
	if longitude.Valid {
		l := longitude.Float64
		record.Longitude = &l
	}
	if createdAt.Valid {
		record.CreatedAt = parseTimestamp(createdAt.String)
	}
	if updatedAt.Valid {
		record.UpdatedAt = parseTimestamp(updatedAt.String)
	}

	return record, nil
}

func parseTimestamp(value string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
