package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"khumo/server/internal/models"
)

// UpsertProperties writes a batch of listings inside an existing GORM
// transaction. Rows with an id update in place; rows without one insert.
// Used by the batch processor on the ingest path.
func UpsertProperties(tx *gorm.DB, properties []*models.PropertyRecord) error {
	if len(properties) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, property := range properties {
		property.UpdatedAt = now
		if property.CreatedAt.IsZero() {
			property.CreatedAt = now
		}
		if property.Status == "" {
			property.Status = "active"
		}
		if property.ListingType == "" {
			property.ListingType = "sale"
		}
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&properties).Error
}
