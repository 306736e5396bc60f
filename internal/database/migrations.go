package database

import "fmt"

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			address TEXT,
			city TEXT,
			property_type TEXT,
			listing_type TEXT DEFAULT 'sale',
			status TEXT DEFAULT 'active',
			price REAL DEFAULT 0,
			bedrooms INTEGER,
			bathrooms REAL,
			square_feet INTEGER,
			images TEXT,
			latitude REAL,
			longitude REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create properties table: %v", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_city
		ON properties(city);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_price
		ON properties(price);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_status_type
		ON properties(status, property_type);
	`)
	if err != nil {
		return err
	}

	// Spatial index on coordinates
	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_coordinates
		ON properties(latitude, longitude);
	`)
	if err != nil {
		return err
	}

	return nil
}
