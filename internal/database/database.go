package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB holds the SQLite connection backing the lookup service
type DB struct {
	db *sql.DB
}

// New creates and initializes a new database connection
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := optimizeSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize database: %w", err)
	}

	database := &DB{db: db}

	if err := database.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// optimizeSQLite applies pragmas for a read-mostly catalog
func optimizeSQLite(db *sql.DB) error {
	// WAL lets lookups run while a reload is writing
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA cache_size=-16000"); err != nil {
		return fmt.Errorf("failed to set cache size: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA temp_store=MEMORY"); err != nil {
		return fmt.Errorf("failed to set temp_store: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// AirportRepository returns the airport catalog repository
func (d *DB) AirportRepository() AirportRepository {
	return NewAirportRepository(d.db)
}

// TAFRepository returns the forecast validity repository
func (d *DB) TAFRepository() TAFRepository {
	return NewTAFRepository(d.db)
}

// initSchema creates the database schema if it doesn't exist
func (d *DB) initSchema() error {
	airportsSchema := `CREATE TABLE IF NOT EXISTS airports (
		icao TEXT PRIMARY KEY,
		iata TEXT,
		name TEXT NOT NULL,
		city TEXT,
		state TEXT,
		country TEXT,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		searchable TEXT NOT NULL
	);`

	tafSchema := `CREATE TABLE IF NOT EXISTS taf_end_times (
		icao TEXT PRIMARY KEY,
		end_time TIMESTAMP NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_airports_searchable ON airports(searchable)`,
	}

	if _, err := d.db.Exec(airportsSchema); err != nil {
		return fmt.Errorf("failed to create airports table: %w", err)
	}

	if _, err := d.db.Exec(tafSchema); err != nil {
		return fmt.Errorf("failed to create taf_end_times table: %w", err)
	}

	for _, idx := range indexes {
		if _, err := d.db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
