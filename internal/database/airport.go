package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"runway_view/internal/models"
)

// ErrAirportNotFound is returned when an ICAO code is not in the catalog
var ErrAirportNotFound = errors.New("airport not found")

type AirportRepository interface {
	InsertBatch(airports []*models.Airport) error
	IsTablePopulated() (bool, error)
	LoadFromCSV(csvPath string, batchSize int) error
	Search(term string) ([]*models.Airport, error)
	GetByICAO(icao string) (*models.Airport, error)
}

type airportRepository struct {
	db *sql.DB
}

func NewAirportRepository(db *sql.DB) AirportRepository {
	return &airportRepository{db: db}
}

// InsertBatch inserts one or more airports in a single transaction
func (r *airportRepository) InsertBatch(airports []*models.Airport) error {
	if len(airports) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO airports (
		icao, iata, name, city, state, country, lat, lon, searchable
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range airports {
		if _, err := stmt.Exec(
			a.ICAO, a.IATA, a.Name, a.City, a.State, a.Country, a.Lat, a.Lon,
			strings.ToLower(a.Searchable()),
		); err != nil {
			return fmt.Errorf("failed to insert airport %s: %w", a.ICAO, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *airportRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM airports LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check airports table: %w", err)
	}
	return true, nil
}

// Search returns every airport whose searchable text contains term, case-insensitively
func (r *airportRepository) Search(term string) ([]*models.Airport, error) {
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	rows, err := r.db.Query(`SELECT icao, iata, name, city, state, country, lat, lon
		FROM airports WHERE searchable LIKE ? ESCAPE '\' ORDER BY icao`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search airports: %w", err)
	}
	defer rows.Close()

	var airports []*models.Airport
	for rows.Next() {
		a := &models.Airport{}
		if err := rows.Scan(&a.ICAO, &a.IATA, &a.Name, &a.City, &a.State, &a.Country, &a.Lat, &a.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan airport: %w", err)
		}
		airports = append(airports, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate airports: %w", err)
	}

	return airports, nil
}

func (r *airportRepository) GetByICAO(icao string) (*models.Airport, error) {
	a := &models.Airport{}
	err := r.db.QueryRow(`SELECT icao, iata, name, city, state, country, lat, lon
		FROM airports WHERE icao = ?`, icao).
		Scan(&a.ICAO, &a.IATA, &a.Name, &a.City, &a.State, &a.Country, &a.Lat, &a.Lon)
	if err == sql.ErrNoRows {
		return nil, ErrAirportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get airport %s: %w", icao, err)
	}
	return a, nil
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// LoadFromCSV loads the airport catalog from a CSV file with a header row
// (icao, iata, name, city, state, country, lat, lon)
func (r *airportRepository) LoadFromCSV(csvPath string, batchSize int) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
	}
	headerMap := buildHeaderMap(header)

	batch := make([]*models.Airport, 0, batchSize)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
		}

		a := &models.Airport{
			ICAO:    strings.ToUpper(getField(record, headerMap, "icao")),
			IATA:    getField(record, headerMap, "iata"),
			Name:    getField(record, headerMap, "name"),
			City:    getField(record, headerMap, "city"),
			State:   getField(record, headerMap, "state"),
			Country: getField(record, headerMap, "country"),
		}

		// Skip records without a usable ICAO code or position
		if !models.IsValidICAO(a.ICAO) {
			continue
		}
		if a.Lat, err = strconv.ParseFloat(getField(record, headerMap, "lat"), 64); err != nil {
			continue
		}
		if a.Lon, err = strconv.ParseFloat(getField(record, headerMap, "lon"), 64); err != nil {
			continue
		}

		batch = append(batch, a)

		if len(batch) >= batchSize {
			if err := r.InsertBatch(batch); err != nil {
				return fmt.Errorf("failed to insert batch: %w", err)
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := r.InsertBatch(batch); err != nil {
			return fmt.Errorf("failed to insert final batch: %w", err)
		}
	}

	return nil
}

func buildHeaderMap(header []string) map[string]int {
	headerMap := make(map[string]int, len(header))
	for i, h := range header {
		headerMap[strings.ToLower(strings.Trim(strings.TrimSpace(h), "'\""))] = i
	}
	return headerMap
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}
