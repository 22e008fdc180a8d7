package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ErrNoForecast is returned when no TAF end time is known for an airport
var ErrNoForecast = errors.New("no meteorological data available")

// TAFEndTime is the end of validity of the latest TAF issued for an airport
type TAFEndTime struct {
	ICAO    string
	EndTime time.Time
}

type TAFRepository interface {
	UpsertBatch(entries []*TAFEndTime) error
	LastEndTime(icao string) (time.Time, error)
	LoadFromCSV(csvPath string) error
}

type tafRepository struct {
	db *sql.DB
}

func NewTAFRepository(db *sql.DB) TAFRepository {
	return &tafRepository{db: db}
}

// UpsertBatch stores the latest end time per airport in a single transaction
func (r *tafRepository) UpsertBatch(entries []*TAFEndTime) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO taf_end_times (icao, end_time) VALUES (?, ?)
		ON CONFLICT(icao) DO UPDATE SET end_time = excluded.end_time, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.ICAO, e.EndTime.UTC().Unix()); err != nil {
			return fmt.Errorf("failed to upsert taf end time for %s: %w", e.ICAO, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *tafRepository) LastEndTime(icao string) (time.Time, error) {
	var unix int64
	err := r.db.QueryRow(`SELECT end_time FROM taf_end_times WHERE icao = ?`, icao).Scan(&unix)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNoForecast
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get taf end time for %s: %w", icao, err)
	}
	return time.Unix(unix, 0).UTC(), nil
}

// LoadFromCSV loads TAF end times from a CSV file with a header row (icao, end_time).
// end_time is RFC 3339.
func (r *tafRepository) LoadFromCSV(csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
	}
	headerMap := buildHeaderMap(header)

	var entries []*TAFEndTime
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
		}

		icao := strings.ToUpper(getField(record, headerMap, "icao"))
		endTime, err := time.Parse(time.RFC3339, getField(record, headerMap, "end_time"))
		if icao == "" || err != nil {
			continue
		}
		entries = append(entries, &TAFEndTime{ICAO: icao, EndTime: endTime})
	}

	return r.UpsertBatch(entries)
}
