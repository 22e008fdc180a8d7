package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"runway_view/internal/database"
)

// TAFReload refreshes the forecast end times from the TAF export
type TAFReload struct {
	repo     database.TAFRepository
	csvPath  string
	interval time.Duration
}

// NewTAFReload creates a reload task for the CSV at csvPath
func NewTAFReload(repo database.TAFRepository, csvPath string, interval time.Duration) *TAFReload {
	return &TAFReload{
		repo:     repo,
		csvPath:  csvPath,
		interval: interval,
	}
}

func (t *TAFReload) Name() string { return "taf_reload" }

func (t *TAFReload) Interval() time.Duration { return t.interval }

// Run upserts every end time found in the export
func (t *TAFReload) Run(ctx context.Context) error {
	if t.csvPath == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.repo.LoadFromCSV(t.csvPath); err != nil {
		return fmt.Errorf("failed to reload TAF end times: %w", err)
	}

	slog.Debug("Reloaded TAF end times", "csv_path", t.csvPath)
	return nil
}
