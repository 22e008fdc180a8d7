package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"runway_view/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTAFReload(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer db.Close()

	csvPath := filepath.Join(t.TempDir(), "taf.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("icao,end_time\nEHAM,2026-10-20T18:00:00Z\n"), 0o644))

	task := NewTAFReload(db.TAFRepository(), csvPath, time.Minute)
	assert.Equal(t, "taf_reload", task.Name())
	assert.Equal(t, time.Minute, task.Interval())

	require.NoError(t, task.Run(context.Background()))
	end, err := db.TAFRepository().LastEndTime("EHAM")
	require.NoError(t, err)
	assert.Equal(t, int64(1792519200), end.Unix())

	// A newer export replaces the stored end time
	require.NoError(t, os.WriteFile(csvPath, []byte("icao,end_time\nEHAM,2026-10-21T00:00:00Z\n"), 0o644))
	require.NoError(t, task.Run(context.Background()))
	end, err = db.TAFRepository().LastEndTime("EHAM")
	require.NoError(t, err)
	assert.Equal(t, int64(1792540800), end.Unix())
}

func TestTAFReload_MissingFile(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	defer db.Close()

	task := NewTAFReload(db.TAFRepository(), filepath.Join(t.TempDir(), "missing.csv"), time.Minute)
	assert.Error(t, task.Run(context.Background()))

	noop := NewTAFReload(db.TAFRepository(), "", time.Minute)
	assert.NoError(t, noop.Run(context.Background()))
}

type fakePruner struct {
	idle    time.Duration
	removed int
	err     error
}

func (f *fakePruner) PruneIdleViews(ctx context.Context, idle time.Duration) (int, error) {
	f.idle = idle
	return f.removed, f.err
}

func TestViewExpiry(t *testing.T) {
	pruner := &fakePruner{removed: 2}
	task := NewViewExpiry(pruner, time.Hour)

	assert.Equal(t, "view_expiry", task.Name())
	assert.Equal(t, 15*time.Minute, task.Interval())
	require.NoError(t, task.Run(context.Background()))
	assert.Equal(t, time.Hour, pruner.idle)

	pruner.err = errors.New("event loop stopped")
	assert.Error(t, task.Run(context.Background()))

	assert.Equal(t, time.Second, NewViewExpiry(pruner, time.Second).Interval())
}
