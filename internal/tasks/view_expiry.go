package tasks

import (
	"context"
	"log/slog"
	"time"
)

// ViewPruner drops view sessions that have not been used for a while
type ViewPruner interface {
	PruneIdleViews(ctx context.Context, idle time.Duration) (int, error)
}

// ViewExpiry removes idle view sessions
type ViewExpiry struct {
	pruner   ViewPruner
	ttl      time.Duration
	interval time.Duration
}

// NewViewExpiry creates an expiry task; sessions idle for longer than ttl are dropped
func NewViewExpiry(pruner ViewPruner, ttl time.Duration) *ViewExpiry {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	return &ViewExpiry{
		pruner:   pruner,
		ttl:      ttl,
		interval: interval,
	}
}

func (v *ViewExpiry) Name() string { return "view_expiry" }

func (v *ViewExpiry) Interval() time.Duration { return v.interval }

func (v *ViewExpiry) Run(ctx context.Context) error {
	removed, err := v.pruner.PruneIdleViews(ctx, v.ttl)
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("Expired idle views", "count", removed)
	}
	return nil
}
