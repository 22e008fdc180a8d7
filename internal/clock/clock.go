package clock

import (
	"net/http"
	"strings"
	"time"
)

// StepSeconds is the width of one slider step
const StepSeconds = 3600

// Clock converts a bounded slider position into a forecast timestamp.
// The start is the current hour (UTC) at the moment the validity window
// was fetched and is never recomputed from slider movement.
type Clock struct {
	start    int64
	end      int64
	max      int
	position int
}

// New builds a clock for a freshly fetched forecast end time
func New(endTimestamp int64, now time.Time) *Clock {
	start := now.UTC().Truncate(time.Hour).Unix()
	return &Clock{
		start: start,
		end:   endTimestamp,
		max:   maxPosition(start, endTimestamp),
	}
}

// maxPosition is floor((end - start) / step), never below zero
func maxPosition(start, end int64) int {
	diff := end - start
	if diff <= 0 {
		return 0
	}
	return int(diff / StepSeconds)
}

// Start returns the slider origin as unix seconds
func (c *Clock) Start() int64 { return c.start }

// End returns the forecast end as unix seconds
func (c *Clock) End() int64 { return c.end }

// MaxPosition returns the upper bound of the slider
func (c *Clock) MaxPosition() int { return c.max }

// Position returns the current slider position
func (c *Clock) Position() int { return c.position }

// SetPosition moves the slider, clamping to [0, MaxPosition], and
// returns the position actually applied.
func (c *Clock) SetPosition(position int) int {
	c.position = c.clamp(position)
	return c.position
}

func (c *Clock) clamp(position int) int {
	if position < 0 {
		return 0
	}
	if position > c.max {
		return c.max
	}
	return position
}

// Timestamp returns start + step * position as unix seconds
func (c *Clock) Timestamp() int64 {
	return c.start + StepSeconds*int64(c.clamp(c.position))
}

// Time returns Timestamp as a UTC time
func (c *Clock) Time() time.Time {
	return time.Unix(c.Timestamp(), 0).UTC()
}

// Label returns the human-readable forecast time
func (c *Clock) Label() string {
	return FormatTime(c.Time())
}

// FormatTime renders t in RFC 1123 form with the zone written as UTC,
// e.g. "Mon, 19 Oct 2026 14:00:00 UTC".
func FormatTime(t time.Time) string {
	return strings.Replace(t.UTC().Format(http.TimeFormat), "GMT", "UTC", 1)
}
