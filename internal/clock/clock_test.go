package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ThreeHourWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 37, 12, 0, time.UTC)
	hour := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC).Unix()
	end := hour + 3*3600

	c := New(end, now)

	assert.Equal(t, hour, c.Start())
	assert.Equal(t, 3, c.MaxPosition())
	assert.Equal(t, 0, c.Position())
	assert.Equal(t, hour, c.Timestamp())

	require.Equal(t, 2, c.SetPosition(2))
	assert.Equal(t, end-3600, c.Timestamp())
	// dragging never moves the start
	assert.Equal(t, hour, c.Start())
}

func TestNew_FloorsPartialHours(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)
	end := now.Unix() + 2*3600 + 3599

	c := New(end, now)
	assert.Equal(t, 2, c.MaxPosition())
}

func TestNew_NonUTCNow(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	now := time.Date(2026, 10, 19, 16, 45, 0, 0, loc)

	c := New(0, now)
	assert.Equal(t, time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC).Unix(), c.Start())
}

func TestDegenerateWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  int64
	}{
		{name: "end equals start", end: now.Unix()},
		{name: "end before start", end: now.Unix() - 7200},
		{name: "end inside first hour", end: now.Unix() + 1800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.end, now)
			assert.Equal(t, 0, c.MaxPosition())
			assert.Equal(t, 0, c.SetPosition(5))
			assert.Equal(t, 0, c.SetPosition(-1))
			assert.Equal(t, now.Unix(), c.Timestamp())
		})
	}
}

func TestSetPosition_Clamps(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	c := New(now.Unix()+10*3600, now)

	assert.Equal(t, 10, c.SetPosition(42))
	assert.Equal(t, 0, c.SetPosition(-3))
	assert.Equal(t, 7, c.SetPosition(7))
}

func TestTimestamp_NeverPassesEnd(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 20, 0, 0, time.UTC)
	for _, extra := range []int64{0, 1, 1800, 3599, 3600, 3601, 86399} {
		end := now.Truncate(time.Hour).Unix() + 24*3600 + extra
		c := New(end, now)
		for p := 0; p <= c.MaxPosition(); p++ {
			c.SetPosition(p)
			assert.Equal(t, c.Start()+3600*int64(p), c.Timestamp())
			assert.LessOrEqual(t, c.Timestamp(), end)
			assert.Less(t, end-c.Timestamp(), int64(3600)+3600*int64(c.MaxPosition()-p))
		}
	}
}

func TestLabel(t *testing.T) {
	now := time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)
	c := New(now.Unix()+5*3600, now)
	c.SetPosition(1)

	assert.Equal(t, "Mon, 19 Oct 2026 15:00:00 UTC", c.Label())
	assert.Equal(t, "Thu, 01 Jan 1970 00:00:00 UTC", FormatTime(time.Unix(0, 0)))
}
