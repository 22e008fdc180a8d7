package forms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"runway_view/internal/clock"
	"runway_view/internal/models"
)

// DestinationPlaceholder is the blank option of the destination select
const DestinationPlaceholder = " "

var (
	// ErrFormClosed is returned for edits on a form that is not open
	ErrFormClosed = errors.New("form is not open")
	// ErrNoOriginField is returned for origin edits on a destination-only form
	ErrNoOriginField = errors.New("form has no origin airport field")
)

// Kind identifies one of the two prediction forms
type Kind string

const (
	KindRunway       Kind = "runway"
	KindRunwayConfig Kind = "runway-config"
)

// ParseKind validates a form name
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRunway, KindRunwayConfig:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown form %q", s)
}

// State is the lifecycle state of a form
type State string

const (
	StateClosed  State = "closed"
	StateOpening State = "opening"
	StateReady   State = "ready"
)

// Poster queues a callback on the event loop
type Poster interface {
	Post(fn func()) bool
}

// WindowFetcher looks up the forecast validity window of a destination airport
type WindowFetcher interface {
	LastTAFEndTime(ctx context.Context, icao string) (*models.ForecastValidityWindow, error)
}

// Lookup serves both form fetches
type Lookup interface {
	WindowFetcher
	AirportSearcher
}

// Options tunes the asynchronous behaviour of forms
type Options struct {
	Timeout  time.Duration
	MinChars int
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MinChars <= 0 {
		o.MinChars = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Controller keeps the fields of one prediction form consistent.
// It must only be used from the event loop.
type Controller struct {
	ctx     context.Context
	kind    Kind
	poster  Poster
	windows WindowFetcher
	now     func() time.Time
	timeout time.Duration

	// nil on the destination-only form
	autocomplete *Autocomplete

	state       State
	destination string
	originLabel string
	originICAO  string
	clock       *clock.Clock
	notice      string
	generation  uint64
}

// NewRunwayForm creates the origin + destination form
func NewRunwayForm(ctx context.Context, poster Poster, lookup Lookup, opts Options) *Controller {
	c := newController(ctx, KindRunway, poster, lookup, opts)
	c.autocomplete = NewAutocomplete(ctx, poster, lookup, opts)
	return c
}

// NewRunwayConfigForm creates the destination-only form
func NewRunwayConfigForm(ctx context.Context, poster Poster, windows WindowFetcher, opts Options) *Controller {
	return newController(ctx, KindRunwayConfig, poster, windows, opts)
}

func newController(ctx context.Context, kind Kind, poster Poster, windows WindowFetcher, opts Options) *Controller {
	opts = opts.withDefaults()
	return &Controller{
		ctx:         ctx,
		kind:        kind,
		poster:      poster,
		windows:     windows,
		now:         opts.Now,
		timeout:     opts.Timeout,
		state:       StateClosed,
		destination: DestinationPlaceholder,
	}
}

// Kind returns the form kind
func (c *Controller) Kind() Kind { return c.kind }

// State returns the lifecycle state
func (c *Controller) State() State { return c.state }

// Open blanks every field and discards in-flight fetches, whatever was entered before
func (c *Controller) Open() {
	c.state = StateOpening
	c.generation++

	c.destination = DestinationPlaceholder
	c.originLabel = ""
	c.originICAO = ""
	c.clock = nil
	c.notice = ""
	if c.autocomplete != nil {
		c.autocomplete.Reset()
	}

	c.state = StateReady
	slog.Debug("Form opened", "form", c.kind)
}

// Close marks the form closed; field values are kept until the next Open
func (c *Controller) Close() {
	c.state = StateClosed
}

// SelectDestination records the destination and fetches its validity window.
// Choosing the placeholder clears the destination and the clock without a fetch.
func (c *Controller) SelectDestination(icao string) error {
	if c.state != StateReady {
		return ErrFormClosed
	}

	if strings.TrimSpace(icao) == "" {
		c.generation++
		c.destination = DestinationPlaceholder
		c.clock = nil
		c.notice = ""
		return nil
	}

	// A rejected code leaves the current destination and its pending fetch untouched
	icao = strings.ToUpper(strings.TrimSpace(icao))
	if !models.IsValidICAO(icao) {
		return fmt.Errorf("invalid ICAO code %q", icao)
	}

	c.generation++
	c.destination = icao

	gen := c.generation
	go func() {
		ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
		defer cancel()

		window, err := c.windows.LastTAFEndTime(ctx, icao)
		if !c.poster.Post(func() { c.applyWindow(gen, icao, window, err) }) {
			slog.Debug("Dropping forecast window, event loop stopped", "icao", icao)
		}
	}()

	return nil
}

func (c *Controller) applyWindow(gen uint64, icao string, window *models.ForecastValidityWindow, err error) {
	if gen != c.generation {
		slog.Debug("Discarding stale forecast window", "form", c.kind, "icao", icao)
		return
	}

	if err != nil {
		slog.Warn("Forecast window lookup failed", "form", c.kind, "icao", icao, "error", err)
		c.notice = fmt.Sprintf("Could not load the forecast window for %s", icao)
		return
	}

	c.clock = clock.New(window.EndTimestamp, c.now())
	c.notice = ""
	slog.Debug("Forecast window loaded",
		"form", c.kind,
		"icao", icao,
		"end", window.EndTimestamp,
		"max_position", c.clock.MaxPosition())
}

// MoveSlider sets the slider position and returns the clamped position applied.
// Without a forecast window the slider stays at 0.
func (c *Controller) MoveSlider(position int) (int, error) {
	if c.state != StateReady {
		return 0, ErrFormClosed
	}
	if c.clock == nil {
		return 0, nil
	}
	return c.clock.SetPosition(position), nil
}

// SelectOrigin takes a suggestion label and derives the origin ICAO from its first 4 characters
func (c *Controller) SelectOrigin(label string) error {
	if c.autocomplete == nil {
		return ErrNoOriginField
	}
	if c.state != StateReady {
		return ErrFormClosed
	}
	c.originLabel = label
	c.originICAO = models.ICAOFromTitle(label)
	return nil
}

// SearchOrigin forwards the origin search input to the autocomplete adapter
func (c *Controller) SearchOrigin(text string) error {
	if c.autocomplete == nil {
		return ErrNoOriginField
	}
	if c.state != StateReady {
		return ErrFormClosed
	}
	c.autocomplete.Input(text)
	return nil
}

// Snapshot is the submittable state of a form
type Snapshot struct {
	Form            Kind     `json:"form"`
	State           State    `json:"state"`
	OriginLabel     string   `json:"origin_label,omitempty"`
	OriginICAO      string   `json:"origin_icao,omitempty"`
	DestinationICAO string   `json:"destination_icao"`
	Timestamp       *int64   `json:"timestamp"`
	Position        int      `json:"position"`
	MaxPosition     int      `json:"max_position"`
	Label           string   `json:"label"`
	Notice          string   `json:"notice,omitempty"`
	Suggestions     []string `json:"suggestions,omitempty"`
}

// Snapshot returns a copy of the form fields
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Form:            c.kind,
		State:           c.state,
		OriginLabel:     c.originLabel,
		OriginICAO:      c.originICAO,
		DestinationICAO: c.destination,
		Notice:          c.notice,
	}

	if c.clock != nil {
		ts := c.clock.Timestamp()
		s.Timestamp = &ts
		s.Position = c.clock.Position()
		s.MaxPosition = c.clock.MaxPosition()
		s.Label = c.clock.Label()
	}

	if c.autocomplete != nil {
		s.Suggestions = c.autocomplete.Suggestions()
		if s.Notice == "" {
			s.Notice = c.autocomplete.Notice()
		}
	}

	return s
}
