package forms

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"runway_view/internal/models"
)

// AirportSearcher looks up airport suggestions by prefix
type AirportSearcher interface {
	SearchAirports(ctx context.Context, prefix string) ([]models.AirportSuggestion, error)
}

// Autocomplete keeps the origin-airport suggestion list in sync with the search input.
// It must only be used from the event loop.
type Autocomplete struct {
	ctx      context.Context
	poster   Poster
	searcher AirportSearcher
	timeout  time.Duration
	minChars int

	suggestions []string
	notice      string
	generation  uint64
}

// NewAutocomplete creates an autocomplete adapter; completions are posted back through poster
func NewAutocomplete(ctx context.Context, poster Poster, searcher AirportSearcher, opts Options) *Autocomplete {
	opts = opts.withDefaults()
	return &Autocomplete{
		ctx:      ctx,
		poster:   poster,
		searcher: searcher,
		timeout:  opts.Timeout,
		minChars: opts.MinChars,
	}
}

// Input handles a change of the search text. The list is cleared at once and
// refilled when the lookup for the latest input completes.
func (a *Autocomplete) Input(text string) {
	a.generation++
	a.suggestions = nil
	a.notice = ""

	if utf8.RuneCountInString(text) < a.minChars {
		return
	}

	gen := a.generation
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.timeout)
		defer cancel()

		results, err := a.searcher.SearchAirports(ctx, text)
		if !a.poster.Post(func() { a.apply(gen, text, results, err) }) {
			slog.Debug("Dropping airport suggestions, event loop stopped", "input", text)
		}
	}()
}

func (a *Autocomplete) apply(gen uint64, text string, results []models.AirportSuggestion, err error) {
	if gen != a.generation {
		slog.Debug("Discarding stale airport suggestions", "input", text)
		return
	}

	if err != nil {
		slog.Warn("Airport lookup failed", "input", text, "error", err)
		a.notice = "Airport suggestions are unavailable right now"
		return
	}

	suggestions := make([]string, 0, len(results))
	for _, r := range results {
		suggestions = append(suggestions, r.Title)
	}
	a.suggestions = suggestions
}

// Reset clears the list and discards in-flight lookups
func (a *Autocomplete) Reset() {
	a.generation++
	a.suggestions = nil
	a.notice = ""
}

// Suggestions returns the current option labels; each label is also the option value
func (a *Autocomplete) Suggestions() []string {
	out := make([]string, len(a.suggestions))
	copy(out, a.suggestions)
	return out
}

// Notice returns the last lookup failure message, if any
func (a *Autocomplete) Notice() string {
	return a.notice
}
