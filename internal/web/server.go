package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"runway_view/internal/api"
	"runway_view/internal/forms"
	"runway_view/internal/loop"
	"runway_view/internal/models"
	"runway_view/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxEventBody   = 64 << 10
	maxPayloadBody = 16 << 20
)

// Server exposes forms and view sessions to the browser.
// Every state access goes through the event loop.
type Server struct {
	loop    *loop.Loop
	forms   map[forms.Kind]*forms.Controller
	views   map[uuid.UUID]*session
	mapOpts view.MapOptions
	now     func() time.Time
}

type session struct {
	view     *view.View
	lastSeen time.Time
}

// NewServer creates a UI server over the given forms
func NewServer(l *loop.Loop, mapOpts view.MapOptions, controllers ...*forms.Controller) *Server {
	s := &Server{
		loop:    l,
		forms:   make(map[forms.Kind]*forms.Controller, len(controllers)),
		views:   make(map[uuid.UUID]*session),
		mapOpts: mapOpts,
		now:     time.Now,
	}
	for _, c := range controllers {
		s.forms[c.Kind()] = c
	}
	return s
}

// Routes registers the UI endpoints on r
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)

	r.Route("/forms/{form}", func(r chi.Router) {
		r.Get("/", s.GetForm)
		r.Post("/open", s.OpenForm)
		r.Post("/close", s.CloseForm)
		r.Post("/destination", s.SelectDestination)
		r.Post("/slider", s.MoveSlider)
		r.Post("/origin", s.SelectOrigin)
		r.Post("/origin-search", s.SearchOrigin)
	})

	r.Route("/views", func(r chi.Router) {
		r.Post("/runway-config", s.CreateView(view.KindRunwayConfig))
		r.Post("/runway", s.CreateView(view.KindRunway))
		r.Get("/{id}", s.GetView)
		r.Delete("/{id}", s.DeleteView)
		r.Post("/{id}/select/{index}", s.SelectConfiguration)
		r.Post("/{id}/zoom/{level}", s.ZoomEnd)
	})
}

// Health reports that the event loop is responsive
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.loop.Do(r.Context(), func() {}); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "Event loop unavailable")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// run executes fn on the loop; false means a response was already written.
// The wait ignores client cancellation so an event that reaches the loop is
// always answered with its outcome; only a stopped loop yields 503.
func (s *Server) run(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Do(context.WithoutCancel(r.Context()), fn); err != nil {
		slog.Warn("Event not processed", "path", r.URL.Path, "error", err)
		api.WriteError(w, http.StatusServiceUnavailable, "Event loop unavailable")
		return false
	}
	return true
}

func (s *Server) form(w http.ResponseWriter, r *http.Request) (*forms.Controller, bool) {
	kind, err := forms.ParseKind(chi.URLParam(r, "form"))
	if err == nil {
		if c, ok := s.forms[kind]; ok {
			return c, true
		}
	}
	api.WriteError(w, http.StatusNotFound, fmt.Sprintf("Unknown form %q", chi.URLParam(r, "form")))
	return nil, false
}

func decodeEvent(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody)).Decode(dst); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

func formStatus(err error) int {
	switch {
	case errors.Is(err, forms.ErrFormClosed):
		return http.StatusConflict
	case errors.Is(err, forms.ErrNoOriginField):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// formEvent applies fn to the form and responds with its snapshot
func (s *Server) formEvent(w http.ResponseWriter, r *http.Request, fn func(c *forms.Controller) error) {
	c, ok := s.form(w, r)
	if !ok {
		return
	}

	var snapshot forms.Snapshot
	var err error
	if !s.run(w, r, func() {
		if err = fn(c); err == nil {
			snapshot = c.Snapshot()
		}
	}) {
		return
	}

	if err != nil {
		api.WriteError(w, formStatus(err), err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, snapshot)
}

// GetForm returns the form fields
func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	s.formEvent(w, r, func(*forms.Controller) error { return nil })
}

// OpenForm resets the form for a new entry
func (s *Server) OpenForm(w http.ResponseWriter, r *http.Request) {
	s.formEvent(w, r, func(c *forms.Controller) error {
		c.Open()
		return nil
	})
}

// CloseForm closes the form
func (s *Server) CloseForm(w http.ResponseWriter, r *http.Request) {
	s.formEvent(w, r, func(c *forms.Controller) error {
		c.Close()
		return nil
	})
}

// SelectDestination handles a destination airport selection
func (s *Server) SelectDestination(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ICAO string `json:"icao"`
	}
	if !decodeEvent(w, r, &req) {
		return
	}
	s.formEvent(w, r, func(c *forms.Controller) error { return c.SelectDestination(req.ICAO) })
}

// MoveSlider handles a slider drag
func (s *Server) MoveSlider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Position int `json:"position"`
	}
	if !decodeEvent(w, r, &req) {
		return
	}
	s.formEvent(w, r, func(c *forms.Controller) error {
		_, err := c.MoveSlider(req.Position)
		return err
	})
}

// SelectOrigin handles a pick from the origin suggestion list
func (s *Server) SelectOrigin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if !decodeEvent(w, r, &req) {
		return
	}
	s.formEvent(w, r, func(c *forms.Controller) error { return c.SelectOrigin(req.Label) })
}

// SearchOrigin handles a change of the origin search text
func (s *Server) SearchOrigin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeEvent(w, r, &req) {
		return
	}
	s.formEvent(w, r, func(c *forms.Controller) error { return c.SearchOrigin(req.Text) })
}

// CreateView renders a prediction payload into a new view session
func (s *Server) CreateView(kind view.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBody))
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "Failed to read payload")
			return
		}

		payload, err := models.ParsePredictionPayload(body)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		var v *view.View
		switch kind {
		case view.KindRunwayConfig:
			v, err = view.RenderRunwayConfig(payload, s.mapOpts)
		default:
			v, err = view.RenderRunway(payload, s.mapOpts)
		}
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		id := uuid.New()
		if !s.run(w, r, func() { s.views[id] = &session{view: v, lastSeen: s.now()} }) {
			return
		}

		slog.Info("View created", "id", id, "kind", kind, "configurations", len(payload.Configurations))
		api.WriteJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
	}
}

// viewEvent applies fn to the view named in the URL and responds with its snapshot
func (s *Server) viewEvent(w http.ResponseWriter, r *http.Request, fn func(v *view.View) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "Unknown view")
		return
	}

	var snapshot view.Snapshot
	found := false
	if !s.run(w, r, func() {
		sess, ok := s.views[id]
		if !ok {
			return
		}
		found = true
		sess.lastSeen = s.now()
		if err = fn(sess.view); err == nil {
			snapshot = sess.view.Snapshot()
		}
	}) {
		return
	}

	switch {
	case !found:
		api.WriteError(w, http.StatusNotFound, "Unknown view")
	case errors.Is(err, view.ErrNotSelectable):
		api.WriteError(w, http.StatusConflict, err.Error())
	case err != nil:
		api.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		api.WriteJSON(w, http.StatusOK, snapshot)
	}
}

// GetView returns the scene of a view session
func (s *Server) GetView(w http.ResponseWriter, r *http.Request) {
	s.viewEvent(w, r, func(*view.View) error { return nil })
}

// DeleteView drops a view session
func (s *Server) DeleteView(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "Unknown view")
		return
	}

	found := false
	if !s.run(w, r, func() {
		_, found = s.views[id]
		delete(s.views, id)
	}) {
		return
	}

	if !found {
		api.WriteError(w, http.StatusNotFound, "Unknown view")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectConfiguration handles a click on a configuration row
func (s *Server) SelectConfiguration(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid configuration index")
		return
	}
	s.viewEvent(w, r, func(v *view.View) error { return v.Select(index) })
}

// ZoomEnd handles the end of a map zoom
func (s *Server) ZoomEnd(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil || level < 0 {
		api.WriteError(w, http.StatusBadRequest, "Invalid zoom level")
		return
	}
	s.viewEvent(w, r, func(v *view.View) error {
		v.ZoomEnd(level)
		return nil
	})
}

// PruneIdleViews drops view sessions not used within idle and returns how many were dropped
func (s *Server) PruneIdleViews(ctx context.Context, idle time.Duration) (int, error) {
	removed := 0
	if err := s.loop.Do(ctx, func() {
		cutoff := s.now().Add(-idle)
		for id, sess := range s.views {
			if sess.lastSeen.Before(cutoff) {
				delete(s.views, id)
				removed++
			}
		}
	}); err != nil {
		// the callback may still run later and must not be observed here
		return 0, err
	}
	return removed, nil
}
