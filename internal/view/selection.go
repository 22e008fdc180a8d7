package view

import (
	"errors"
	"fmt"

	"runway_view/internal/models"
)

// ErrIndexOutOfRange is returned for a configuration index outside the collection
var ErrIndexOutOfRange = errors.New("configuration index out of range")

// ConfigurationVisual groups everything drawn for one configuration
type ConfigurationVisual struct {
	Geometry *GeometryLayer
	Markers  []*Marker
	Row      *Row
	Active   bool
}

// Selection keeps exactly one configuration visible and highlighted
type Selection struct {
	surface  Surface
	orienter *Orienter
	configs  []models.PredictedConfiguration
	visuals  []*ConfigurationVisual
	active   int
}

// NewSelection builds a selection over parallel configs and visuals and shows index 0
func NewSelection(surface Surface, orienter *Orienter, configs []models.PredictedConfiguration, visuals []*ConfigurationVisual) (*Selection, error) {
	if len(configs) != len(visuals) {
		return nil, fmt.Errorf("%d configurations for %d visuals", len(configs), len(visuals))
	}

	s := &Selection{
		surface:  surface,
		orienter: orienter,
		configs:  configs,
		visuals:  visuals,
	}
	s.Refresh()
	return s, nil
}

// Len returns the number of configurations
func (s *Selection) Len() int { return len(s.visuals) }

// Active returns the selected index
func (s *Selection) Active() int { return s.active }

func (s *Selection) checkIndex(i int) error {
	if i < 0 || i >= len(s.visuals) {
		return fmt.Errorf("index %d of %d: %w", i, len(s.visuals), ErrIndexOutOfRange)
	}
	return nil
}

// Show attaches configuration i and highlights its row
func (s *Selection) Show(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	v := s.visuals[i]
	s.surface.Attach(v.Geometry)
	for _, m := range v.Markers {
		s.surface.Attach(m)
	}
	v.Row.Background = RowHighlighted
	v.Active = true

	s.orienter.Orient(i, s.configs[i].Runways)
	return nil
}

// Hide detaches configuration i and resets its row
func (s *Selection) Hide(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}

	v := s.visuals[i]
	s.surface.Detach(v.Geometry)
	for _, m := range v.Markers {
		s.surface.Detach(m)
	}
	v.Row.Background = RowNormal
	v.Active = false
	return nil
}

// Select makes i the active configuration
func (s *Selection) Select(i int) error {
	if err := s.checkIndex(i); err != nil {
		return err
	}
	s.active = i
	s.Refresh()
	return nil
}

// Refresh shows the active configuration and hides all others
func (s *Selection) Refresh() {
	for i := range s.visuals {
		if i == s.active {
			_ = s.Show(i)
		} else {
			_ = s.Hide(i)
		}
	}
}
