package view

import (
	"runway_view/internal/models"
)

const (
	GeometryColor      = "#f05a23"
	GeometryWeight     = 12
	MinGeometryOpacity = 0.2

	RowHighlighted = "#e7f1ff"
	RowNormal      = "#ffffff"

	IconSize        = 40
	TransformOrigin = "center"
	PopupEvent      = "mouseover"
)

// MapView is the base map state mirrored by the browser
type MapView struct {
	Center      models.LatLng `json:"center"`
	Zoom        int           `json:"zoom"`
	TileURL     string        `json:"tile_url"`
	Attribution string        `json:"attribution"`
}

// Style is the stroke style of a geometry layer
type Style struct {
	Color   string  `json:"color"`
	Weight  int     `json:"weight"`
	Opacity float64 `json:"opacity"`
}

// Layer is anything that can be attached to a scene
type Layer interface {
	layer()
}

// GeometryLayer draws the runway lines of one configuration
type GeometryLayer struct {
	Index int               `json:"index"`
	Lines [][]models.LatLng `json:"lines"`
	Style Style             `json:"style"`
}

func (*GeometryLayer) layer() {}

// Icon is the rotatable image of a runway marker
type Icon struct {
	ClassName       string  `json:"class_name"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Rotation        float64 `json:"rotation"`
	TransformOrigin string  `json:"transform_origin,omitempty"`
	Rotated         bool    `json:"rotated"`
}

// Marker sits on the threshold of one runway
type Marker struct {
	Index      int           `json:"index"`
	Runway     string        `json:"runway"`
	Position   models.LatLng `json:"position"`
	Popup      string        `json:"popup"`
	PopupEvent string        `json:"popup_event"`
	Icon       *Icon         `json:"icon"`
}

func (*Marker) layer() {}

// Row is one line of the configuration table
type Row struct {
	Index       int      `json:"index"`
	Runways     []string `json:"runways"`
	Probability float64  `json:"probability"`
	Background  string   `json:"background"`
}

// Surface attaches and detaches layers
type Surface interface {
	Attach(l Layer)
	Detach(l Layer)
}

// Scene is the map of one view session
type Scene struct {
	view     MapView
	attached map[Layer]struct{}
	zoomEnd  []func()
}

// NewScene creates a map with no layers attached
func NewScene(view MapView) *Scene {
	return &Scene{
		view:     view,
		attached: make(map[Layer]struct{}),
	}
}

// View returns the base map state
func (s *Scene) View() MapView { return s.view }

// Attach adds l to the map; attaching twice is a no-op
func (s *Scene) Attach(l Layer) {
	s.attached[l] = struct{}{}
}

// Detach removes l from the map; detaching a missing layer is a no-op
func (s *Scene) Detach(l Layer) {
	delete(s.attached, l)
}

// Attached reports whether l is on the map
func (s *Scene) Attached(l Layer) bool {
	_, ok := s.attached[l]
	return ok
}

// OnZoomEnd registers fn to run after every zoom
func (s *Scene) OnZoomEnd(fn func()) {
	s.zoomEnd = append(s.zoomEnd, fn)
}

// ZoomTo sets the zoom level and fires the zoom-end handlers
func (s *Scene) ZoomTo(level int) {
	s.view.Zoom = level
	for _, fn := range s.zoomEnd {
		fn()
	}
}
