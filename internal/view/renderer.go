package view

import (
	"errors"
	"fmt"
	"math"

	"runway_view/internal/models"
)

// ErrNotSelectable is returned when selecting in a view without a selection model
var ErrNotSelectable = errors.New("view has no selectable configurations")

// Kind identifies a prediction page
type Kind string

const (
	KindRunwayConfig Kind = "runway-config"
	KindRunway       Kind = "runway"
)

// MapOptions configures the base map of every view
type MapOptions struct {
	Zoom        int
	TileURL     string
	Attribution string
}

// View is one rendered prediction page: its map, its visuals and, for
// configuration predictions, the selection over them.
type View struct {
	kind      Kind
	scene     *Scene
	orienter  *Orienter
	configs   []models.PredictedConfiguration
	visuals   []*ConfigurationVisual
	selection *Selection
}

// RenderRunwayConfig renders a configuration prediction with index 0 selected.
// Zooming re-asserts the selection.
func RenderRunwayConfig(payload *models.PredictionPayload, opts MapOptions) (*View, error) {
	v := newView(KindRunwayConfig, payload, opts)

	for i, cfg := range payload.Configurations {
		visual := &ConfigurationVisual{
			Geometry: newGeometryLayer(i, cfg),
			Row:      newRow(i, cfg),
		}
		for j, r := range cfg.Runways {
			icon := newIcon(fmt.Sprintf("marker-icon-%d-%s", i, r.Name))
			if err := v.orienter.Register(IconKey{Index: i, Runway: r.Name}, icon); err != nil {
				return nil, err
			}
			visual.Markers = append(visual.Markers, newMarker(i, r, cfg.Lines[j], cfg.Probability, icon))
		}
		v.visuals = append(v.visuals, visual)
	}

	selection, err := NewSelection(v.scene, v.orienter, v.configs, v.visuals)
	if err != nil {
		return nil, fmt.Errorf("failed to build selection: %w", err)
	}
	v.selection = selection
	v.scene.OnZoomEnd(v.selection.Refresh)

	return v, nil
}

// RenderRunway renders a single-runway prediction with every runway visible.
// Runway names must be unique across the payload.
func RenderRunway(payload *models.PredictionPayload, opts MapOptions) (*View, error) {
	v := newView(KindRunway, payload, opts)

	var runways []models.Runway
	for i, cfg := range payload.Configurations {
		visual := &ConfigurationVisual{
			Geometry: newGeometryLayer(i, cfg),
			Row:      newRow(i, cfg),
			Active:   true,
		}
		v.scene.Attach(visual.Geometry)

		for j, r := range cfg.Runways {
			icon := newIcon(fmt.Sprintf("marker-icon-%s", r.Name))
			if err := v.orienter.Register(IconKey{Index: NoIndex, Runway: r.Name}, icon); err != nil {
				return nil, err
			}
			m := newMarker(i, r, cfg.Lines[j], cfg.Probability, icon)
			visual.Markers = append(visual.Markers, m)
			v.scene.Attach(m)
			runways = append(runways, r)
		}
		v.visuals = append(v.visuals, visual)
	}

	v.orienter.OrientAll(runways)
	v.scene.OnZoomEnd(func() { v.orienter.OrientAll(runways) })

	return v, nil
}

func newView(kind Kind, payload *models.PredictionPayload, opts MapOptions) *View {
	return &View{
		kind: kind,
		scene: NewScene(MapView{
			Center:      payload.AirportCoordinates.ToLatLng(),
			Zoom:        opts.Zoom,
			TileURL:     opts.TileURL,
			Attribution: opts.Attribution,
		}),
		orienter: NewOrienter(),
		configs:  payload.Configurations,
	}
}

// GeometryStyle is the stroke style for a configuration of probability p
func GeometryStyle(p float64) Style {
	return Style{
		Color:   GeometryColor,
		Weight:  GeometryWeight,
		Opacity: math.Max(p, MinGeometryOpacity),
	}
}

// PopupContent is the marker popup for a runway
func PopupContent(runway string, p float64) string {
	return fmt.Sprintf("Runway: <strong>%s</strong> | Probability: <strong>%d%%</strong>", runway, int(math.Round(p*100)))
}

func newGeometryLayer(index int, cfg models.PredictedConfiguration) *GeometryLayer {
	lines := make([][]models.LatLng, len(cfg.Lines))
	for i, line := range cfg.Lines {
		lines[i] = models.ToLatLngs(line)
	}
	return &GeometryLayer{
		Index: index,
		Lines: lines,
		Style: GeometryStyle(cfg.Probability),
	}
}

func newIcon(className string) *Icon {
	return &Icon{
		ClassName: className,
		Width:     IconSize,
		Height:    IconSize,
	}
}

func newMarker(index int, r models.Runway, line []models.LonLat, p float64, icon *Icon) *Marker {
	return &Marker{
		Index:      index,
		Runway:     r.Name,
		Position:   line[0].ToLatLng(),
		Popup:      PopupContent(r.Name, p),
		PopupEvent: PopupEvent,
		Icon:       icon,
	}
}

func newRow(index int, cfg models.PredictedConfiguration) *Row {
	names := make([]string, len(cfg.Runways))
	for i, r := range cfg.Runways {
		names[i] = r.Name
	}
	return &Row{
		Index:       index,
		Runways:     names,
		Probability: cfg.Probability,
		Background:  RowNormal,
	}
}

// Kind returns the page the view renders
func (v *View) Kind() Kind { return v.kind }

// Scene returns the map of the view
func (v *View) Scene() *Scene { return v.scene }

// Selection returns the selection model, nil for the single-runway view
func (v *View) Selection() *Selection { return v.selection }

// Select handles a click on table row i
func (v *View) Select(i int) error {
	if v.selection == nil {
		return ErrNotSelectable
	}
	return v.selection.Select(i)
}

// ZoomEnd handles the end of a zoom to level
func (v *View) ZoomEnd(level int) {
	v.scene.ZoomTo(level)
}

// Snapshot is the visible state of a view, in collection order
type Snapshot struct {
	Kind    Kind            `json:"kind"`
	Map     MapView         `json:"map"`
	Active  *int            `json:"active,omitempty"`
	Layers  []GeometryLayer `json:"layers"`
	Markers []Marker        `json:"markers"`
	Rows    []Row           `json:"rows"`
}

// Snapshot copies the attached layers and every row
func (v *View) Snapshot() Snapshot {
	s := Snapshot{
		Kind:    v.kind,
		Map:     v.scene.View(),
		Layers:  []GeometryLayer{},
		Markers: []Marker{},
		Rows:    make([]Row, 0, len(v.visuals)),
	}

	if v.selection != nil && v.selection.Len() > 0 {
		active := v.selection.Active()
		s.Active = &active
	}

	for _, visual := range v.visuals {
		if v.scene.Attached(visual.Geometry) {
			s.Layers = append(s.Layers, *visual.Geometry)
		}
		for _, m := range visual.Markers {
			if v.scene.Attached(m) {
				mc := *m
				icon := *m.Icon
				mc.Icon = &icon
				s.Markers = append(s.Markers, mc)
			}
		}
		s.Rows = append(s.Rows, *visual.Row)
	}

	return s
}
