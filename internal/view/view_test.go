package view

import (
	"testing"

	"runway_view/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() MapOptions {
	return MapOptions{Zoom: 12, TileURL: "https://tiles.example/{z}/{x}/{y}.png", Attribution: "tiles"}
}

// configPayload has three configurations at Schiphol
func configPayload() *models.PredictionPayload {
	return &models.PredictionPayload{
		AirportCoordinates: models.LonLat{4.76, 52.31},
		Configurations: []models.PredictedConfiguration{
			{
				Probability: 0.6,
				Runways:     []models.Runway{{Name: "18R", TrueBearing: 183}, {Name: "24", TrueBearing: 241}},
				Lines: [][]models.LonLat{
					{{4.71, 52.36}, {4.71, 52.33}},
					{{4.80, 52.30}, {4.77, 52.29}},
				},
			},
			{
				Probability: 0.3,
				Runways:     []models.Runway{{Name: "06", TrueBearing: 58}},
				Lines:       [][]models.LonLat{{{4.74, 52.28}, {4.77, 52.30}}},
			},
			{
				Probability: 0.1,
				Runways:     []models.Runway{{Name: "36L", TrueBearing: 3}},
				Lines:       [][]models.LonLat{{{4.78, 52.33}, {4.78, 52.36}}},
			},
		},
	}
}

func visibleIndices(v *View) []int {
	var out []int
	for i, visual := range v.visuals {
		if v.scene.Attached(visual.Geometry) && visual.Row.Background == RowHighlighted {
			out = append(out, i)
		}
	}
	return out
}

func TestRenderRunwayConfig_InitialState(t *testing.T) {
	v, err := RenderRunwayConfig(configPayload(), testOptions())
	require.NoError(t, err)

	s := v.Snapshot()
	assert.Equal(t, KindRunwayConfig, s.Kind)
	assert.Equal(t, models.LatLng{52.31, 4.76}, s.Map.Center)
	assert.Equal(t, 12, s.Map.Zoom)
	require.NotNil(t, s.Active)
	assert.Equal(t, 0, *s.Active)

	require.Len(t, s.Layers, 1)
	assert.Equal(t, 0, s.Layers[0].Index)
	assert.Equal(t, Style{Color: "#f05a23", Weight: 12, Opacity: 0.6}, s.Layers[0].Style)
	assert.Equal(t, models.LatLng{52.36, 4.71}, s.Layers[0].Lines[0][0])

	require.Len(t, s.Markers, 2)
	m := s.Markers[0]
	assert.Equal(t, "18R", m.Runway)
	assert.Equal(t, models.LatLng{52.36, 4.71}, m.Position)
	assert.Equal(t, "Runway: <strong>18R</strong> | Probability: <strong>60%</strong>", m.Popup)
	assert.Equal(t, "mouseover", m.PopupEvent)
	assert.Equal(t, "marker-icon-0-18R", m.Icon.ClassName)
	assert.Equal(t, 40, m.Icon.Width)
	assert.Equal(t, 40, m.Icon.Height)
	assert.Equal(t, 183.0, m.Icon.Rotation)
	assert.Equal(t, "center", m.Icon.TransformOrigin)

	require.Len(t, s.Rows, 3)
	assert.Equal(t, RowHighlighted, s.Rows[0].Background)
	assert.Equal(t, RowNormal, s.Rows[1].Background)
	assert.Equal(t, RowNormal, s.Rows[2].Background)
	assert.Equal(t, []string{"18R", "24"}, s.Rows[0].Runways)
}

func TestSelection_SelectTwoThenZero(t *testing.T) {
	v, err := RenderRunwayConfig(configPayload(), testOptions())
	require.NoError(t, err)

	require.NoError(t, v.Select(2))
	require.NoError(t, v.Select(0))

	two := v.visuals[2]
	assert.False(t, v.scene.Attached(two.Geometry))
	for _, m := range two.Markers {
		assert.False(t, v.scene.Attached(m))
	}
	assert.Equal(t, RowNormal, two.Row.Background)

	zero := v.visuals[0]
	assert.True(t, v.scene.Attached(zero.Geometry))
	for _, m := range zero.Markers {
		assert.True(t, v.scene.Attached(m))
	}
	assert.Equal(t, RowHighlighted, zero.Row.Background)
	assert.True(t, zero.Active)
}

func TestSelection_ExactlyOneVisible(t *testing.T) {
	sequences := [][]int{
		{1},
		{2, 2},
		{0, 1, 2, 1},
		{2, 0, 0, 1, 2},
	}

	for _, seq := range sequences {
		v, err := RenderRunwayConfig(configPayload(), testOptions())
		require.NoError(t, err)

		for _, i := range seq {
			require.NoError(t, v.Select(i))
			assert.Equal(t, []int{i}, visibleIndices(v))

			active := 0
			for _, visual := range v.visuals {
				if visual.Active {
					active++
				}
			}
			assert.Equal(t, 1, active)
		}
	}
}

func TestSelection_RefreshIdempotent(t *testing.T) {
	v, err := RenderRunwayConfig(configPayload(), testOptions())
	require.NoError(t, err)
	require.NoError(t, v.Select(1))

	before := v.Snapshot()
	v.Selection().Refresh()
	v.Selection().Refresh()
	assert.Equal(t, before, v.Snapshot())
}

func TestSelection_OutOfRange(t *testing.T) {
	v, err := RenderRunwayConfig(configPayload(), testOptions())
	require.NoError(t, err)
	require.NoError(t, v.Select(1))

	for _, i := range []int{-1, 3, 42} {
		err := v.Select(i)
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	}
	assert.Equal(t, 1, v.Selection().Active())
	assert.Equal(t, []int{1}, visibleIndices(v))

	assert.ErrorIs(t, v.Selection().Show(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, v.Selection().Hide(-2), ErrIndexOutOfRange)
}

func TestSelection_MismatchedCollections(t *testing.T) {
	_, err := NewSelection(NewScene(MapView{}), NewOrienter(), configPayload().Configurations, nil)
	assert.Error(t, err)
}

func TestRenderRunwayConfig_Empty(t *testing.T) {
	v, err := RenderRunwayConfig(&models.PredictionPayload{AirportCoordinates: models.LonLat{1, 2}}, testOptions())
	require.NoError(t, err)

	s := v.Snapshot()
	assert.Nil(t, s.Active)
	assert.Empty(t, s.Layers)
	assert.ErrorIs(t, v.Select(0), ErrIndexOutOfRange)
}

func TestZoomEnd_ReassertsSelection(t *testing.T) {
	v, err := RenderRunwayConfig(configPayload(), testOptions())
	require.NoError(t, err)
	require.NoError(t, v.Select(1))

	// Simulate a zoom transition that dropped the marker layers
	for _, m := range v.visuals[1].Markers {
		v.scene.Detach(m)
	}

	v.ZoomEnd(14)

	s := v.Snapshot()
	assert.Equal(t, 14, s.Map.Zoom)
	require.Len(t, s.Markers, 1)
	assert.Equal(t, "06", s.Markers[0].Runway)
	assert.Equal(t, 58.0, s.Markers[0].Icon.Rotation)
}

func TestOrienter_OrientIsIdempotent(t *testing.T) {
	o := NewOrienter()
	icon := newIcon("marker-icon-0-18R")
	require.NoError(t, o.Register(IconKey{Index: 0, Runway: "18R"}, icon))

	runways := []models.Runway{{Name: "18R", TrueBearing: 183}}
	o.Orient(0, runways)
	o.Orient(0, runways)

	assert.Equal(t, 183.0, icon.Rotation)
	assert.True(t, icon.Rotated)
	assert.Equal(t, "center", icon.TransformOrigin)

	// A rotated icon keeps its bearing
	o.Orient(0, []models.Runway{{Name: "18R", TrueBearing: 90}})
	assert.Equal(t, 183.0, icon.Rotation)
}

func TestOrienter_MissingIconSkipped(t *testing.T) {
	o := NewOrienter()
	icon := newIcon("marker-icon-1-06")
	require.NoError(t, o.Register(IconKey{Index: 1, Runway: "06"}, icon))

	assert.NotPanics(t, func() {
		o.Orient(1, []models.Runway{{Name: "24", TrueBearing: 241}, {Name: "06", TrueBearing: 58}})
		o.OrientAll([]models.Runway{{Name: "09", TrueBearing: 90}})
	})
	assert.Equal(t, 58.0, icon.Rotation)
}

func TestOrienter_OrientAllUnconditional(t *testing.T) {
	o := NewOrienter()
	icon := newIcon("marker-icon-18R")
	require.NoError(t, o.Register(IconKey{Index: NoIndex, Runway: "18R"}, icon))

	o.OrientAll([]models.Runway{{Name: "18R", TrueBearing: 183}})
	o.OrientAll([]models.Runway{{Name: "18R", TrueBearing: 184}})
	assert.Equal(t, 184.0, icon.Rotation)
}

func TestRenderRunway_AllVisible(t *testing.T) {
	payload := &models.PredictionPayload{
		AirportCoordinates: models.LonLat{-3.56, 40.47},
		Configurations: []models.PredictedConfiguration{
			{Probability: 0.05, Runways: []models.Runway{{Name: "32L", TrueBearing: 323}}, Lines: [][]models.LonLat{{{-3.55, 40.46}, {-3.57, 40.49}}}},
			{Probability: 0.95, Runways: []models.Runway{{Name: "18R", TrueBearing: 181}}, Lines: [][]models.LonLat{{{-3.56, 40.51}, {-3.56, 40.48}}}},
		},
	}

	v, err := RenderRunway(payload, testOptions())
	require.NoError(t, err)

	s := v.Snapshot()
	assert.Equal(t, KindRunway, s.Kind)
	assert.Nil(t, s.Active)
	require.Len(t, s.Layers, 2)
	assert.Equal(t, 0.2, s.Layers[0].Style.Opacity)
	assert.Equal(t, 0.95, s.Layers[1].Style.Opacity)

	require.Len(t, s.Markers, 2)
	assert.Equal(t, "marker-icon-32L", s.Markers[0].Icon.ClassName)
	assert.Equal(t, 323.0, s.Markers[0].Icon.Rotation)
	assert.Equal(t, "Runway: <strong>32L</strong> | Probability: <strong>5%</strong>", s.Markers[0].Popup)

	assert.ErrorIs(t, v.Select(0), ErrNotSelectable)

	v.ZoomEnd(10)
	after := v.Snapshot()
	assert.Equal(t, 323.0, after.Markers[0].Icon.Rotation)
	assert.Len(t, after.Layers, 2)
}

func TestGeometryStyleAndPopup(t *testing.T) {
	tests := []struct {
		p       float64
		opacity float64
		percent string
	}{
		{p: 0.016, opacity: 0.2, percent: "2%"},
		{p: 0.2, opacity: 0.2, percent: "20%"},
		{p: 0.555, opacity: 0.555, percent: "56%"},
		{p: 1, opacity: 1, percent: "100%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.opacity, GeometryStyle(tt.p).Opacity)
		assert.Contains(t, PopupContent("09", tt.p), "<strong>"+tt.percent+"</strong>")
	}
}

func TestOrienter_RejectsDuplicateKey(t *testing.T) {
	o := NewOrienter()
	first := newIcon("marker-icon-0-18R")
	require.NoError(t, o.Register(IconKey{Index: 0, Runway: "18R"}, first))

	assert.ErrorIs(t, o.Register(IconKey{Index: 0, Runway: "18R"}, newIcon("marker-icon-0-18R")), ErrDuplicateIcon)
	assert.NoError(t, o.Register(IconKey{Index: 1, Runway: "18R"}, newIcon("marker-icon-1-18R")))

	o.Orient(0, []models.Runway{{Name: "18R", TrueBearing: 183}})
	assert.Equal(t, 183.0, first.Rotation)
}

func TestRender_DuplicateRunwayNames(t *testing.T) {
	line := [][]models.LonLat{{{4.71, 52.36}, {4.71, 52.33}}}
	twoLines := [][]models.LonLat{line[0], {{4.80, 52.30}, {4.77, 52.29}}}

	// A configuration payload sent to the single-runway page repeats 18R across features
	shared := &models.PredictionPayload{
		AirportCoordinates: models.LonLat{4.76, 52.31},
		Configurations: []models.PredictedConfiguration{
			{Probability: 0.6, Runways: []models.Runway{{Name: "18R", TrueBearing: 183}}, Lines: line},
			{Probability: 0.4, Runways: []models.Runway{{Name: "18R", TrueBearing: 183}}, Lines: line},
		},
	}
	_, err := RenderRunway(shared, testOptions())
	assert.ErrorIs(t, err, ErrDuplicateIcon)

	// Across configurations the index keeps the keys apart
	v, err := RenderRunwayConfig(shared, testOptions())
	require.NoError(t, err)
	assert.Len(t, v.Snapshot().Markers, 1)

	repeated := &models.PredictionPayload{
		AirportCoordinates: models.LonLat{4.76, 52.31},
		Configurations: []models.PredictedConfiguration{
			{Probability: 0.6, Runways: []models.Runway{{Name: "18R", TrueBearing: 183}, {Name: "18R", TrueBearing: 183}}, Lines: twoLines},
		},
	}
	_, err = RenderRunwayConfig(repeated, testOptions())
	assert.ErrorIs(t, err, ErrDuplicateIcon)
}
