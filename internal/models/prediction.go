package models

import (
	"encoding/json"
	"fmt"
)

// MinDisplayedProbability is the threshold below which a prediction is not shown
const MinDisplayedProbability = 0.01

// Runway is one runway of a predicted configuration
type Runway struct {
	Name        string  `json:"name"`
	TrueBearing float64 `json:"true_bearing"`
}

// PredictedConfiguration is one predicted combination of active runways.
// Its position in PredictionPayload.Configurations is the join key for every
// visual collection built from it.
type PredictedConfiguration struct {
	Lines       [][]LonLat // one line per runway, same order as Runways
	Probability float64
	Runways     []Runway
}

// PredictionPayload is the prediction result embedded in a prediction page
type PredictionPayload struct {
	AirportCoordinates LonLat
	Configurations     []PredictedConfiguration
}

// ForecastValidityWindow bounds the selectable forecast time for a destination
type ForecastValidityWindow struct {
	EndTimestamp int64 `json:"end_timestamp"`
}

type rawPayload struct {
	AirportCoordinates []float64 `json:"airport_coordinates"`
	PredictionOutput   struct {
		Features []rawFeature `json:"features"`
	} `json:"prediction_output"`
}

type rawFeature struct {
	Properties struct {
		Probability float64  `json:"probability"`
		RunwayName  string   `json:"runway_name"`
		TrueBearing float64  `json:"true_bearing"`
		Runways     []Runway `json:"runways"`
	} `json:"properties"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
}

// ParsePredictionPayload decodes a prediction payload.
// Both feature shapes are accepted: single runway (runway_name + true_bearing on a
// LineString) and runway configuration (runways list on a MultiLineString).
// Features at or below MinDisplayedProbability are dropped; order is otherwise kept.
func ParsePredictionPayload(data []byte) (*PredictionPayload, error) {
	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prediction payload: %w", err)
	}

	if len(raw.AirportCoordinates) != 2 {
		return nil, fmt.Errorf("airport_coordinates must hold 2 values, got %d", len(raw.AirportCoordinates))
	}

	payload := &PredictionPayload{
		AirportCoordinates: LonLat{raw.AirportCoordinates[0], raw.AirportCoordinates[1]},
		Configurations:     make([]PredictedConfiguration, 0, len(raw.PredictionOutput.Features)),
	}

	for i, feature := range raw.PredictionOutput.Features {
		cfg, err := feature.toConfiguration()
		if err != nil {
			return nil, fmt.Errorf("invalid feature %d: %w", i, err)
		}
		if cfg.Probability <= MinDisplayedProbability {
			continue
		}
		payload.Configurations = append(payload.Configurations, *cfg)
	}

	return payload, nil
}

func (f *rawFeature) toConfiguration() (*PredictedConfiguration, error) {
	p := f.Properties
	if p.Probability < 0 || p.Probability > 1 {
		return nil, fmt.Errorf("probability %v out of range [0, 1]", p.Probability)
	}

	cfg := &PredictedConfiguration{Probability: p.Probability}

	switch f.Geometry.Type {
	case "LineString":
		var line []LonLat
		if err := json.Unmarshal(f.Geometry.Coordinates, &line); err != nil {
			return nil, fmt.Errorf("failed to parse LineString coordinates: %w", err)
		}
		cfg.Lines = [][]LonLat{line}
	case "MultiLineString":
		if err := json.Unmarshal(f.Geometry.Coordinates, &cfg.Lines); err != nil {
			return nil, fmt.Errorf("failed to parse MultiLineString coordinates: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type: %q", f.Geometry.Type)
	}

	if len(p.Runways) > 0 {
		cfg.Runways = p.Runways
	} else if p.RunwayName != "" {
		cfg.Runways = []Runway{{Name: p.RunwayName, TrueBearing: p.TrueBearing}}
	} else {
		return nil, fmt.Errorf("feature has neither runway_name nor runways")
	}

	if len(cfg.Lines) != len(cfg.Runways) {
		return nil, fmt.Errorf("%d lines for %d runways", len(cfg.Lines), len(cfg.Runways))
	}
	for i, line := range cfg.Lines {
		if len(line) == 0 {
			return nil, fmt.Errorf("runway %s has an empty line", cfg.Runways[i].Name)
		}
	}

	return cfg, nil
}
