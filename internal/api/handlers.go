package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"runway_view/internal/database"
	"runway_view/internal/models"

	"github.com/go-chi/chi/v5"
)

// Handler serves the airport lookup endpoints
type Handler struct {
	airports     database.AirportRepository
	tafs         database.TAFRepository
	destinations []string
}

// NewHandler creates a lookup handler; destinations are the airports with predictions
func NewHandler(airports database.AirportRepository, tafs database.TAFRepository, destinations []string) *Handler {
	return &Handler{
		airports:     airports,
		tafs:         tafs,
		destinations: destinations,
	}
}

// Routes registers the lookup endpoints on r
func (h *Handler) Routes(r chi.Router) {
	r.Get("/airports-data/{prefix}", h.GetAirportsData)
	r.Get("/last-taf-end-time/{icao}", h.GetLastTAFEndTime)
	r.Get("/destination-airports", h.GetDestinationAirports)
	r.Get("/destination-airports/{icao}", h.GetDestinationAirport)
}

// GetAirportsData returns the titles of every airport matching the prefix
func (h *Handler) GetAirportsData(w http.ResponseWriter, r *http.Request) {
	prefix := chi.URLParam(r, "prefix")

	airports, err := h.airports.Search(prefix)
	if err != nil {
		slog.Error("Failed to search airports", "prefix", prefix, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to search airports")
		return
	}

	result := make([]models.AirportSuggestion, 0, len(airports))
	for _, a := range airports {
		result = append(result, models.AirportSuggestion{Title: a.Title()})
	}

	WriteJSON(w, http.StatusOK, result)
}

// GetLastTAFEndTime returns the end of the forecast validity window of a destination
func (h *Handler) GetLastTAFEndTime(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))

	if !h.isDestination(icao) {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("destination_icao %s is not supported. Please choose one of %s",
			icao, strings.Join(h.destinations, ", ")))
		return
	}

	end, err := h.tafs.LastEndTime(icao)
	if errors.Is(err, database.ErrNoForecast) {
		WriteError(w, http.StatusConflict, "No meteorological data available")
		return
	}
	if err != nil {
		slog.Error("Failed to get TAF end time", "icao", icao, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get TAF end time")
		return
	}

	WriteJSON(w, http.StatusOK, models.ForecastValidityWindow{EndTimestamp: end.Unix()})
}

// GetDestinationAirports lists the configured destinations found in the airport catalog
func (h *Handler) GetDestinationAirports(w http.ResponseWriter, r *http.Request) {
	result := make([]models.DestinationAirport, 0, len(h.destinations))
	for _, icao := range h.destinations {
		airport, err := h.airports.GetByICAO(icao)
		if errors.Is(err, database.ErrAirportNotFound) {
			slog.Warn("Destination airport missing from catalog", "icao", icao)
			continue
		}
		if err != nil {
			slog.Error("Failed to get destination airport", "icao", icao, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to get destination airports")
			return
		}
		result = append(result, airport.Destination())
	}

	WriteJSON(w, http.StatusOK, result)
}

// GetDestinationAirport returns one configured destination
func (h *Handler) GetDestinationAirport(w http.ResponseWriter, r *http.Request) {
	icao := strings.ToUpper(chi.URLParam(r, "icao"))

	if !h.isDestination(icao) {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("destination_icao %s is not supported. Please choose one of %s",
			icao, strings.Join(h.destinations, ", ")))
		return
	}

	airport, err := h.airports.GetByICAO(icao)
	if errors.Is(err, database.ErrAirportNotFound) {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Airport %s not found", icao))
		return
	}
	if err != nil {
		slog.Error("Failed to get destination airport", "icao", icao, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to get destination airport")
		return
	}

	WriteJSON(w, http.StatusOK, airport.Destination())
}

func (h *Handler) isDestination(icao string) bool {
	for _, d := range h.destinations {
		if d == icao {
			return true
		}
	}
	return false
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
