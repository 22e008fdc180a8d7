package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ICAOCodeLen is the length of an ICAO airport identifier
const ICAOCodeLen = 4

// Airport represents an entry of the airport catalog
// Fields correspond to columns in the airports CSV dataset
type Airport struct {
	ICAO    string  // Primary key - 4 character ICAO code
	IATA    string  // 3 character IATA code, may be empty
	Name    string  // Airport name
	City    string  // Served city
	State   string  // State or region
	Country string  // Country name
	Lat     float64 // Latitude in degrees
	Lon     float64 // Longitude in degrees
}

// Title is the label shown in suggestion lists, e.g. "EHAM: Schiphol, Amsterdam, North Holland, Netherlands"
func (a *Airport) Title() string {
	return fmt.Sprintf("%s: %s, %s, %s, %s", a.ICAO, a.Name, a.City, a.State, a.Country)
}

// Searchable is the text matched against autocomplete input
func (a *Airport) Searchable() string {
	return fmt.Sprintf("%s %s %s %s %s", a.ICAO, a.Name, a.City, a.State, a.Country)
}

// Coordinates returns the airport position in GeoJSON order
func (a *Airport) Coordinates() LonLat {
	return LonLat{a.Lon, a.Lat}
}

// ICAOFromTitle extracts the ICAO code from a suggestion label.
// Labels start with the code, so the first 4 characters are taken.
func ICAOFromTitle(title string) string {
	if utf8.RuneCountInString(title) <= ICAOCodeLen {
		return title
	}
	runes := []rune(title)
	return string(runes[:ICAOCodeLen])
}

// IsValidICAO reports whether code looks like an ICAO airport identifier
func IsValidICAO(code string) bool {
	return len(code) == ICAOCodeLen && strings.TrimSpace(code) == code
}

// AirportSuggestion is one entry of the /airports-data response
type AirportSuggestion struct {
	Title string `json:"title"`
}

// DestinationAirport is an airport with runway predictions, as listed in the destination select
type DestinationAirport struct {
	ICAO        string `json:"icao"`
	Title       string `json:"title"`
	Coordinates LonLat `json:"coordinates"`
}

// Destination returns the destination select entry for the airport
func (a *Airport) Destination() DestinationAirport {
	return DestinationAirport{
		ICAO:        a.ICAO,
		Title:       a.Title(),
		Coordinates: a.Coordinates(),
	}
}
