package models

// LonLat is a position in GeoJSON order: [longitude, latitude]
type LonLat [2]float64

// LatLng is a position in map-library order: [latitude, longitude]
type LatLng [2]float64

// ReverseCoordinates swaps the two components of a coordinate pair.
// Payload positions are [lon, lat]; the map expects [lat, lon].
func ReverseCoordinates(c [2]float64) [2]float64 {
	return [2]float64{c[1], c[0]}
}

// ToLatLng converts a GeoJSON position into map order
func (p LonLat) ToLatLng() LatLng {
	return LatLng(ReverseCoordinates(p))
}

// ToLatLngs converts a GeoJSON line into map order
func ToLatLngs(line []LonLat) []LatLng {
	out := make([]LatLng, len(line))
	for i, p := range line {
		out[i] = p.ToLatLng()
	}
	return out
}
