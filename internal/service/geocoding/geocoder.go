package geocoding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of validating an address
type Result struct {
	Valid               bool    `json:"valid"`
	Address             string  `json:"address"`
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	HasAvailableDrivers bool    `json:"has_available_drivers"`
	Reason              string  `json:"reason,omitempty"`
}

// Suggestion is a known address matching a query
type Suggestion struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geocoder validates and resolves free-text addresses
type Geocoder interface {
	Validate(ctx context.Context, address string) Result
	Suggest(ctx context.Context, query string) []Suggestion
}

const (
	minAddressLength = 5
	minQueryLength   = 2
	maxSuggestions   = 5

	centreLat = 50.0647
	centreLon = 19.9450
	// half-width of the box fallback coordinates fall into
	spread = 0.05
)

var (
	invalidMarkers = []string{"nieistniejąca", "nieistniejca"}
	remoteMarkers  = []string{"odległa", "odlega"}
	remoteLocation = Suggestion{Address: "ul. Odległa 150, Kraków", Latitude: 50.1000, Longitude: 20.0000}
)

// knownAddresses is ordered so lookups are deterministic
var knownAddresses = []Suggestion{
	{Address: "ul. Mickiewicza 15, Kraków", Latitude: 50.0647, Longitude: 19.9450},
	{Address: "ul. Czarnowiejska 50, Kraków", Latitude: 50.0686, Longitude: 19.9167},
	{Address: "Rynek Główny 1, Kraków", Latitude: 50.0616, Longitude: 19.9373},
	{Address: "ul. Piastowska 22, Kraków", Latitude: 50.0543, Longitude: 19.9320},
	{Address: "Lotnisko Balice, Kraków", Latitude: 50.0779, Longitude: 19.7848},
	{Address: "ul. Długa 10, Kraków", Latitude: 50.0615, Longitude: 19.9368},
	{Address: "Centrum Warszawy", Latitude: 52.2297, Longitude: 21.0122},
	{Address: "Galeria Mokotów", Latitude: 52.1800, Longitude: 21.0450},
}

// StubGeocoder resolves addresses from a fixed table without network calls
type StubGeocoder struct{}

// NewStubGeocoder creates the table-backed geocoder
func NewStubGeocoder() *StubGeocoder {
	return &StubGeocoder{}
}

// Validate implements Geocoder
func (g *StubGeocoder) Validate(_ context.Context, address string) Result {
	trimmed := strings.TrimSpace(address)
	normalized := strings.ToLower(trimmed)
	res := Result{Address: trimmed}

	switch {
	case normalized == "":
		res.Reason = "address is required"
		return res
	case containsAny(normalized, invalidMarkers):
		res.Reason = "address does not exist"
		return res
	case containsAny(normalized, remoteMarkers):
		res.Valid = true
		res.Latitude, res.Longitude = remoteLocation.Latitude, remoteLocation.Longitude
		return res
	}

	for _, known := range knownAddresses {
		key := strings.ToLower(known.Address)
		if strings.Contains(normalized, key) || strings.Contains(key, normalized) {
			res.Valid = true
			res.HasAvailableDrivers = true
			res.Latitude, res.Longitude = known.Latitude, known.Longitude
			return res
		}
	}

	if utf8.RuneCountInString(trimmed) < minAddressLength {
		res.Reason = "address is too short"
		return res
	}

	res.Valid = true
	res.HasAvailableDrivers = true
	res.Latitude, res.Longitude = fallbackCoordinates(normalized)
	return res
}

// Suggest implements Geocoder
func (g *StubGeocoder) Suggest(_ context.Context, query string) []Suggestion {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []Suggestion{}
	if utf8.RuneCountInString(q) < minQueryLength {
		return out
	}
	for _, s := range append(knownAddresses[:6:6], remoteLocation) {
		if strings.Contains(strings.ToLower(s.Address), q) {
			out = append(out, s)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// fallbackCoordinates places an unknown address in a stable spot around the city centre
func fallbackCoordinates(normalized string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(normalized))
	sum := h.Sum64()
	latFrac := float64(sum&0xffffffff) / float64(1<<32)
	lonFrac := float64(sum>>32) / float64(1<<32)
	return centreLat + (latFrac-0.5)*2*spread, centreLon + (lonFrac-0.5)*2*spread
}
