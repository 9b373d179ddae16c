package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Coords is a WGS84 position.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LookupKind tells which variant of a LookupRequest is active.
type LookupKind int

const (
	LookupNone LookupKind = iota
	LookupCity
	LookupCoords
)

// String returns the kind name as stored in the history table.
func (k LookupKind) String() string {
	switch k {
	case LookupCity:
		return "city"
	case LookupCoords:
		return "coords"
	default:
		return "none"
	}
}

// ParseLookupKind is the inverse of LookupKind.String.
func ParseLookupKind(s string) LookupKind {
	switch s {
	case "city":
		return LookupCity
	case "coords":
		return LookupCoords
	default:
		return LookupNone
	}
}

// LookupRequest asks the backend for a reading, either by city name or by
// coordinates. Exactly one variant is active.
type LookupRequest struct {
	Kind   LookupKind
	City   string
	Coords Coords
}

// CityLookup builds a city request. The name is trimmed.
func CityLookup(city string) LookupRequest {
	return LookupRequest{Kind: LookupCity, City: strings.TrimSpace(city)}
}

// CoordsLookup builds a coordinate request.
func CoordsLookup(lat, lon float64) LookupRequest {
	return LookupRequest{Kind: LookupCoords, Coords: Coords{Lat: lat, Lon: lon}}
}

// ErrInvalidLookup is returned for a request with no usable variant.
var ErrInvalidLookup = errors.New("invalid parameters provided")

// Validate checks that exactly one variant is usable.
func (r LookupRequest) Validate() error {
	switch r.Kind {
	case LookupCity:
		if r.City == "" {
			return ErrInvalidLookup
		}
		return nil
	case LookupCoords:
		return nil
	default:
		return ErrInvalidLookup
	}
}

// Describe renders the request for history rows and log lines.
func (r LookupRequest) Describe() string {
	switch r.Kind {
	case LookupCity:
		return r.City
	case LookupCoords:
		return fmt.Sprintf("%.4f, %.4f", r.Coords.Lat, r.Coords.Lon)
	default:
		return ""
	}
}

// Pollutant is one concentration entry of the current reading.
type Pollutant struct {
	Key   string
	Value float64
}

// Pollutants keeps the key order of the JSON object it was decoded from.
type Pollutants []Pollutant

// UnmarshalJSON decodes an object of key -> number preserving key order.
func (p *Pollutants) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*p = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("pollutants: expected object, got %v", tok)
	}

	var out Pollutants
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("pollutants: expected key, got %v", keyTok)
		}
		var value float64
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("pollutants: value for %q: %w", key, err)
		}
		out = append(out, Pollutant{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// Current is the present-time part of a reading.
type Current struct {
	AQIIndex   int        `json:"aqi_index"`
	Pollutants Pollutants `json:"pollutants"`
}

// ForecastDay is one day of the 5-day forecast.
type ForecastDay struct {
	Timestamp int64 `json:"dt"`
	AQI       int   `json:"aqi"`
}

// Time converts the forecast timestamp into loc.
func (d ForecastDay) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(d.Timestamp, 0).In(loc)
}

// Reading is the backend's answer for one lookup.
type Reading struct {
	LocationName    string        `json:"location_name"`
	Coords          *Coords       `json:"coords"`
	Current         *Current      `json:"current"`
	Recommendations string        `json:"recommendations"`
	Forecast        []ForecastDay `json:"forecast"`
}

// HistoryEntry is a past successful lookup.
type HistoryEntry struct {
	ID           int64
	Request      LookupRequest
	LocationName string
	AQIIndex     int
	LookedUpAt   time.Time
}
