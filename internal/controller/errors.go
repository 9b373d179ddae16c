package controller

import (
	"errors"
	"fmt"

	"airdash/internal/model"
)

const (
	// FetchFailedPrefix starts every message of a failed lookup.
	FetchFailedPrefix = "Failed to fetch data: "

	geolocationUnsupportedMessage = "Geolocation is not supported on this system."
	invalidLookupMessage          = "Invalid parameters provided."
)

// ErrGeolocationUnavailable is reported when no locator can be asked.
var ErrGeolocationUnavailable = errors.New("geolocation unavailable")

// GeolocationError wraps a failed position request.
type GeolocationError struct {
	Err error
}

func (e *GeolocationError) Error() string {
	return fmt.Sprintf("Geolocation Error: %v", e.Err)
}

func (e *GeolocationError) Unwrap() error {
	return e.Err
}

// userMessage is the text the error region shows for err.
func userMessage(err error) string {
	var geoErr *GeolocationError
	switch {
	case errors.Is(err, ErrGeolocationUnavailable):
		return geolocationUnsupportedMessage
	case errors.Is(err, model.ErrInvalidLookup):
		return invalidLookupMessage
	case errors.As(err, &geoErr):
		return geoErr.Error()
	default:
		return FetchFailedPrefix + err.Error()
	}
}
