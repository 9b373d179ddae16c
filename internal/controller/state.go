package controller

import "airdash/internal/model"

// Status is the phase of the view.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusLoaded:
		return "loaded"
	default:
		return "idle"
	}
}

// ViewState is what the display currently shows. Message and Err are set
// in StatusError; Reading and Dashboard in StatusLoaded. Generation
// identifies the lookup that produced the state.
type ViewState struct {
	Generation uint64
	Status     Status
	Request    model.LookupRequest
	Message    string
	Err        error
	Reading    *model.Reading
	Dashboard  *Dashboard
}
