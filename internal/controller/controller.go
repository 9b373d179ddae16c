// Package controller runs the lookup cycle of the dashboard: it takes a city
// or a position, asks the backend for a reading and drives the display
// regions and the map from the outcome.
package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"airdash/internal/mapview"
	"airdash/internal/model"
)

// MarkerZoom is the zoom the map jumps to for a loaded reading.
const MarkerZoom = 13

// AqiService fetches one reading.
type AqiService interface {
	Fetch(ctx context.Context, req model.LookupRequest) (*model.Reading, error)
}

// MapWidget is the part of the map the controller drives.
type MapWidget interface {
	SetView(center model.Coords, zoom int)
	EachLayer(fn func(mapview.Layer))
	RemoveLayer(l mapview.Layer)
	AddMarker(pos model.Coords) *mapview.Marker
}

// Geolocator reports the user's position.
type Geolocator interface {
	Available() bool
	CurrentPosition(ctx context.Context) (model.Coords, error)
}

// Display owns the named regions of the screen. ShowLoading hides the
// error, initial and results regions; ShowError hides loading, initial and
// results.
type Display interface {
	ShowLoading()
	HideLoading()
	ShowError(msg string)
	ShowDashboard(d Dashboard)
}

// Config holds the controller's collaborators.
type Config struct {
	Service AqiService
	Display Display

	// Map is optional; without it readings render without a marker.
	Map MapWidget

	// Locator is optional; without it geolocation reports as unsupported.
	Locator Geolocator

	// Location is used for forecast weekdays. Default: time.Local
	Location *time.Location

	Logger zerolog.Logger
}

// Controller is safe for concurrent use. Each lookup takes a new generation;
// starting one cancels the previous, and results of a superseded generation
// are dropped without touching the display.
type Controller struct {
	service  AqiService
	display  Display
	mapw     MapWidget
	locator  Geolocator
	location *time.Location
	logger   zerolog.Logger

	mu     sync.Mutex
	state  ViewState
	gen    uint64
	cancel context.CancelFunc
}

// New creates a controller in the idle state.
func New(cfg Config) *Controller {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Controller{
		service:  cfg.Service,
		display:  cfg.Display,
		mapw:     cfg.Map,
		locator:  cfg.Locator,
		location: loc,
		logger:   cfg.Logger,
	}
}

// State returns the current view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubmitCityLookup looks up raw after trimming it. Blank input is ignored.
func (c *Controller) SubmitCityLookup(ctx context.Context, raw string) ViewState {
	req := model.CityLookup(raw)
	if req.City == "" {
		return c.State()
	}
	return c.Lookup(ctx, req)
}

// SubmitGeolocationLookup asks the locator for a position and looks it up.
// Locator failures go straight to the error state without loading.
func (c *Controller) SubmitGeolocationLookup(ctx context.Context) ViewState {
	gen, gctx := c.begin(ctx)
	defer c.end(gen)

	if c.locator == nil || !c.locator.Available() {
		c.fail(gen, model.LookupRequest{}, ErrGeolocationUnavailable)
		return c.State()
	}

	pos, err := c.locator.CurrentPosition(gctx)
	if err != nil {
		c.fail(gen, model.LookupRequest{}, &GeolocationError{Err: err})
		return c.State()
	}
	if !c.current(gen) {
		return c.State()
	}
	return c.Lookup(ctx, model.CoordsLookup(pos.Lat, pos.Lon))
}

// Lookup runs the fetch pipeline for req. The loading indicator is hidden
// exactly once when the lookup ends, unless a newer lookup took over.
func (c *Controller) Lookup(ctx context.Context, req model.LookupRequest) ViewState {
	gen, lctx := c.begin(ctx)
	defer c.end(gen)

	if err := req.Validate(); err != nil {
		c.fail(gen, req, err)
		return c.State()
	}

	c.apply(gen, func() {
		c.state = ViewState{Generation: gen, Status: StatusLoading, Request: req}
		c.display.ShowLoading()
	})
	defer c.apply(gen, c.display.HideLoading)

	log := c.logger.With().Uint64("generation", gen).Str("lookup", req.Describe()).Logger()

	reading, err := c.service.Fetch(lctx, req)
	if err == nil {
		var dash Dashboard
		dash, err = Present(reading, c.location)
		if err == nil {
			dash.Request = req
			applied := c.apply(gen, func() {
				c.state = ViewState{Generation: gen, Status: StatusLoaded, Request: req, Reading: reading, Dashboard: &dash}
				c.placeMarker(dash)
				c.display.ShowDashboard(dash)
			})
			if applied {
				log.Info().Str("location", dash.LocationName).Int("aqi", dash.AQI).Msg("lookup loaded")
			} else {
				log.Debug().Msg("dropped superseded reading")
			}
			return c.State()
		}
	}

	if !c.fail(gen, req, err) {
		log.Debug().Err(err).Msg("dropped superseded failure")
	}
	return c.State()
}

// fail moves to the error state if gen is still current.
func (c *Controller) fail(gen uint64, req model.LookupRequest, err error) bool {
	msg := userMessage(err)
	applied := c.apply(gen, func() {
		c.state = ViewState{Generation: gen, Status: StatusError, Request: req, Message: msg, Err: err}
		c.display.ShowError(msg)
	})
	if applied && !errors.Is(err, context.Canceled) {
		c.logger.Warn().Err(err).Str("lookup", req.Describe()).Msg("lookup failed")
	}
	return applied
}

func (c *Controller) placeMarker(d Dashboard) {
	if c.mapw == nil || d.Coords == nil {
		return
	}
	pos := *d.Coords
	c.mapw.SetView(pos, MarkerZoom)
	c.mapw.EachLayer(func(l mapview.Layer) {
		if _, ok := l.(*mapview.Marker); ok {
			c.mapw.RemoveLayer(l)
		}
	})
	c.mapw.AddMarker(pos).BindPopup(d.Popup).OpenPopup()
}

// begin starts a new generation and cancels the previous one.
func (c *Controller) begin(parent context.Context) (uint64, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return c.gen, ctx
}

// end releases the context of gen once it has finished.
func (c *Controller) end(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

// apply runs fn under the lock if gen is still current.
func (c *Controller) apply(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	fn()
	return true
}
