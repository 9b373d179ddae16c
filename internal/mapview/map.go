// Package mapview is a small point-marker map for the terminal. It keeps a
// view (center and zoom), an ordered set of layers and at most one open
// popup, and renders the basemap tile under the view as ANSI art.
package mapview

import (
	"context"
	"errors"
	"sync"

	"airdash/internal/model"
)

// DefaultCenter and DefaultZoom frame the Indian subcontinent.
var DefaultCenter = model.Coords{Lat: 20.5937, Lon: 78.9629}

const DefaultZoom = 5

// ErrNoTileLayer is returned by LoadTiles when no tile layer was added.
var ErrNoTileLayer = errors.New("map has no tile layer")

// Layer is anything placed on the map.
type Layer interface {
	isLayer()
}

// Marker is a point on the map with an optional popup.
type Marker struct {
	m        *Map
	position model.Coords
	popup    string
}

func (*Marker) isLayer() {}

// Position returns where the marker sits.
func (mk *Marker) Position() model.Coords {
	return mk.position
}

// BindPopup sets the popup content.
func (mk *Marker) BindPopup(content string) *Marker {
	mk.m.mu.Lock()
	mk.popup = content
	mk.m.mu.Unlock()
	return mk
}

// OpenPopup shows this marker's popup, closing any other.
func (mk *Marker) OpenPopup() *Marker {
	mk.m.mu.Lock()
	mk.m.openPopup = mk
	mk.m.mu.Unlock()
	return mk
}

// Map is safe for concurrent use: lookups update it from command goroutines
// while the UI renders it.
type Map struct {
	mu        sync.Mutex
	center    model.Coords
	zoom      int
	layers    []Layer
	openPopup *Marker
	caps      Capabilities
}

// New creates a map with the given view.
func New(center model.Coords, zoom int) *Map {
	return &Map{
		center: center,
		zoom:   zoom,
		caps:   DetectCapabilities(),
	}
}

// AddLayer appends l on top of existing layers.
func (m *Map) AddLayer(l Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, l)
}

// SetView recenters the map. Zoom is clamped to what the tile layer serves.
func (m *Map) SetView(center model.Coords, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	maxZoom := DefaultMaxZoom
	if tl := m.tileLayerLocked(); tl != nil {
		maxZoom = tl.MaxZoom()
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	if zoom < 0 {
		zoom = 0
	}
	m.center = center
	m.zoom = zoom
}

// View returns the current center and zoom.
func (m *Map) View() (model.Coords, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.center, m.zoom
}

// EachLayer calls fn for every layer. fn may remove layers.
func (m *Map) EachLayer(fn func(Layer)) {
	m.mu.Lock()
	snapshot := make([]Layer, len(m.layers))
	copy(snapshot, m.layers)
	m.mu.Unlock()

	for _, l := range snapshot {
		fn(l)
	}
}

// RemoveLayer removes l. Removing a marker closes its popup.
func (m *Map) RemoveLayer(l Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing == l {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			break
		}
	}
	if mk, ok := l.(*Marker); ok && m.openPopup == mk {
		m.openPopup = nil
	}
}

// AddMarker places a marker at pos.
func (m *Map) AddMarker(pos model.Coords) *Marker {
	mk := &Marker{m: m, position: pos}
	m.AddLayer(mk)
	return mk
}

// Markers returns the markers currently on the map.
func (m *Map) Markers() []*Marker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markersLocked()
}

// OpenPopup returns the content of the open popup, if any.
func (m *Map) OpenPopup() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openPopup == nil {
		return "", false
	}
	return m.openPopup.popup, true
}

// TileLayer returns the first tile layer, or nil.
func (m *Map) TileLayer() *TileLayer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tileLayerLocked()
}

// LoadTiles fetches the tile under the current view.
func (m *Map) LoadTiles(ctx context.Context) error {
	tl := m.TileLayer()
	if tl == nil {
		return ErrNoTileLayer
	}
	center, zoom := m.View()
	tc, _ := TileAt(center, zoom)
	_, err := tl.Tile(ctx, tc)
	return err
}

func (m *Map) markersLocked() []*Marker {
	var markers []*Marker
	for _, l := range m.layers {
		if mk, ok := l.(*Marker); ok {
			markers = append(markers, mk)
		}
	}
	return markers
}

func (m *Map) tileLayerLocked() *TileLayer {
	for _, l := range m.layers {
		if tl, ok := l.(*TileLayer); ok {
			return tl
		}
	}
	return nil
}
