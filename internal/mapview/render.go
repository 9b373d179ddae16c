package mapview

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"github.com/qeesung/image2ascii/convert"
)

// Capabilities describes what the terminal can show.
type Capabilities struct {
	Color bool
}

// DetectCapabilities inspects the environment for color support.
func DetectCapabilities() Capabilities {
	if os.Getenv("NO_COLOR") != "" {
		return Capabilities{}
	}
	term := os.Getenv("TERM")
	return Capabilities{Color: term != "dumb"}
}

var markerColor = color.RGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}

const (
	markerRadius = 7
	markerGlyph  = "◉"
	emptyGlyph   = "·"
)

// Render draws the view into a width x height block of terminal cells.
// It uses the cached basemap tile when there is one and a dotted grid
// otherwise; markers are drawn either way.
func (m *Map) Render(width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	m.mu.Lock()
	center, zoom := m.center, m.zoom
	tl := m.tileLayerLocked()
	markers := m.markersLocked()
	caps := m.caps
	m.mu.Unlock()

	tc, _ := TileAt(center, zoom)
	if tl != nil {
		if tile, ok := tl.Cached(tc); ok {
			return renderTile(tile, tc, markers, caps, width, height)
		}
	}
	return renderGrid(tc, markers, width, height)
}

func renderTile(tile image.Image, tc TileCoord, markers []*Marker, caps Capabilities, width, height int) string {
	canvas := image.NewRGBA(tile.Bounds())
	draw.Draw(canvas, canvas.Bounds(), tile, tile.Bounds().Min, draw.Src)

	for _, mk := range markers {
		mtc, px := TileAt(mk.Position(), tc.Z)
		if mtc != tc {
			continue
		}
		drawDot(canvas, px.Add(canvas.Bounds().Min), markerRadius, markerColor)
	}

	converter := convert.NewImageConverter()
	opts := convert.DefaultOptions
	opts.FixedWidth = width
	opts.FixedHeight = height
	opts.Colored = caps.Color
	opts.Ratio = 0.5
	return converter.Image2ASCIIString(canvas, &opts)
}

func renderGrid(tc TileCoord, markers []*Marker, width, height int) string {
	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = emptyGlyph
		}
	}

	for _, mk := range markers {
		mtc, px := TileAt(mk.Position(), tc.Z)
		if mtc != tc {
			continue
		}
		col := px.X * width / TileSize
		row := px.Y * height / TileSize
		if col >= 0 && col < width && row >= 0 && row < height {
			grid[row][col] = markerGlyph
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

func drawDot(img *image.RGBA, c image.Point, r int, col color.Color) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > r*r {
				continue
			}
			p := image.Pt(c.X+dx, c.Y+dy)
			if p.In(img.Bounds()) {
				img.Set(p.X, p.Y, col)
			}
		}
	}
}
