package controller

import (
	"errors"
	"fmt"
)

// ErrAQIOutOfRange is returned for an index outside 1..5.
var ErrAQIOutOfRange = errors.New("aqi index out of range")

// Level describes one band of the air quality index.
type Level struct {
	Index      int
	Label      string
	StyleClass string
	Color      string
}

var levels = [...]Level{
	{Index: 1, Label: "Good", StyleClass: "aqi-1", Color: "#10b981"},
	{Index: 2, Label: "Fair", StyleClass: "aqi-2", Color: "#fbbf24"},
	{Index: 3, Label: "Moderate", StyleClass: "aqi-3", Color: "#f97316"},
	{Index: 4, Label: "Poor", StyleClass: "aqi-4", Color: "#ef4444"},
	{Index: 5, Label: "Very Poor", StyleClass: "aqi-5", Color: "#a855f7"},
}

// LevelFor returns the level for an index.
func LevelFor(index int) (Level, error) {
	if index < 1 || index > len(levels) {
		return Level{}, fmt.Errorf("%w: %d", ErrAQIOutOfRange, index)
	}
	return levels[index-1], nil
}

// Levels returns the whole table in index order.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels[:])
	return out
}
