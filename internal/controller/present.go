package controller

import (
	"fmt"
	"time"

	"airdash/internal/aqi"
	"airdash/internal/model"
	"airdash/internal/util"
)

// PollutantView is one rendered pollutant row.
type PollutantView struct {
	Key   string
	Label string
	Value string
}

// ForecastCard is one rendered forecast day.
type ForecastCard struct {
	Weekday string
	AQI     int
	Level   Level
}

// Dashboard is the results region for a loaded reading.
type Dashboard struct {
	Request         model.LookupRequest
	LocationName    string
	Coords          *model.Coords
	AQI             int
	Level           Level
	Pollutants      []PollutantView
	Recommendations string
	Forecast        []ForecastCard
	Popup           string
}

// Present turns a reading into display content. Coords stays nil when the
// backend sent none. Every index is checked
// before anything is built, so a reading either renders whole or not at all.
// Weekdays are computed in loc.
func Present(r *model.Reading, loc *time.Location) (Dashboard, error) {
	if r == nil || r.Current == nil {
		return Dashboard{}, fmt.Errorf("%w: missing current conditions", aqi.ErrMalformedResponse)
	}
	level, err := LevelFor(r.Current.AQIIndex)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%w: current: %w", aqi.ErrMalformedResponse, err)
	}
	forecastLevels := make([]Level, len(r.Forecast))
	for i, day := range r.Forecast {
		if forecastLevels[i], err = LevelFor(day.AQI); err != nil {
			return Dashboard{}, fmt.Errorf("%w: forecast day %d: %w", aqi.ErrMalformedResponse, i, err)
		}
	}

	d := Dashboard{
		LocationName:    r.LocationName,
		Coords:          r.Coords,
		AQI:             r.Current.AQIIndex,
		Level:           level,
		Recommendations: util.ExpandLineBreaks(r.Recommendations),
		Popup:           fmt.Sprintf("%s\nAQI: %d (%s)", r.LocationName, r.Current.AQIIndex, level.Label),
	}

	d.Pollutants = make([]PollutantView, 0, len(r.Current.Pollutants))
	for _, p := range r.Current.Pollutants {
		d.Pollutants = append(d.Pollutants, PollutantView{
			Key:   p.Key,
			Label: util.PollutantLabel(p.Key),
			Value: util.FormatConcentration(p.Value),
		})
	}

	d.Forecast = make([]ForecastCard, 0, len(r.Forecast))
	for i, day := range r.Forecast {
		d.Forecast = append(d.Forecast, ForecastCard{
			Weekday: util.Weekday(day.Timestamp, loc),
			AQI:     day.AQI,
			Level:   forecastLevels[i],
		})
	}
	return d, nil
}
