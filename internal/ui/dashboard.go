package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"airdash/internal/controller"
	"airdash/internal/mapview"
)

// Page sections, top to bottom.
const (
	anchorHome            = "home"
	anchorDashboard       = "dashboard"
	anchorPollutants      = "pollutants"
	anchorRecommendations = "recommendations"
	anchorForecast        = "forecast"
	anchorMap             = "map"
	anchorAbout           = "about"
)

// jumpAnchors are the sections reachable with the digit keys 1..5.
var jumpAnchors = []string{anchorHome, anchorDashboard, anchorForecast, anchorMap, anchorAbout}

const (
	mapHeight         = 14
	forecastCardWidth = 20
)

type pageInput struct {
	regions    RegionState
	spinner    string
	mapw       *mapview.Map
	accordion  *Accordion
	aboutFocus int
	reveal     *RevealSet
	width      int
}

type pageSection struct {
	id      string
	title   string
	content string
}

// renderPage lays out the scrollable dashboard page and returns it along
// with the line each section starts on.
func renderPage(in pageInput) (string, []Anchor) {
	sections := []pageSection{
		{id: anchorHome, content: renderHero(in.width)},
		{id: anchorDashboard, title: "Current air quality", content: renderStatus(in)},
	}

	if in.regions.Results && in.regions.Dashboard != nil {
		d := in.regions.Dashboard
		sections = append(sections,
			pageSection{id: anchorPollutants, title: "Pollutants", content: renderPollutants(d)},
			pageSection{id: anchorRecommendations, title: "Recommendations", content: renderRecommendations(d, in.width)},
			pageSection{id: anchorForecast, title: "5-day forecast", content: renderForecast(d, in.width)},
			pageSection{id: anchorMap, title: "Map", content: renderMap(in.mapw, in.width)},
		)
	}

	sections = append(sections, pageSection{
		id:      anchorAbout,
		title:   "About AQI",
		content: renderAbout(in.accordion, in.aboutFocus, in.width),
	})

	var blocks []string
	var anchors []Anchor
	line := 0
	for _, s := range sections {
		block := s.content
		if s.title != "" {
			block = lipgloss.JoinVertical(lipgloss.Left, SectionTitleStyle.Render(s.title), "", block)
		}
		if in.reveal != nil && !in.reveal.IsRevealed(s.id) {
			block = concealed(block, s.title)
		}
		anchors = append(anchors, Anchor{ID: s.id, Line: line})
		blocks = append(blocks, block)
		line += lipgloss.Height(block) + 1
	}

	return strings.Join(blocks, "\n\n"), anchors
}

// concealed keeps the block's height but only shows a faint title, so
// anchors do not move when the block is revealed.
func concealed(block, title string) string {
	h := lipgloss.Height(block)
	lines := make([]string, h)
	lines[0] = HiddenSectionStyle.Render(title)
	return strings.Join(lines, "\n")
}

func renderHero(width int) string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("Breathe easier.")
	sub := BreadcrumbStyle.Render("Real-time air quality, pollutant breakdown and a 5-day outlook for any city.")
	hint := HelpDescStyle.Render("Press ") + HelpKeyStyle.Render("/") + HelpDescStyle.Render(" to search a city or ") +
		HelpKeyStyle.Render("l") + HelpDescStyle.Render(" to use your location.")
	return lipgloss.NewStyle().Width(width).Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, sub, "", hint),
	)
}

func renderStatus(in pageInput) string {
	r := in.regions
	switch {
	case r.Loading:
		return fmt.Sprintf("%s Fetching air quality data...", in.spinner)
	case r.Error:
		return CardStyle.BorderForeground(ColorRed).Render(ErrorStyle.Render(r.Message))
	case r.Results && r.Dashboard != nil:
		return renderCurrent(r.Dashboard)
	default:
		return EmptyStateStyle.Render("Search for a city to see its air quality.")
	}
}

func renderCurrent(d *controller.Dashboard) string {
	location := lipgloss.NewStyle().Foreground(ColorText).Bold(true).Render(d.LocationName)
	value := valueStyle(d.Level).Render(fmt.Sprintf("AQI %d", d.AQI))
	badge := badgeStyle(d.Level).Render("≈ " + d.Level.Label)
	return CardStyle.BorderForeground(levelColor(d.Level)).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			location,
			"",
			value+"  "+badge,
		),
	)
}

func renderPollutants(d *controller.Dashboard) string {
	if len(d.Pollutants) == 0 {
		return EmptyStateStyle.Render("No pollutant data.")
	}
	labelWidth := 0
	for _, p := range d.Pollutants {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
	}

	var lines []string
	for _, p := range d.Pollutants {
		icon := lipgloss.NewStyle().Foreground(ColorAccent).Render(pollutantIcon(p.Key))
		label := LabelStyle.Width(labelWidth + 2).Render(p.Label)
		value := lipgloss.NewStyle().Foreground(ColorText).Width(12).Align(lipgloss.Right).Render(p.Value)
		lines = append(lines, icon+" "+label+value)
	}
	return CardStyle.Render(strings.Join(lines, "\n"))
}

func renderRecommendations(d *controller.Dashboard, width int) string {
	text := d.Recommendations
	if strings.TrimSpace(text) == "" {
		text = "No recommendations for this location."
	}
	return CardStyle.Width(max(width-4, 20)).Render(text)
}

func renderForecast(d *controller.Dashboard, width int) string {
	if len(d.Forecast) == 0 {
		return EmptyStateStyle.Render("No forecast available.")
	}

	cards := make([]string, 0, len(d.Forecast))
	for _, day := range d.Forecast {
		card := lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Foreground(ColorText).Bold(true).Render(day.Weekday),
			BreadcrumbStyle.Render(day.Level.Label),
			badgeStyle(day.Level).Render(fmt.Sprintf("AQI %d", day.AQI)),
		)
		cards = append(cards, CardStyle.Width(forecastCardWidth).Render(card))
	}

	perRow := max(width/(forecastCardWidth+2), 1)
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return strings.Join(rows, "\n")
}

func renderMap(m *mapview.Map, width int) string {
	if m == nil {
		return ErrorStyle.Render("Could not load the map.")
	}

	inner := max(width-6, 10)
	body := m.Render(inner, mapHeight)
	parts := []string{CardStyle.Render(body)}

	if popup, ok := m.OpenPopup(); ok {
		lines := strings.SplitN(popup, "\n", 2)
		text := LabelStyle.Render("◉ " + lines[0])
		if len(lines) > 1 {
			text += "  " + lipgloss.NewStyle().Foreground(ColorText).Render(lines[1])
		}
		parts = append(parts, text)
	}
	if tl := m.TileLayer(); tl != nil {
		parts = append(parts, BreadcrumbStyle.Render(tl.Attribution()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
