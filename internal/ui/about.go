package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"airdash/internal/controller"
	"airdash/internal/util"
)

type aboutItem struct {
	id    string
	title string
	body  func() string
}

var aboutItems = []aboutItem{
	{
		id:    "what",
		title: "What is the Air Quality Index?",
		body: func() string {
			return "The AQI condenses the concentration of several pollutants into a single\n" +
				"number from 1 to 5. Lower is better. The index is computed from the\n" +
				"pollutant with the worst reading at the time of the measurement."
		},
	},
	{
		id:    "levels",
		title: "How are the levels defined?",
		body: func() string {
			var lines []string
			for _, l := range controller.Levels() {
				lines = append(lines, fmt.Sprintf("%s %s", badgeStyle(l).Render(fmt.Sprintf(" %d ", l.Index)), l.Label))
			}
			return strings.Join(lines, "\n")
		},
	},
	{
		id:    "pollutants",
		title: "Which pollutants are measured?",
		body: func() string {
			keys := []string{"co", "no", "no2", "o3", "so2", "pm2_5", "pm10", "nh3"}
			var lines []string
			for _, k := range keys {
				lines = append(lines, fmt.Sprintf("%s  %-6s %s", pollutantIcon(k), util.PollutantLabel(k), pollutantDescriptions[k]))
			}
			return strings.Join(lines, "\n")
		},
	},
	{
		id:    "tips",
		title: "How can I protect myself?",
		body: func() string {
			return "Check the forecast before planning outdoor exercise.\n" +
				"Keep windows closed on Poor and Very Poor days.\n" +
				"A well-fitted mask helps against fine particles (PM2.5)."
		},
	},
}

var pollutantDescriptions = map[string]string{
	"co":    "carbon monoxide",
	"no":    "nitrogen monoxide",
	"no2":   "nitrogen dioxide",
	"o3":    "ozone",
	"so2":   "sulphur dioxide",
	"pm2_5": "fine particles",
	"pm10":  "coarse particles",
	"nh3":   "ammonia",
}

var pollutantIcons = map[string]string{
	"co":    "☁",
	"no":    "≋",
	"no2":   "⌂",
	"o3":    "☀",
	"so2":   "≋",
	"pm2_5": "⚛",
	"pm10":  "≈",
	"nh3":   "⚗",
}

const defaultPollutantIcon = "●"

// pollutantIcon returns the glyph shown before a pollutant label.
func pollutantIcon(key string) string {
	if icon, ok := pollutantIcons[key]; ok {
		return icon
	}
	return defaultPollutantIcon
}

// renderAbout renders the accordion. focused is the index of the item the
// cursor is on, or -1.
func renderAbout(acc *Accordion, focused, width int) string {
	var blocks []string
	for i, item := range aboutItems {
		marker := "▸"
		if acc.IsOpen(item.id) {
			marker = "▾"
		}
		title := fmt.Sprintf("%s %s", marker, item.title)
		titleStyle := LabelStyle
		if i == focused {
			titleStyle = SelectedRowStyle.Padding(0, 1)
		}
		block := titleStyle.Render(title)
		if acc.IsOpen(item.id) {
			body := lipgloss.NewStyle().
				Foreground(ColorText).
				PaddingLeft(2).
				Width(max(width-4, 10)).
				Render(item.body())
			block = lipgloss.JoinVertical(lipgloss.Left, block, body)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n")
}
