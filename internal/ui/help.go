package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"airdash/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, mode model.Mode, width int) string {
	if mode == model.ModeInsert {
		return renderSearchHelp(width)
	}

	switch screen {
	case model.ScreenHistory:
		return renderHistoryHelp(width)
	default:
		return renderDashboardHelp(width)
	}
}

func renderDashboardHelp(width int) string {
	keys := []string{
		helpKey("/", "search"),
		helpKey("l", "my location"),
		helpKey("j/k", "scroll"),
		helpKey("1-5", "jump"),
		helpKey("tab", "topic"),
		helpKey("enter", "expand"),
		helpKey("H", "history"),
		helpKey("?", "help"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderHistoryHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("enter", "look up again"),
		helpKey("tab", "next col"),
		helpKey("s/S", "sort"),
		helpKey("c/C", "hide/show col"),
		helpKey("d/X", "delete/clear"),
		helpKey("u/ctrl+r", "undo/redo"),
		helpKey("b", "dashboard"),
	}
	return renderHelpLine(keys, width)
}

func renderSearchHelp(width int) string {
	keys := []string{
		helpKey("enter", "look up"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Dashboard"),
		helpSection([]helpItem{
			{"/ or i", "Search a city"},
			{"l", "Look up your current location"},
			{"j / ↓", "Scroll down"},
			{"k / ↑", "Scroll up"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"gg / G", "Top / bottom of the page"},
			{"1-5", "Jump to home, dashboard, forecast, map, about"},
			{"tab / shift+tab", "Focus next / previous AQI topic"},
			{"enter / space", "Expand or collapse the focused topic"},
		}),
		titleSection("History"),
		helpSection([]helpItem{
			{"H", "Open recent lookups"},
			{"enter", "Run the selected lookup again"},
			{"tab / shift+tab", "Cycle active column"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"d", "Delete selected lookup"},
			{"X", "Clear all lookups"},
			{"u / ctrl+r", "Undo / redo"},
			{"b / esc", "Back to dashboard"},
		}),
		titleSection("Search (Insert Mode)"),
		helpSection([]helpItem{
			{"enter", "Look up the typed city"},
			{"esc", "Cancel"},
		}),
		titleSection("General"),
		helpSection([]helpItem{
			{"?", "Toggle help"},
			{"q / ctrl+c", "Quit"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		HeaderStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
