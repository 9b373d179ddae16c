package ui

import (
	"github.com/charmbracelet/lipgloss"

	"airdash/internal/controller"
)

// Color palette
var (
	ColorBase    = lipgloss.Color("#0f172a")
	ColorSurface = lipgloss.Color("#1e293b")
	ColorMuted   = lipgloss.Color("#64748b")
	ColorText    = lipgloss.Color("#e2e8f0")
	ColorAccent  = lipgloss.Color("#38bdf8")
	ColorGreen   = lipgloss.Color("#10b981")
	ColorRed     = lipgloss.Color("#f87171")
	ColorYellow  = lipgloss.Color("#fbbf24")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	NavbarStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted)

	// NavbarScrolledStyle replaces NavbarStyle once the page is scrolled.
	NavbarScrolledStyle = NavbarStyle.
				Background(ColorSurface).
				BorderForeground(ColorAccent)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1).
				Background(ColorSurface)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorAccent).
				Bold(false)

	NormalRowStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Padding(0, 1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(ColorText).
				Bold(true).
				Underline(true)

	BorderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	ActiveBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorAccent).
				Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	// HiddenSectionStyle is used for sections not yet revealed by scrolling.
	HiddenSectionStyle = lipgloss.NewStyle().
				Foreground(ColorMuted).
				Faint(true)

	BreadcrumbStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true).
			Padding(1, 4)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)

// levelColor returns the level's color token as a terminal color.
func levelColor(l controller.Level) lipgloss.Color {
	return lipgloss.Color(l.Color)
}

// badgeStyle renders a level label as a filled badge.
func badgeStyle(l controller.Level) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ColorBase).
		Background(levelColor(l)).
		Bold(true).
		Padding(0, 1)
}

// valueStyle renders a big AQI number in the level's color.
func valueStyle(l controller.Level) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(levelColor(l)).
		Bold(true)
}
