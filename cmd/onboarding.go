package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type OnboardingSettings struct {
	Completed          bool   `json:"completed"`
	GeolocationEnabled bool   `json:"geolocation_enabled"`
	BackendURL         string `json:"backend_url,omitempty"`
}

func onboardingPath(configDir string) string {
	return filepath.Join(configDir, "onboarding.json")
}

func loadOnboardingSettings(configDir string) (OnboardingSettings, error) {
	path := onboardingPath(configDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OnboardingSettings{}, nil
		}
		return OnboardingSettings{}, err
	}

	var settings OnboardingSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return OnboardingSettings{}, err
	}
	return settings, nil
}

func saveOnboardingSettings(configDir string, settings OnboardingSettings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(onboardingPath(configDir), data, 0644)
}

func shouldRunOnboarding(settings OnboardingSettings) bool {
	if settings.Completed {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// validBackendURL accepts absolute http(s) URLs.
func validBackendURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type onboardingStep int

const (
	stepGeolocation onboardingStep = iota
	stepBackend
	stepDone
)

type onboardingModel struct {
	step         onboardingStep
	geolocation  bool
	backendInput textinput.Model
	settings     OnboardingSettings
	status       string
	inputErr     string
	width        int
	height       int
}

var (
	obColorMuted  = lipgloss.Color("#64748b")
	obColorText   = lipgloss.Color("#e2e8f0")
	obColorAccent = lipgloss.Color("#38bdf8")
	obColorDanger = lipgloss.Color("#f87171")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obOptionStyle = lipgloss.NewStyle().
			Foreground(obColorText)

	obOptionSelected = lipgloss.NewStyle().
				Foreground(obColorAccent).
				Bold(true)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newOnboardingModel(backendURL string) onboardingModel {
	in := textinput.New()
	in.Placeholder = "http://localhost:5000"
	in.CharLimit = 300
	in.Prompt = "url> "
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	in.SetValue(strings.TrimSpace(backendURL))

	return onboardingModel{
		step:         stepGeolocation,
		geolocation:  true,
		backendInput: in,
		settings: OnboardingSettings{
			Completed:          true,
			GeolocationEnabled: true,
		},
	}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.step {
		case stepGeolocation:
			switch msg.String() {
			case "y", "Y":
				m.geolocation = true
				return m.nextStep()
			case "n", "N":
				m.geolocation = false
				return m.nextStep()
			case "up", "k", "left", "h":
				m.geolocation = true
				return m, nil
			case "down", "j", "right", "l":
				m.geolocation = false
				return m, nil
			case "enter":
				return m.nextStep()
			case "ctrl+c", "q":
				m.settings.GeolocationEnabled = false
				m.status = "Setup canceled. Location lookups disabled."
				m.step = stepDone
				return m, tea.Quit
			default:
				return m, nil
			}
		case stepBackend:
			switch msg.String() {
			case "enter":
				raw := strings.TrimRight(strings.TrimSpace(m.backendInput.Value()), "/")
				if raw != "" && !validBackendURL(raw) {
					m.inputErr = "Enter an http:// or https:// URL, or leave it empty for the default."
					return m, nil
				}
				m.settings.BackendURL = raw
				m.status = m.doneStatus()
				m.step = stepDone
				return m, tea.Quit
			case "esc":
				m.status = m.doneStatus()
				m.step = stepDone
				return m, tea.Quit
			case "ctrl+c":
				m.status = m.doneStatus()
				m.step = stepDone
				return m, tea.Quit
			}
			m.inputErr = ""
			var cmd tea.Cmd
			m.backendInput, cmd = m.backendInput.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) nextStep() (tea.Model, tea.Cmd) {
	m.settings.GeolocationEnabled = m.geolocation
	m.step = stepBackend
	cmd := m.backendInput.Focus()
	return m, cmd
}

func (m onboardingModel) doneStatus() string {
	if m.settings.GeolocationEnabled {
		return "Location lookups enabled."
	}
	return "Location lookups disabled."
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(height-6, 8)
	content := m.renderContent(width, contentHeight)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(ui)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("airdash") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	geoTab := obTabInactive.Render("Location")
	backendTab := obTabInactive.Render("Backend")
	if m.step == stepGeolocation {
		geoTab = obTabActive.Render("Location")
	}
	if m.step == stepBackend {
		backendTab = obTabActive.Render("Backend")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", geoTab, backendTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepGeolocation:
		return obFooterStyle.Width(width).Render("↑↓/jk to navigate  y/n enter to confirm  q cancel")
	case stepBackend:
		return obFooterStyle.Width(width).Render("enter save  esc keep default")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepGeolocation:
		question := obLabelStyle.Render("Allow looking up air quality for your current location?")
		on := "Yes, estimate my position from my IP address"
		off := "No, I will search by city"

		var onDisplay, offDisplay string
		if m.geolocation {
			onDisplay = "  " + obOptionSelected.Render("→ "+on)
			offDisplay = "    " + obOptionStyle.Render(off)
		} else {
			onDisplay = "    " + obOptionStyle.Render(on)
			offDisplay = "  " + obOptionSelected.Render("→ "+off)
		}

		body = lipgloss.JoinVertical(
			lipgloss.Left,
			question,
			"",
			onDisplay,
			offDisplay,
			"",
			obMutedStyle.Render("Use arrow keys or j/k to navigate, y/n or Enter to confirm"),
			obMutedStyle.Render("You can change this later in ~/.airdash/onboarding.json or with --geo"),
		)
	case stepBackend:
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.backendInput.View())
		parts := []string{
			obLabelStyle.Render("Where does the AQI backend run?"),
			"",
			obMutedStyle.Render("The dashboard asks this server for readings:"),
			obMutedStyle.Render("  GET /get_aqi?city=<name>"),
			obMutedStyle.Render("  GET /get_aqi?lat=<lat>&lon=<lon>"),
			"",
			obLabelStyle.Render("Backend URL"),
			input,
		}
		if m.inputErr != "" {
			parts = append(parts, obWarnStyle.Render(m.inputErr))
		}
		parts = append(parts, "", obMutedStyle.Render("Press Enter to save, Esc to keep the default."))
		body = lipgloss.JoinVertical(lipgloss.Left, parts...)
	default:
		msg := obMutedStyle.Render(m.status)
		if strings.Contains(strings.ToLower(m.status), "disabled") {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func runOnboarding(configDir string, backendURL string) (OnboardingSettings, error) {
	model := newOnboardingModel(backendURL)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return OnboardingSettings{}, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return OnboardingSettings{}, fmt.Errorf("unexpected onboarding model type")
	}
	if err := saveOnboardingSettings(configDir, m.settings); err != nil {
		return OnboardingSettings{}, err
	}
	return m.settings, nil
}
