package ui

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"airdash/internal/controller"
	"airdash/internal/db"
	"airdash/internal/mapview"
	"airdash/internal/model"
)

const defaultTileTimeout = 10 * time.Second

// Options configures the root model.
type Options struct {
	Controller *controller.Controller
	Regions    *Regions

	// Map is nil when the map could not be set up.
	Map *mapview.Map

	// DB stores the lookup history. Optional.
	DB *sql.DB

	// InitialCity is looked up on start when set.
	InitialCity string

	// PrefsPath is where UI preferences live. Empty disables persistence.
	PrefsPath string

	// TileTimeout bounds a single tile fetch. Default: 10s
	TileTimeout time.Duration

	Logger zerolog.Logger
}

// lookupFinishedMsg carries the controller state after a lookup returned.
type lookupFinishedMsg struct {
	state controller.ViewState
}

// Model is the root Bubble Tea model.
type Model struct {
	ctrl    *controller.Controller
	regions *Regions
	mapw    *mapview.Map
	db      *sql.DB
	logger  zerolog.Logger

	screen model.Screen
	mode   model.Mode
	gState GState

	width  int
	height int
	ready  bool

	error       string
	info        string
	showingHelp bool

	search   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	accordion   *Accordion
	aboutFocus  int
	reveal      *RevealSet
	anchors     []Anchor
	navScrolled bool
	history     *HistoryModel

	// pending counts lookups still running; the spinner ticks while > 0.
	pending      int
	lastRecorded uint64
	initialCity  string
	tileTimeout  time.Duration

	keys       KeyMap
	searchKeys SearchKeyMap
	prefs      UIPreferences
	prefsPath  string
	undoStack  []undoAction
	redoStack  []undoAction
}

// New creates a new root model.
func New(opts Options) Model {
	prefs := loadUIPreferences(opts.PrefsPath)

	search := textinput.New()
	search.Placeholder = "Enter a city, e.g. Delhi"
	search.Prompt = "⌕ "
	search.CharLimit = 80
	search.SetValue(prefs.LastCity)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	regions := opts.Regions
	if regions == nil {
		regions = NewRegions()
	}

	tileTimeout := opts.TileTimeout
	if tileTimeout <= 0 {
		tileTimeout = defaultTileTimeout
	}

	history := NewHistoryModel(nil)
	history.ApplyPrefs(prefs.History)

	m := Model{
		ctrl:        opts.Controller,
		regions:     regions,
		mapw:        opts.Map,
		db:          opts.DB,
		logger:      opts.Logger,
		screen:      model.ScreenDashboard,
		mode:        model.ModeNav,
		gState:      GStateIdle,
		search:      search,
		spinner:     sp,
		viewport:    viewport.New(0, 0),
		accordion:   NewAccordion(prefs.ExpandedAbout),
		aboutFocus:  -1,
		reveal:      NewRevealSet(),
		history:     history,
		initialCity: strings.TrimSpace(opts.InitialCity),
		tileTimeout: tileTimeout,
		keys:        DefaultKeyMap(),
		searchKeys:  DefaultSearchKeyMap(),
		prefs:       prefs,
		prefsPath:   opts.PrefsPath,
	}
	if m.initialCity != "" {
		m.pending = 1
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.db != nil {
		cmds = append(cmds, loadHistoryCmd(m.db))
	}
	if m.hasTiles() {
		cmds = append(cmds, loadTilesCmd(m.mapw, m.tileTimeout))
	}
	if m.initialCity != "" {
		cmds = append(cmds, cityLookupCmd(m.ctrl, m.initialCity), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = m.contentHeight()
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.mode == model.ModeInsert {
			return m.handleSearchMode(msg)
		}

		if key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}

		if m.showingHelp {
			if msg.String() == "esc" {
				m.showingHelp = false
			}
			return m, nil
		}

		return m.handleNavMode(msg)

	case spinner.TickMsg:
		if m.pending == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case lookupFinishedMsg:
		if m.pending > 0 {
			m.pending--
		}
		cmd := m.handleLookupFinished(msg.state)
		m.refresh()
		return m, cmd

	case model.TilesLoadedMsg:
		if msg.Err != nil {
			m.logger.Debug().Err(msg.Err).Msg("tile fetch failed, drawing grid")
		}
		m.refresh()
		return m, nil

	case model.HistoryLoadedMsg:
		m.history = NewHistoryModel(msg.Entries)
		m.history.ApplyPrefs(m.prefs.History)
		return m, nil

	case model.HistoryChangedMsg:
		if msg.Info != "" {
			m.info = msg.Info
		}
		return m, loadHistoryCmd(m.db)

	case historyDeletedMsg:
		m.pushUndoAction(m.buildDeleteLookupAction(msg))
		m.info = "Lookup deleted (u to undo)"
		m.error = ""
		return m, loadHistoryCmd(m.db)

	case historyClearedMsg:
		if len(msg.deleted) == 0 {
			m.info = "History is already empty"
			return m, nil
		}
		m.pushUndoAction(m.buildClearHistoryAction(msg))
		m.info = fmt.Sprintf("Cleared %d lookups (u to undo)", len(msg.deleted))
		m.error = ""
		return m, loadHistoryCmd(m.db)

	case undoAppliedMsg:
		cmd := m.applyUndoResult(msg)
		return m, cmd

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil
	}

	if m.mode == model.ModeInsert {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleLookupFinished records a newly loaded reading and brings the
// dashboard into view. States of generations already handled are ignored.
func (m *Model) handleLookupFinished(state controller.ViewState) tea.Cmd {
	if state.Status != controller.StatusLoaded || state.Dashboard == nil {
		return nil
	}
	if state.Generation <= m.lastRecorded {
		return nil
	}
	m.lastRecorded = state.Generation
	m.error = ""

	var cmds []tea.Cmd
	if m.db != nil {
		cmds = append(cmds, recordLookupCmd(m.db, model.HistoryEntry{
			Request:      state.Request,
			LocationName: state.Dashboard.LocationName,
			AQIIndex:     state.Dashboard.AQI,
		}))
	}
	if m.hasTiles() {
		cmds = append(cmds, loadTilesCmd(m.mapw, m.tileTimeout))
	}
	if state.Request.Kind == model.LookupCity {
		m.prefs.LastCity = state.Request.City
		m.savePrefs()
	}

	m.screen = model.ScreenDashboard
	m.refresh()
	m.scrollTo(anchorDashboard)
	return tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	header := m.renderNavbar()
	searchBar := m.renderSearchBar()
	footer := RenderHelp(m.screen, m.mode, m.width)

	var content string
	switch m.screen {
	case model.ScreenHistory:
		content = m.history.View(m.width, m.contentHeight())
	default:
		vp := m.viewport
		vp.Height = m.contentHeight()
		content = vp.View()
	}

	contentStyle := lipgloss.NewStyle().
		Width(m.width).
		Height(m.contentHeight())
	content = contentStyle.Render(content)

	parts := []string{header, searchBar}
	if banner := m.renderBanner(); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// contentHeight is what is left after navbar, search bar, banner and footer.
func (m Model) contentHeight() int {
	h := m.height - 5
	if m.error != "" || m.info != "" {
		h--
	}
	return max(h, 1)
}

func (m Model) renderBanner() string {
	if m.error != "" {
		return ErrorStyle.Width(m.width).Render("Error: " + m.error)
	}
	if m.info != "" {
		return SuccessStyle.Width(m.width).Render(m.info)
	}
	return ""
}

func (m Model) renderNavbar() string {
	title := HeaderStyle.Render("airdash")

	var links []string
	for i, id := range jumpAnchors {
		label := fmt.Sprintf("%d %s", i+1, strings.ToUpper(id[:1])+id[1:])
		links = append(links, BreadcrumbStyle.Render(label))
	}
	if m.screen == model.ScreenHistory {
		links = append(links, LabelStyle.Render("History"))
	}
	left := "  " + title + " " + strings.Join(links, BreadcrumbStyle.Render(" · "))

	right := BreadcrumbStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "

	padding := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	content := left + strings.Repeat(" ", padding) + right

	style := NavbarStyle
	if m.screen == model.ScreenDashboard && m.navScrolled {
		style = NavbarScrolledStyle
	}
	return style.Width(m.width).Render(content)
}

func (m Model) renderSearchBar() string {
	hint := HelpDescStyle.Render("  press ") + HelpKeyStyle.Render("/") + HelpDescStyle.Render(" to search")
	if m.mode == model.ModeInsert {
		hint = HelpDescStyle.Render("  enter to look up · esc to cancel")
	}
	return lipgloss.NewStyle().Width(m.width).Padding(0, 1).Render(m.search.View() + hint)
}

// refresh re-renders the page into the viewport and updates the reveal and
// navbar state for the current scroll position.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	in := pageInput{
		regions:    m.regions.Snapshot(),
		spinner:    m.spinner.View(),
		mapw:       m.mapw,
		accordion:  m.accordion,
		aboutFocus: m.aboutFocus,
		reveal:     m.reveal,
		width:      m.width,
	}
	_, anchors := renderPage(in)
	m.reveal.Update(anchors, m.viewport.YOffset, m.viewport.Height)
	page, anchors := renderPage(in)
	m.anchors = anchors
	m.viewport.SetContent(page)
	m.navScrolled = NavbarScrolled(rowsToPx(m.viewport.YOffset))
}

// scrollTo moves the viewport to the named section.
func (m *Model) scrollTo(ref string) bool {
	line, ok := ScrollTarget(m.anchors, ref)
	if !ok {
		return false
	}
	m.viewport.SetYOffset(line)
	m.afterScroll()
	return true
}

func (m *Model) afterScroll() {
	m.gState = GStateIdle
	m.refresh()
}

func (m *Model) savePrefs() {
	if err := saveUIPreferences(m.prefsPath, m.prefs); err != nil {
		m.error = err.Error()
	}
}

func (m *Model) persistHistoryPrefs() {
	m.prefs.History = m.history.Prefs()
	m.savePrefs()
}

func (m Model) hasTiles() bool {
	return m.mapw != nil && m.mapw.TileLayer() != nil
}

// handleSearchMode handles input while the search field is focused.
func (m Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.searchKeys.Cancel):
		m.search.Blur()
		m.mode = model.ModeNav
		return m, nil

	case key.Matches(msg, m.searchKeys.Submit):
		city := strings.TrimSpace(m.search.Value())
		m.search.Blur()
		m.mode = model.ModeNav
		if city == "" {
			return m, nil
		}
		m.screen = model.ScreenDashboard
		cmd := m.startLookup(cityLookupCmd(m.ctrl, city))
		return m, cmd
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) startLookup(cmd tea.Cmd) tea.Cmd {
	m.pending++
	m.error = ""
	m.info = ""
	return tea.Batch(cmd, m.spinner.Tick)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		m.mode = model.ModeInsert
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Locate):
		m.screen = model.ScreenDashboard
		cmd := m.startLookup(geoLookupCmd(m.ctrl))
		return m, cmd
	case key.Matches(msg, m.keys.Undo):
		if len(m.undoStack) == 0 {
			m.info = "Nothing to undo"
			return m, nil
		}
		cmd := m.undoCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Redo):
		if len(m.redoStack) == 0 {
			m.info = "Nothing to redo"
			return m, nil
		}
		cmd := m.redoCmd()
		return m, cmd
	}

	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		return m.handleJumpToTop()
	}
	m.gState = GStateIdle

	switch m.screen {
	case model.ScreenHistory:
		return m.handleHistoryNav(msg)
	default:
		return m.handleDashboardNav(msg)
	}
}

func (m Model) handleJumpToTop() (tea.Model, tea.Cmd) {
	if m.screen == model.ScreenHistory {
		m.history.JumpToTop()
		return m, nil
	}
	m.viewport.GotoTop()
	m.afterScroll()
	return m, nil
}

func (m Model) handleDashboardNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		m.afterScroll()
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		m.afterScroll()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfViewDown()
		m.afterScroll()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfViewUp()
		m.afterScroll()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.afterScroll()
	case key.Matches(msg, m.keys.History):
		m.screen = model.ScreenHistory
		m.info = ""
		if m.db == nil {
			return m, nil
		}
		return m, loadHistoryCmd(m.db)
	case key.Matches(msg, m.keys.NextItem):
		m.aboutFocus = (m.aboutFocus + 1) % len(aboutItems)
		m.refresh()
		m.scrollTo(anchorAbout)
	case key.Matches(msg, m.keys.PrevItem):
		m.aboutFocus--
		if m.aboutFocus < 0 {
			m.aboutFocus = len(aboutItems) - 1
		}
		m.refresh()
		m.scrollTo(anchorAbout)
	case key.Matches(msg, m.keys.Toggle):
		if m.aboutFocus < 0 {
			return m, nil
		}
		m.accordion.Toggle(aboutItems[m.aboutFocus].id)
		m.prefs.ExpandedAbout = m.accordion.Expanded()
		m.savePrefs()
		m.refresh()
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(jumpAnchors) {
			if !m.scrollTo(jumpAnchors[n-1]) {
				m.info = "Nothing to show there yet"
			}
		}
	}
	return m, nil
}

func (m Model) handleHistoryNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Dashboard):
		m.screen = model.ScreenDashboard
		m.info = ""
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.history.MoveDown()
	case key.Matches(msg, m.keys.Up):
		m.history.MoveUp()
	case key.Matches(msg, m.keys.Bottom):
		m.history.JumpToBottom()
	case key.Matches(msg, m.keys.Select):
		entry, ok := m.history.Selected()
		if !ok {
			return m, nil
		}
		m.screen = model.ScreenDashboard
		cmd := m.startLookup(lookupCmd(m.ctrl, entry.Request))
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		entry, ok := m.history.Selected()
		if !ok || m.db == nil {
			return m, nil
		}
		return m, deleteLookupCmd(m.db, entry.ID)
	case key.Matches(msg, m.keys.Clear):
		if m.db == nil {
			return m, nil
		}
		return m, clearHistoryCmd(m.db)
	default:
		return m.handleTableKeys(msg, m.history)
	}
	return m, nil
}

func (m Model) handleTableKeys(msg tea.KeyMsg, t tableController) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextColumn):
		t.NextColumn()
	case key.Matches(msg, m.keys.PrevColumn):
		t.PrevColumn()
	case key.Matches(msg, m.keys.SortAsc):
		t.SortActiveColumn(false)
		m.info = "Sorted ascending"
	case key.Matches(msg, m.keys.SortDesc):
		t.SortActiveColumn(true)
		m.info = "Sorted descending"
	case key.Matches(msg, m.keys.HideColumn):
		if !t.HideActiveColumn() {
			m.info = "Cannot hide last visible column"
			return m, nil
		}
		m.info = "Column hidden"
	case key.Matches(msg, m.keys.ShowColumns):
		t.ShowAllColumns()
		m.info = "All columns shown"
	default:
		return m, nil
	}
	m.persistHistoryPrefs()
	return m, nil
}

// Commands

func cityLookupCmd(ctrl *controller.Controller, city string) tea.Cmd {
	return func() tea.Msg {
		return lookupFinishedMsg{state: ctrl.SubmitCityLookup(context.Background(), city)}
	}
}

func geoLookupCmd(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return lookupFinishedMsg{state: ctrl.SubmitGeolocationLookup(context.Background())}
	}
}

func lookupCmd(ctrl *controller.Controller, req model.LookupRequest) tea.Cmd {
	return func() tea.Msg {
		return lookupFinishedMsg{state: ctrl.Lookup(context.Background(), req)}
	}
}

func loadHistoryCmd(database *sql.DB) tea.Cmd {
	return func() tea.Msg {
		entries, err := db.ListRecent(database, db.HistoryLimit)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load history: %w", err)}
		}
		return model.HistoryLoadedMsg{Entries: entries}
	}
}

func recordLookupCmd(database *sql.DB, entry model.HistoryEntry) tea.Cmd {
	return func() tea.Msg {
		if _, err := db.AddLookup(database, entry); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to record lookup: %w", err)}
		}
		return model.HistoryChangedMsg{}
	}
}

func loadTilesCmd(mapw *mapview.Map, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return model.TilesLoadedMsg{Err: mapw.LoadTiles(ctx)}
	}
}
