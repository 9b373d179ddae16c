package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"airdash/internal/controller"
	"airdash/internal/model"
	"airdash/internal/util"
)

type historyColumn struct {
	key    string
	label  string
	width  int
	hidden bool
}

// HistoryModel represents the lookup history screen.
type HistoryModel struct {
	rows   []model.HistoryEntry
	cursor int
	offset int
	now    func() time.Time

	columns      []historyColumn
	activeColumn int
	sortKey      string
	sortDesc     bool
	pageSize     int
}

// NewHistoryModel creates a new history model. Rows arrive newest first.
func NewHistoryModel(rows []model.HistoryEntry) *HistoryModel {
	return &HistoryModel{
		rows: append([]model.HistoryEntry(nil), rows...),
		now:  time.Now,
		columns: []historyColumn{
			{key: "when", label: "when", width: 12},
			{key: "query", label: "query", width: 24},
			{key: "kind", label: "kind", width: 8},
			{key: "location", label: "location", width: 24},
			{key: "aqi", label: "aqi", width: 16},
		},
		pageSize: 10,
	}
}

func (m *HistoryModel) ApplyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		m.sortKey = prefs.SortKey
		m.sortDesc = prefs.SortDesc
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, c := range prefs.HiddenColumns {
		hidden[c] = true
	}
	for i := range m.columns {
		m.columns[i].hidden = hidden[m.columns[i].key]
	}
	if prefs.ActiveColumn != "" {
		for i, c := range m.columns {
			if c.key == prefs.ActiveColumn {
				m.activeColumn = i
				break
			}
		}
	}
	m.ensureVisibleActiveColumn()
	m.rebuild()
}

func (m *HistoryModel) Prefs() TablePrefs {
	var hidden []string
	for _, c := range m.columns {
		if c.hidden {
			hidden = append(hidden, c.key)
		}
	}
	return TablePrefs{
		SortKey:       m.sortKey,
		SortDesc:      m.sortDesc,
		HiddenColumns: hidden,
		ActiveColumn:  m.columns[m.activeColumn].key,
	}
}

func (m *HistoryModel) rebuild() {
	if m.sortKey != "" {
		sort.SliceStable(m.rows, func(i, j int) bool {
			left := strings.ToLower(m.getValue(m.rows[i], m.sortKey))
			right := strings.ToLower(m.getValue(m.rows[j], m.sortKey))
			if left == right {
				return m.rows[i].ID > m.rows[j].ID
			}
			if m.sortDesc {
				return left > right
			}
			return left < right
		})
	}
	m.clampCursor()
}

func (m *HistoryModel) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m *HistoryModel) getValue(row model.HistoryEntry, key string) string {
	switch key {
	case "when":
		return row.LookedUpAt.UTC().Format(time.RFC3339)
	case "query":
		return row.Request.Describe()
	case "kind":
		return row.Request.Kind.String()
	case "location":
		return row.LocationName
	case "aqi":
		return strconv.Itoa(row.AQIIndex)
	default:
		return ""
	}
}

// Selected returns the entry under the cursor.
func (m *HistoryModel) Selected() (model.HistoryEntry, bool) {
	if len(m.rows) == 0 {
		return model.HistoryEntry{}, false
	}
	return m.rows[m.cursor], true
}

// Len returns the number of rows.
func (m *HistoryModel) Len() int {
	return len(m.rows)
}

func (m *HistoryModel) NextColumn() {
	start := m.activeColumn
	for {
		m.activeColumn = (m.activeColumn + 1) % len(m.columns)
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

func (m *HistoryModel) PrevColumn() {
	start := m.activeColumn
	for {
		m.activeColumn--
		if m.activeColumn < 0 {
			m.activeColumn = len(m.columns) - 1
		}
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

func (m *HistoryModel) SortActiveColumn(desc bool) {
	m.sortKey = m.columns[m.activeColumn].key
	m.sortDesc = desc
	m.rebuild()
}

func (m *HistoryModel) HideActiveColumn() bool {
	if len(m.visibleColumnIndexes()) <= 1 {
		return false
	}
	m.columns[m.activeColumn].hidden = true
	m.ensureVisibleActiveColumn()
	return true
}

func (m *HistoryModel) ShowAllColumns() {
	for i := range m.columns {
		m.columns[i].hidden = false
	}
}

func (m *HistoryModel) TableMeta() string {
	col := strings.ToUpper(m.columns[m.activeColumn].label)
	parts := []string{fmt.Sprintf("col %s", col)}
	if m.sortKey != "" {
		order := "asc"
		if m.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(m.sortKey), order))
	}
	return strings.Join(parts, "  ·  ")
}

func (m *HistoryModel) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range m.columns {
		if !c.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (m *HistoryModel) ensureVisibleActiveColumn() {
	if !m.columns[m.activeColumn].hidden {
		return
	}
	for i := range m.columns {
		if !m.columns[i].hidden {
			m.activeColumn = i
			return
		}
	}
	m.columns[0].hidden = false
	m.activeColumn = 0
}

// View renders the history list.
func (m *HistoryModel) View(width, height int) string {
	if len(m.rows) == 0 {
		emptyMsg := `    No lookups yet.
    Search a city on the dashboard and it will show up here.`
		return EmptyStateStyle.
			Width(width).
			Height(height).
			Render(emptyMsg)
	}

	visible := m.visibleColumnIndexes()
	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := m.columns[idx]
		label := strings.ToUpper(col.label)
		if idx == m.activeColumn {
			label = "❋ " + label
		}
		if m.sortKey == col.key {
			if m.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width, lipgloss.Width(label)+2)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}

	if len(widths) > 0 {
		extra := width - totalFixed - 4
		if extra > 0 {
			widths[len(widths)-1] += extra
		}
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)

	visibleHeight := max(height-3, 1)
	m.pageSize = visibleHeight
	if m.cursor >= m.offset+visibleHeight {
		m.offset = m.cursor - visibleHeight + 1
	}

	var rows []string
	now := m.now()
	for i := m.offset; i < len(m.rows) && i < m.offset+visibleHeight; i++ {
		row := m.rows[i]
		style := NormalRowStyle
		if i%2 == 1 {
			style = style.Background(ColorSurface)
		}
		if i == m.cursor {
			style = SelectedRowStyle
		}

		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			col := m.columns[idx]
			switch col.key {
			case "when":
				cells = append(cells, util.FormatTimeHuman(row.LookedUpAt, now))
			case "query":
				cells = append(cells, util.TruncateString(row.Request.Describe(), col.width-2))
			case "kind":
				cells = append(cells, row.Request.Kind.String())
			case "location":
				cells = append(cells, util.TruncateString(row.LocationName, col.width-2))
			case "aqi":
				cells = append(cells, renderAQICell(row.AQIIndex, i == m.cursor))
			}
		}

		rows = append(rows, renderTableRow(cells, widths, style))
	}

	meta := m.TableMeta()
	if meta != "" {
		meta = "  ·  " + meta
	}
	status := StatusBarStyle.Render(fmt.Sprintf("Recent lookups: %d%s", len(m.rows), meta))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		strings.Join(rows, "\n"),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		"",
		status,
	)
}

func renderAQICell(index int, selected bool) string {
	level, err := controller.LevelFor(index)
	if err != nil {
		return "—"
	}
	text := fmt.Sprintf("%d %s", index, level.Label)
	if selected {
		return text
	}
	return lipgloss.NewStyle().Foreground(levelColor(level)).Render(text)
}

// MoveDown moves the cursor down.
func (m *HistoryModel) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
		if m.cursor >= m.offset+m.pageSize {
			m.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (m *HistoryModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		if m.cursor < m.offset {
			m.offset--
		}
	}
}

// JumpToTop jumps to the first item.
func (m *HistoryModel) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

// JumpToBottom jumps to the last item.
func (m *HistoryModel) JumpToBottom() {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
		if m.cursor >= m.pageSize {
			m.offset = m.cursor - m.pageSize + 1
		}
	}
}

// Helper function to render a table row
func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}
