package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/reconcile"
	"github.com/egoavara/shellconf/internal/search"
)

// Mark is the change the user queued for a plugin.
type Mark int

const (
	MarkNone Mark = iota
	MarkInstall
	MarkUpdate
	MarkDelete
)

// PluginItem wraps an index record with its local status
type PluginItem struct {
	Plugin marketplace.Record
	Status reconcile.Status
	Mark   Mark
}

// next cycles the mark: a missing plugin can be installed, an outdated one
// updated or deleted, an up to date one deleted.
func (p PluginItem) next() Mark {
	switch {
	case !p.Status.Installed:
		if p.Mark == MarkNone {
			return MarkInstall
		}
	case p.Status.HasUpdate:
		switch p.Mark {
		case MarkNone:
			return MarkUpdate
		case MarkUpdate:
			return MarkDelete
		}
	default:
		if p.Mark == MarkNone {
			return MarkDelete
		}
	}
	return MarkNone
}

// FinderResult holds the result of TUI selection
type FinderResult struct {
	ToInstall []PluginItem
	ToUpdate  []PluginItem
	ToDelete  []PluginItem
	Cancelled bool
}

// ViewMode represents the current view mode
type ViewMode int

const (
	ModeList ViewMode = iota
	ModeConfirm
)

// Model is the bubbletea model for the plugin store finder
type Model struct {
	items       []PluginItem
	filtered    []int // indexes into items
	cursor      int
	width       int
	height      int
	searchInput textinput.Model
	mode        ViewMode
	quitting    bool
	confirmed   bool
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	installedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	outdatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	toInstallStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	toDeleteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	previewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2).
			Align(lipgloss.Center)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// NewModel creates a finder over idx. statuses come from a reconciliation
// pass; plugins without a status count as not installed.
func NewModel(idx *marketplace.Index, statuses map[string]reconcile.Status) Model {
	items := make([]PluginItem, len(idx.Plugins))
	for i, rec := range idx.Plugins {
		items[i] = PluginItem{Plugin: rec, Status: statuses[rec.Name]}
	}

	ti := textinput.New()
	ti.Placeholder = i18n.T("finder.filter", nil)
	ti.CharLimit = 50
	ti.Width = 30

	m := Model{
		items:       items,
		searchInput: ti,
		mode:        ModeList,
	}
	m.applyFilter()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == ModeConfirm {
			return m.handleConfirmKey(msg)
		}
		return m.handleListKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		// If search has text, clear it; otherwise quit
		if m.searchInput.Value() != "" {
			m.searchInput.SetValue("")
			m.applyFilter()
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case "tab":
		if m.cursor < len(m.filtered) {
			i := m.filtered[m.cursor]
			m.items[i].Mark = m.items[i].next()
		}

	case "enter":
		if m.hasChanges() {
			m.mode = ModeConfirm
		}

	case "backspace":
		val := []rune(m.searchInput.Value())
		if len(val) > 0 {
			m.searchInput.SetValue(string(val[:len(val)-1]))
			m.applyFilter()
		}

	default:
		if msg.Type == tea.KeyRunes {
			m.searchInput.SetValue(m.searchInput.Value() + string(msg.Runes))
			m.applyFilter()
		}
	}

	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "n", "N", "esc", "q":
		m.mode = ModeList
	}
	return m, nil
}

func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.searchInput.Value()))
	m.filtered = make([]int, 0, len(m.items))
	if query == "" {
		for i := range m.items {
			m.filtered = append(m.filtered, i)
		}
	} else {
		recs := make(search.PluginSearchable, len(m.items))
		for i, item := range m.items {
			recs[i] = item.Plugin
		}
		for _, match := range fuzzy.FindFrom(query, recs) {
			m.filtered = append(m.filtered, match.Index)
		}
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m Model) hasChanges() bool {
	for _, item := range m.items {
		if item.Mark != MarkNone {
			return true
		}
	}
	return false
}

// Result returns the queued changes, or a cancelled result when the user
// quit without confirming.
func (m Model) Result() *FinderResult {
	if !m.confirmed {
		return &FinderResult{Cancelled: true}
	}
	return m.changes()
}

func (m Model) changes() *FinderResult {
	r := &FinderResult{}
	for _, item := range m.items {
		switch item.Mark {
		case MarkInstall:
			r.ToInstall = append(r.ToInstall, item)
		case MarkUpdate:
			r.ToUpdate = append(r.ToUpdate, item)
		case MarkDelete:
			r.ToDelete = append(r.ToDelete, item)
		}
	}
	return r
}

func (m Model) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}
	if m.mode == ModeConfirm {
		return m.renderConfirmModal()
	}
	return m.renderListView()
}

func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(i18n.T("finder.header", map[string]any{"count": len(m.items)})))
	b.WriteString("\n\n")

	listWidth := 40
	previewWidth := max(30, m.width-listWidth-6)
	listHeight := max(5, m.height-8)

	var listLines []string
	for row, i := range m.filtered {
		listLines = append(listLines, m.renderItem(row, m.items[i]))
	}

	start := 0
	if m.cursor >= listHeight {
		start = m.cursor - listHeight + 1
	}
	end := min(start+listHeight, len(listLines))

	listBox := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(listLines[start:end], "\n"))
	previewBox := previewStyle.Width(previewWidth).Height(listHeight).Render(m.renderPreview())

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, listBox, "  ", previewBox))
	b.WriteString("\n\n")

	if q := m.searchInput.Value(); q != "" {
		b.WriteString("> " + q + "_")
	} else {
		b.WriteString(helpStyle.Render("> " + m.searchInput.Placeholder))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(i18n.T("finder.help", nil)))

	return b.String()
}

func (m Model) renderItem(row int, item PluginItem) string {
	cursor := "  "
	if row == m.cursor {
		cursor = "> "
	}

	var checkbox string
	var style lipgloss.Style
	switch {
	case item.Mark == MarkInstall:
		checkbox, style = "[+]", toInstallStyle
	case item.Mark == MarkUpdate:
		checkbox, style = "[^]", toInstallStyle
	case item.Mark == MarkDelete:
		checkbox, style = "[-]", toDeleteStyle
	case item.Status.HasUpdate:
		checkbox, style = "[!]", outdatedStyle
	case item.Status.Installed:
		checkbox, style = "[*]", installedStyle
	default:
		checkbox, style = "[ ]", normalStyle
	}

	text := fmt.Sprintf("%s%s %s (v%s)", cursor, checkbox, item.Plugin.Name, item.Plugin.Version)
	if item.Status.HasUpdate {
		text = fmt.Sprintf("%s%s %s (%s -> %s)", cursor, checkbox, item.Plugin.Name, item.Status.LocalVersion, item.Plugin.Version)
	}

	if row == m.cursor {
		return selectedStyle.Render(text)
	}
	return style.Render(text)
}

func (m Model) renderPreview() string {
	if m.cursor >= len(m.filtered) {
		return i18n.T("finder.preview_empty", nil)
	}

	item := m.items[m.filtered[m.cursor]]
	p := item.Plugin

	var b strings.Builder
	b.WriteString(p.Name + "\n")
	b.WriteString(i18n.T("plugin.version", map[string]any{"version": p.Version}) + "\n")
	if p.Author != "" {
		b.WriteString(i18n.T("plugin.author", map[string]any{"author": p.Author}) + "\n")
	}

	switch {
	case item.Status.HasUpdate:
		b.WriteString(outdatedStyle.Render(i18n.T("plugins.update", nil)) + "\n")
	case item.Status.Installed:
		b.WriteString(installedStyle.Render(i18n.T("plugins.installed", nil)) + "\n")
	default:
		b.WriteString(i18n.T("plugins.not_installed", nil) + "\n")
	}

	if p.Description != "" {
		b.WriteString("\n" + p.Description + "\n")
	}
	return b.String()
}

func (m Model) renderConfirmModal() string {
	r := m.changes()

	var b strings.Builder
	b.WriteString(i18n.T("finder.confirm_title", nil))
	b.WriteString("\n\n")

	section := func(key, sign string, style lipgloss.Style, items []PluginItem) {
		if len(items) == 0 {
			return
		}
		b.WriteString(style.Render(i18n.T(key, map[string]any{"count": len(items)})))
		b.WriteString("\n")
		for _, item := range items {
			fmt.Fprintf(&b, "  %s %s (v%s)\n", sign, item.Plugin.Name, item.Plugin.Version)
		}
		b.WriteString("\n")
	}
	section("finder.to_install", "+", toInstallStyle, r.ToInstall)
	section("finder.to_update", "^", toInstallStyle, r.ToUpdate)
	section("finder.to_delete", "-", toDeleteStyle, r.ToDelete)

	b.WriteString(helpStyle.Render("[y] " + i18n.T("common.confirm", nil) + "  [n] " + i18n.T("common.cancel", nil)))
	return modalStyle.Render(b.String())
}

// RunPluginFinder launches the interactive plugin store over idx
func RunPluginFinder(idx *marketplace.Index, statuses map[string]reconcile.Status) (*FinderResult, error) {
	if idx == nil || len(idx.Plugins) == 0 {
		return nil, fmt.Errorf("%s", i18n.T("finder.no_plugins", nil))
	}

	p := tea.NewProgram(NewModel(idx, statuses), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(Model).Result(), nil
}
