package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/egoavara/shellconf/internal/i18n"
)

// ConfirmOption represents one answer of a confirmation
type ConfirmOption struct {
	Value bool
	Label string
}

// ConfirmModel is the bubbletea model for a yes/no confirmation
type ConfirmModel struct {
	title     string
	detail    string
	options   []ConfirmOption
	cursor    int
	selected  bool
	quitting  bool
	confirmed bool
}

var confirmDetailStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("42")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// NewConfirmModel creates a confirmation asking title. detail, when set, is
// shown highlighted below it. The cursor starts on yes.
func NewConfirmModel(title, detail string) ConfirmModel {
	return ConfirmModel{
		title:  title,
		detail: detail,
		options: []ConfirmOption{
			{Value: true, Label: i18n.T("common.yes", nil)},
			{Value: false, Label: i18n.T("common.no", nil)},
		},
		selected: true,
	}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q":
		m.quitting = true
		m.selected = false
		return m, tea.Quit

	case "up", "k", "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j", "right", "l":
		if m.cursor < len(m.options)-1 {
			m.cursor++
		}

	case "y", "Y":
		m.selected = true
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "n", "N", "esc":
		m.selected = false
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit

	case "enter", " ":
		m.selected = m.options[m.cursor].Value
		m.confirmed = true
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m ConfirmModel) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}

	var b strings.Builder
	b.WriteString(selectorTitleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.detail != "" {
		b.WriteString("  " + confirmDetailStyle.Render(m.detail))
		b.WriteString("\n\n")
	}

	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(selectorSelectedStyle.Render("▸ " + opt.Label))
		} else {
			b.WriteString(selectorOptionStyle.Render("  " + opt.Label))
		}
		b.WriteString("\n")
	}

	b.WriteString(selectorHelpStyle.Render("↑/↓: " + i18n.T("tui.help.move", nil) + " | Enter: " + i18n.T("tui.help.select", nil)))
	return selectorBoxStyle.Render(b.String())
}

// GetSelected returns whether user selected yes
func (m ConfirmModel) GetSelected() bool {
	return m.selected
}

// IsConfirmed returns whether the user answered
func (m ConfirmModel) IsConfirmed() bool {
	return m.confirmed
}

// RunConfirm launches the interactive confirmation and reports whether the
// user answered yes.
func RunConfirm(title, detail string) (bool, error) {
	finalModel, err := tea.NewProgram(NewConfirmModel(title, detail)).Run()
	if err != nil {
		return false, err
	}
	m := finalModel.(ConfirmModel)
	return m.IsConfirmed() && m.GetSelected(), nil
}
