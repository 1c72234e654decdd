package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tidwall/pretty"

	"github.com/egoavara/shellconf/internal/i18n"
	"github.com/egoavara/shellconf/internal/preset"
)

// PresetSelectorModel is the bubbletea model for picking a preset of a family
type PresetSelectorModel struct {
	family    preset.Family
	prefix    string // i18n key prefix, e.g. "theme."
	current   string
	cursor    int
	selected  string
	width     int
	height    int
	quitting  bool
	confirmed bool
}

// Selector styles
var (
	selectorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1)

	selectorOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	selectorSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57")).
				Bold(true).
				Padding(0, 1)

	selectorDescStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginLeft(4)

	selectorBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	selectorHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				MarginTop(1)

	previewBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Foreground(lipgloss.Color("250"))

	previewTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Bold(true)
)

// NewPresetSelectorModel creates a selector over family. current is the
// classification of the settings subtree and starts under the cursor.
func NewPresetSelectorModel(family preset.Family, prefix, current string) PresetSelectorModel {
	m := PresetSelectorModel{
		family:   family,
		prefix:   prefix,
		current:  current,
		selected: current,
	}
	for i, p := range family {
		if p.Name == current {
			m.cursor = i
		}
	}
	return m
}

func (m PresetSelectorModel) Init() tea.Cmd {
	return nil
}

func (m PresetSelectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.family)-1 {
				m.cursor++
			}

		case "enter", " ":
			m.selected = m.family[m.cursor].Name
			m.confirmed = true
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m PresetSelectorModel) View() string {
	if m.quitting && !m.confirmed {
		return ""
	}

	var left strings.Builder
	left.WriteString(selectorTitleStyle.Render(i18n.T("settings.current_preset", map[string]any{
		"family": i18n.T("settings."+strings.TrimSuffix(m.prefix, "."), nil),
		"name":   i18n.T(m.prefix+m.current, nil),
	})))
	left.WriteString("\n\n")

	for i, p := range m.family {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		label := i18n.T(m.prefix+p.Name, nil)
		if p.Name == m.current {
			label += " *"
		}
		if i == m.cursor {
			left.WriteString(selectorSelectedStyle.Render(cursor + label))
		} else {
			left.WriteString(selectorOptionStyle.Render(cursor + label))
		}
		left.WriteString("\n")
	}

	left.WriteString(selectorHelpStyle.Render("↑/↓: " + i18n.T("tui.help.move", nil) + " | Enter: " + i18n.T("tui.help.select", nil)))

	leftBox := selectorBoxStyle.Render(left.String())
	rightBox := previewBoxStyle.Width(48).Height(14).Render(m.renderPreview())
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBox, "  ", rightBox)
}

// renderPreview shows the values the preset under the cursor writes.
func (m PresetSelectorModel) renderPreview() string {
	var b strings.Builder
	b.WriteString(previewTitleStyle.Render(i18n.T("preset.preview", nil)))
	b.WriteString("\n\n")

	p := m.family[m.cursor]
	if p.Values == nil {
		b.WriteString(selectorDescStyle.Render(i18n.T("preset.default_desc", nil)))
		return b.String()
	}
	b.WriteString(PresetValues(p))
	return b.String()
}

// PresetValues renders the values of p as indented JSON.
func PresetValues(p preset.Preset) string {
	data, err := json.Marshal(p.Values)
	if err != nil {
		return fmt.Sprint(p.Values)
	}
	return string(pretty.PrettyOptions(data, &pretty.Options{Width: 40, Indent: "  ", SortKeys: true}))
}

// GetSelected returns the selected preset name
func (m PresetSelectorModel) GetSelected() string {
	return m.selected
}

// IsConfirmed returns whether the user confirmed selection
func (m PresetSelectorModel) IsConfirmed() bool {
	return m.confirmed
}

// RunPresetSelector launches the interactive preset selector
func RunPresetSelector(family preset.Family, prefix, current string) (string, bool, error) {
	p := tea.NewProgram(NewPresetSelectorModel(family, prefix, current))

	finalModel, err := p.Run()
	if err != nil {
		return current, false, err
	}

	m := finalModel.(PresetSelectorModel)
	return m.GetSelected(), m.IsConfirmed(), nil
}
