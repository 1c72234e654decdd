package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egoavara/shellconf/internal/marketplace"
	"github.com/egoavara/shellconf/internal/preset"
	"github.com/egoavara/shellconf/internal/reconcile"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send[M tea.Model](t *testing.T, m M, keys ...string) M {
	t.Helper()
	var model tea.Model = m
	for _, k := range keys {
		model, _ = model.Update(key(k))
	}
	return model.(M)
}

func finderFixture() Model {
	idx := &marketplace.Index{Plugins: []marketplace.Record{
		{Name: "Alpha", Version: "1.0.0"},
		{Name: "Beta", Version: "2.0.0"},
		{Name: "Gamma", Version: "1.1.0"},
	}}
	statuses := map[string]reconcile.Status{
		"Beta":  {Installed: true, LocalVersion: "2.0.0"},
		"Gamma": {Installed: true, LocalVersion: "1.0.0", HasUpdate: true},
	}
	return NewModel(idx, statuses)
}

func TestPluginItem_MarkCycle(t *testing.T) {
	tests := []struct {
		name   string
		status reconcile.Status
		want   []Mark
	}{
		{"missing", reconcile.Status{}, []Mark{MarkInstall, MarkNone}},
		{"current", reconcile.Status{Installed: true}, []Mark{MarkDelete, MarkNone}},
		{"outdated", reconcile.Status{Installed: true, HasUpdate: true}, []Mark{MarkUpdate, MarkDelete, MarkNone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := PluginItem{Status: tt.status}
			for _, want := range tt.want {
				item.Mark = item.next()
				assert.Equal(t, want, item.Mark)
			}
		})
	}
}

func TestFinder_MarkAndConfirm(t *testing.T) {
	m := send(t, finderFixture(), "tab", "down", "tab", "down", "tab")
	assert.Equal(t, ModeList, m.mode)

	m = send(t, m, "enter")
	require.Equal(t, ModeConfirm, m.mode)
	assert.Contains(t, m.View(), "Alpha")

	m = send(t, m, "y")
	r := m.Result()
	assert.False(t, r.Cancelled)
	require.Len(t, r.ToInstall, 1)
	assert.Equal(t, "Alpha", r.ToInstall[0].Plugin.Name)
	require.Len(t, r.ToDelete, 1)
	assert.Equal(t, "Beta", r.ToDelete[0].Plugin.Name)
	require.Len(t, r.ToUpdate, 1)
	assert.Equal(t, "Gamma", r.ToUpdate[0].Plugin.Name)
}

func TestFinder_EnterWithoutChanges(t *testing.T) {
	m := send(t, finderFixture(), "enter")
	assert.Equal(t, ModeList, m.mode)
}

func TestFinder_ConfirmCanBeDeclined(t *testing.T) {
	m := send(t, finderFixture(), "tab", "enter", "n")
	assert.Equal(t, ModeList, m.mode)
	assert.True(t, m.Result().Cancelled)
}

func TestFinder_Filter(t *testing.T) {
	m := send(t, finderFixture(), "g", "a", "m")
	require.Len(t, m.filtered, 1)
	assert.Equal(t, "Gamma", m.items[m.filtered[0]].Plugin.Name)

	m = send(t, m, "tab")
	assert.Equal(t, MarkUpdate, m.items[2].Mark)

	m = send(t, m, "backspace", "backspace", "backspace")
	assert.Len(t, m.filtered, 3)

	m = send(t, m, "x", "esc")
	assert.Len(t, m.filtered, 3)
	assert.False(t, m.quitting)

	m = send(t, m, "esc")
	assert.True(t, m.quitting)
	assert.True(t, m.Result().Cancelled)
}

func TestPresetSelector(t *testing.T) {
	m := NewPresetSelectorModel(preset.ThemePresets, "theme.", "compact")
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.renderPreview(), `"item_height": 20`)

	m = send(t, m, "down", "enter")
	assert.True(t, m.IsConfirmed())
	assert.Equal(t, "relaxed", m.GetSelected())
}

func TestPresetSelector_Cancel(t *testing.T) {
	m := send(t, NewPresetSelectorModel(preset.AnimationPresets, "animation.", preset.Custom), "down", "esc")
	assert.False(t, m.IsConfirmed())
	assert.Equal(t, preset.Custom, m.GetSelected())
	assert.Empty(t, m.View())
}

func TestPresetValues(t *testing.T) {
	out := PresetValues(preset.Preset{Values: map[string]any{"b": 1.0, "a": 2.0}})
	assert.Equal(t, "{\n  \"a\": 2,\n  \"b\": 1\n}\n", out)
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		selected  bool
		confirmed bool
	}{
		{"enter defaults to yes", []string{"enter"}, true, true},
		{"down then enter", []string{"down", "enter"}, false, true},
		{"y", []string{"y"}, true, true},
		{"esc answers no", []string{"esc"}, false, true},
		{"q cancels", []string{"q"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := send(t, NewConfirmModel("Delete foo?", "foo.js"), tt.keys...)
			assert.Equal(t, tt.selected, m.GetSelected())
			assert.Equal(t, tt.confirmed, m.IsConfirmed())
		})
	}
}
