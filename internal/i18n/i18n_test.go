package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"locales/en-US.json": {Data: []byte(`{
			"$metadata.direction": "ltr",
			"menu.settings": "Settings",
			"plugins.install_success": "Installed {name}",
			"only.english": "English only"
		}`)},
		"locales/zh-CN.json": {Data: []byte(`{
			"menu.settings": "设置"
		}`)},
		"locales/ar-SA.json": {Data: []byte(`{
			"$metadata.direction": "rtl",
			"menu.settings": "الإعدادات"
		}`)},
		"locales/broken.json": {Data: []byte(`{not json`)},
		"locales/readme.txt":  {Data: []byte(`ignored`)},
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog(nil)
	require.NoError(t, c.LoadFS(testFS(), "locales"))
	return c
}

func TestCatalog_AvailableLanguages(t *testing.T) {
	c := newTestCatalog(t)
	assert.Equal(t, []string{"ar-SA", "en-US", "zh-CN"}, c.AvailableLanguages())
}

func TestCatalog_LoadFSMissingDir(t *testing.T) {
	c := NewCatalog(nil)
	assert.Error(t, c.LoadFS(fstest.MapFS{}, "locales"))
}

func TestCatalog_LookupOrder(t *testing.T) {
	c := newTestCatalog(t)
	c.RegisterTranslations("zh-CN", map[string]string{"my.plugin.hello": "你好"})
	c.RegisterTranslations("en-US", map[string]string{
		"my.plugin.hello": "Hello",
		"my.plugin.bye":   "Bye",
	})

	c.SetLanguage("zh-CN")
	assert.Equal(t, "设置", c.T("menu.settings", nil))
	assert.Equal(t, "你好", c.T("my.plugin.hello", nil))
	assert.Equal(t, "English only", c.T("only.english", nil))
	assert.Equal(t, "missing.key", c.T("missing.key", nil))

	// Plugin strings of en-US are not part of the fallback chain.
	assert.Equal(t, "my.plugin.bye", c.T("my.plugin.bye", nil))

	c.SetLanguage("en-US")
	assert.Equal(t, "Settings", c.T("menu.settings", nil))
	assert.Equal(t, "Bye", c.T("my.plugin.bye", nil))
}

func TestCatalog_CoreKeysProtected(t *testing.T) {
	c := newTestCatalog(t)

	skipped := c.RegisterTranslations("en-US", map[string]string{
		"menu.settings": "Hijacked",
		"custom.key":    "Custom",
	})

	assert.Equal(t, []string{"menu.settings"}, skipped)
	assert.Equal(t, "Settings", c.T("menu.settings", nil))
	assert.Equal(t, "Custom", c.T("custom.key", nil))
}

func TestCatalog_CoreKeyFromAnyLanguageProtected(t *testing.T) {
	c := newTestCatalog(t)
	c.SetLanguage("zh-CN")

	skipped := c.RegisterTranslations("zh-CN", map[string]string{"only.english": "x"})
	assert.Equal(t, []string{"only.english"}, skipped)
	assert.Equal(t, "English only", c.T("only.english", nil))
}

func TestCatalog_Interpolation(t *testing.T) {
	c := newTestCatalog(t)
	assert.Equal(t, "Installed demo.js", c.T("plugins.install_success", map[string]any{"name": "demo.js"}))
	assert.Equal(t, "Installed {name}", c.T("plugins.install_success", nil))
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		params map[string]any
		want   string
	}{
		{"no params", "Hello {name}", nil, "Hello {name}"},
		{"single", "Hello {name}", map[string]any{"name": "Ann"}, "Hello Ann"},
		{"missing stays", "{a} and {b}", map[string]any{"a": 1}, "1 and {b}"},
		{"dotted and dashed", "{user.first-name}", map[string]any{"user.first-name": "Bo"}, "Bo"},
		{"not a placeholder", "{with space}", map[string]any{"with space": "x"}, "{with space}"},
		{"repeated", "{x}{x}", map[string]any{"x": "y"}, "yy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpolate(tt.in, tt.params))
		})
	}
}

func TestCatalog_IsRTL(t *testing.T) {
	c := newTestCatalog(t)
	assert.False(t, c.IsRTL())

	c.SetLanguage("ar-SA")
	assert.True(t, c.IsRTL())

	c.SetLanguage("zh-CN")
	assert.False(t, c.IsRTL())
}

func TestCatalog_Resolve(t *testing.T) {
	c := newTestCatalog(t)

	tests := []struct {
		name      string
		preferred []string
		want      string
	}{
		{"configured wins", []string{"zh-CN", "en-US"}, "zh-CN"},
		{"case insensitive", []string{"zh-cn"}, "zh-CN"},
		{"empty configured falls to system", []string{"", "ar-SA"}, "ar-SA"},
		{"unknown falls back", []string{"fr-FR"}, Fallback},
		{"nothing", nil, Fallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(tt.preferred...))
		})
	}
}

func TestCatalog_LoadPluginLocales(t *testing.T) {
	c := newTestCatalog(t)
	c.LoadPluginLocales(fstest.MapFS{
		"demo/en-US.json":  {Data: []byte(`{"demo.greet": "Hi {who}", "menu.settings": "nope"}`)},
		"demo/zh-CN.json":  {Data: []byte(`{"demo.greet": "嗨 {who}"}`)},
		"other/en-US.json": {Data: []byte(`broken`)},
		"stray-file.json":  {Data: []byte(`{}`)},
	})

	assert.Equal(t, "Hi you", c.T("demo.greet", map[string]any{"who": "you"}))
	assert.Equal(t, "Settings", c.T("menu.settings", nil))

	c.SetLanguage("zh-CN")
	assert.Equal(t, "嗨 you", c.T("demo.greet", map[string]any{"who": "you"}))
}

func TestInit(t *testing.T) {
	prev := std
	t.Cleanup(func() { std = prev })

	require.NoError(t, Init(testFS(), "zh-CN", nil))
	assert.Equal(t, "设置", T("menu.settings", nil))

	SetLocale("de-DE")
	assert.Equal(t, Fallback, Default().Language())
	assert.False(t, IsRTL())
}
