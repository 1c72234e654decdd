// Package i18n resolves UI strings for the settings surfaces and for plugins.
//
// Core strings come from <lang>.json locale files. Lookups try the current
// language, then strings registered by plugins for that language, then
// en-US, and finally return the key itself. Plugins may add keys but never
// replace a core key. Strings use {param} placeholders; a placeholder without
// a matching parameter is left as is.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/egoavara/shellconf/internal/logging"
)

// Fallback is the language every lookup falls back to.
const Fallback = "en-US"

const metadataPrefix = "$metadata"

// DirectionKey holds "rtl" for right-to-left locales.
const DirectionKey = metadataPrefix + ".direction"

var placeholder = regexp.MustCompile(`\{([\w.-]+)\}`)

// Catalog holds core and plugin translations for every loaded language.
type Catalog struct {
	mu         sync.RWMutex
	bundle     *i18n.Bundle
	localizers map[string]*i18n.Localizer
	core       map[string]map[string]struct{} // lang -> keys present in its locale file
	coreKeys   map[string]struct{}
	metadata   map[string]map[string]string
	plugin     map[string]map[string]string
	lang       string
	logger     *zap.Logger
}

// NewCatalog creates an empty catalog with en-US selected.
func NewCatalog(logger *zap.Logger) *Catalog {
	bundle := i18n.NewBundle(language.MustParse(Fallback))
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	return &Catalog{
		bundle:     bundle,
		localizers: make(map[string]*i18n.Localizer),
		core:       make(map[string]map[string]struct{}),
		coreKeys:   make(map[string]struct{}),
		metadata:   make(map[string]map[string]string),
		plugin:     make(map[string]map[string]string),
		lang:       Fallback,
		logger:     logging.OrNop(logger),
	}
}

// LoadFS loads every <lang>.json file in dir of fsys as a core locale.
// Unreadable or malformed files are logged and skipped.
func (c *Catalog) LoadFS(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read locales: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		p := path.Join(dir, e.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			c.logger.Warn("failed to read locale file", zap.String("path", p), zap.Error(err))
			continue
		}
		if err := c.LoadLocale(strings.TrimSuffix(e.Name(), ".json"), data); err != nil {
			c.logger.Warn("failed to parse locale file", zap.String("path", p), zap.Error(err))
		}
	}
	return nil
}

// LoadLocale loads one core locale file for lang. Keys outside $metadata
// become core keys that plugins cannot override.
func (c *Catalog) LoadLocale(lang string, data []byte) error {
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	messages := make(map[string]string, len(flat))
	meta := make(map[string]string)
	for k, v := range flat {
		if strings.HasPrefix(k, metadataPrefix) {
			meta[k] = v
			continue
		}
		messages[k] = v
	}
	body, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	mf, err := c.bundle.ParseMessageFileBytes(body, lang+".json")
	if err != nil {
		return err
	}

	keys := c.core[lang]
	if keys == nil {
		keys = make(map[string]struct{}, len(mf.Messages))
		c.core[lang] = keys
	}
	for _, m := range mf.Messages {
		keys[m.ID] = struct{}{}
		c.coreKeys[m.ID] = struct{}{}
	}
	if c.metadata[lang] == nil {
		c.metadata[lang] = meta
	} else {
		for k, v := range meta {
			c.metadata[lang][k] = v
		}
	}
	c.localizers[lang] = i18n.NewLocalizer(c.bundle, lang)
	return nil
}

// LoadPluginLocales loads <plugin>/<lang>.json files from fsys (usually
// <data>/locales/plugins) as plugin translations.
func (c *Catalog) LoadPluginLocales(fsys fs.FS) {
	plugins, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return
	}
	for _, p := range plugins {
		if !p.IsDir() {
			continue
		}
		files, err := fs.ReadDir(fsys, p.Name())
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || path.Ext(f.Name()) != ".json" {
				continue
			}
			data, err := fs.ReadFile(fsys, path.Join(p.Name(), f.Name()))
			if err != nil {
				continue
			}
			var flat map[string]string
			if err := json.Unmarshal(data, &flat); err != nil {
				c.logger.Warn("failed to parse plugin locale file",
					zap.String("plugin", p.Name()), zap.String("file", f.Name()), zap.Error(err))
				continue
			}
			for k := range flat {
				if strings.HasPrefix(k, metadataPrefix) {
					delete(flat, k)
				}
			}
			c.RegisterTranslations(strings.TrimSuffix(f.Name(), ".json"), flat)
		}
	}
}

// RegisterTranslations adds plugin strings for lang. Keys that collide with
// a core key are skipped and returned.
func (c *Catalog) RegisterTranslations(lang string, translations map[string]string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var skipped []string
	for k, v := range translations {
		if _, core := c.coreKeys[k]; core {
			skipped = append(skipped, k)
			continue
		}
		if c.plugin[lang] == nil {
			c.plugin[lang] = make(map[string]string)
		}
		c.plugin[lang][k] = v
	}
	sort.Strings(skipped)
	for _, k := range skipped {
		c.logger.Warn("plugin attempted to override core translation key", zap.String("key", k))
	}
	return skipped
}

// SetLanguage selects the current language.
func (c *Catalog) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lang = lang
}

// Language returns the current language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// AvailableLanguages lists the languages with a core locale, sorted.
func (c *Catalog) AvailableLanguages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	langs := make([]string, 0, len(c.core))
	for lang := range c.core {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// IsRTL reports whether the current language is written right to left.
func (c *Catalog) IsRTL() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadata[c.lang][DirectionKey] == "rtl"
}

// Lookup returns the raw string for key without interpolation.
func (c *Catalog) Lookup(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.localize(c.lang, key); ok {
		return s
	}
	if s, ok := c.plugin[c.lang][key]; ok {
		return s
	}
	if c.lang != Fallback {
		if s, ok := c.localize(Fallback, key); ok {
			return s
		}
	}
	return key
}

func (c *Catalog) localize(lang, key string) (string, bool) {
	if _, ok := c.core[lang][key]; !ok {
		return "", false
	}
	loc := c.localizers[lang]
	if loc == nil {
		return "", false
	}
	s, err := loc.Localize(&i18n.LocalizeConfig{MessageID: key})
	if err != nil {
		return "", false
	}
	return s, true
}

// T looks key up and fills its {param} placeholders.
func (c *Catalog) T(key string, params map[string]any) string {
	return Interpolate(c.Lookup(key), params)
}

// Interpolate replaces {name} placeholders with params[name]. Placeholders
// without a parameter stay intact.
func Interpolate(s string, params map[string]any) string {
	if len(params) == 0 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		v, ok := params[m[1:len(m)-1]]
		if !ok {
			return m
		}
		return fmt.Sprint(v)
	})
}

// Resolve picks the loaded language that best matches the preferences in
// order, falling back to en-US.
func (c *Catalog) Resolve(preferred ...string) string {
	available := c.AvailableLanguages()
	if len(available) == 0 {
		return Fallback
	}

	for _, p := range preferred {
		for _, a := range available {
			if strings.EqualFold(p, a) {
				return a
			}
		}
	}

	tags := make([]language.Tag, 0, len(available))
	for _, a := range available {
		tags = append(tags, language.Make(a))
	}
	matcher := language.NewMatcher(tags)
	for _, p := range preferred {
		if p == "" {
			continue
		}
		_, idx, conf := matcher.Match(language.Make(p))
		if conf >= language.High {
			return available[idx]
		}
	}
	return Fallback
}
