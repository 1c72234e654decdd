package marketplace

import (
	"errors"
	"strings"
)

// ErrUnknownSource is returned when a source name is not registered.
var ErrUnknownSource = errors.New("unknown plugin source")

// DefaultSource is the source used when none is selected.
const DefaultSource = "Enlysure"

// Source is a named remote index location. BaseURL always ends with "/".
type Source struct {
	Name    string
	BaseURL string
}

// Sources lists the built-in plugin sources in display order.
var Sources = []Source{
	{Name: "Enlysure", BaseURL: "https://breeze.enlysure.com/"},
	{Name: "Enlysure Shanghai", BaseURL: "https://breeze-c.enlysure.com/"},
	{Name: "Github Raw", BaseURL: "https://raw.githubusercontent.com/breeze-shell/plugins-packed/refs/heads/main/"},
}

// LookupSource returns the source registered under name.
func LookupSource(name string) (Source, error) {
	for _, s := range Sources {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, ErrUnknownSource
}

// SourceNames returns the names of every built-in source.
func SourceNames() []string {
	names := make([]string, len(Sources))
	for i, s := range Sources {
		names[i] = s.Name
	}
	return names
}

// ResolveURL joins a source base URL and an index-relative path.
func ResolveURL(baseURL, rel string) string {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + strings.TrimPrefix(rel, "/")
}

// IndexURL returns the plugins-index.json URL of a source.
func IndexURL(baseURL string) string {
	return ResolveURL(baseURL, IndexFile)
}

// IndexFile is the index document name under a source base URL.
const IndexFile = "plugins-index.json"
