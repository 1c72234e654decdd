package marketplace

// Index represents the plugins-index.json document served by a source
type Index struct {
	Shell   ShellRelease `json:"shell"`
	Plugins []Record     `json:"plugins"`
}

// ShellRelease describes the latest shell binary published by a source
type ShellRelease struct {
	Version   string `json:"version"`
	Path      string `json:"path"`      // relative to the source base URL
	Changelog string `json:"changelog,omitempty"`
}

// Record represents one plugin entry in the index
type Record struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	LocalPath   string `json:"local_path"` // file name under <data>/scripts
	Path        string `json:"path"`       // relative to the source base URL
	Version     string `json:"version"`
	Author      string `json:"author,omitempty"`
}

// PageSize is the number of plugins per page in the context menu store.
const PageSize = 10

// FindPlugin finds a plugin by name in the index
func (idx *Index) FindPlugin(name string) *Record {
	for i := range idx.Plugins {
		if idx.Plugins[i].Name == name {
			return &idx.Plugins[i]
		}
	}
	return nil
}

// Page returns the 1-based page of plugins with size entries per page.
// Out-of-range pages are empty.
func (idx *Index) Page(page, size int) []Record {
	if page < 1 || size < 1 {
		return nil
	}
	start := (page - 1) * size
	if start >= len(idx.Plugins) {
		return nil
	}
	end := min(start+size, len(idx.Plugins))
	return idx.Plugins[start:end]
}

// PageCount returns the number of pages of size entries.
func (idx *Index) PageCount(size int) int {
	if size < 1 {
		return 0
	}
	return (len(idx.Plugins) + size - 1) / size
}
