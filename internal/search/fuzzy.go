// Package search finds plugins in a source index by name, description or
// author.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/egoavara/shellconf/internal/marketplace"
)

// SearchResult represents a search result
type SearchResult struct {
	Plugin marketplace.Record
	Index  int // position in the index
	Score  int // Higher is better
}

// PluginSearchable wraps index records for fuzzy searching
type PluginSearchable []marketplace.Record

// String returns the searchable string for a plugin
func (p PluginSearchable) String(i int) string {
	rec := p[i]
	parts := []string{rec.Name}
	if rec.Description != "" {
		parts = append(parts, rec.Description)
	}
	if rec.Author != "" {
		parts = append(parts, rec.Author)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Len returns the number of plugins
func (p PluginSearchable) Len() int {
	return len(p)
}

// FuzzySearch ranks the plugins of idx against query, best first. Ties keep
// index order. An empty query returns every plugin.
func FuzzySearch(idx *marketplace.Index, query string) []SearchResult {
	if idx == nil {
		return nil
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all(idx)
	}

	matches := fuzzy.FindFrom(query, PluginSearchable(idx.Plugins))
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			Plugin: idx.Plugins[m.Index],
			Index:  m.Index,
			Score:  m.Score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})
	return results
}

// SimpleSearch returns the plugins whose name, description or author
// contains query, in index order.
func SimpleSearch(idx *marketplace.Index, query string) []SearchResult {
	if idx == nil {
		return nil
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all(idx)
	}

	var results []SearchResult
	for i, rec := range idx.Plugins {
		if matchesQuery(rec, query) {
			results = append(results, SearchResult{Plugin: rec, Index: i, Score: 100})
		}
	}
	return results
}

func all(idx *marketplace.Index) []SearchResult {
	results := make([]SearchResult, len(idx.Plugins))
	for i, rec := range idx.Plugins {
		results[i] = SearchResult{Plugin: rec, Index: i}
	}
	return results
}

// matchesQuery checks if a plugin matches the search query
func matchesQuery(rec marketplace.Record, query string) bool {
	for _, field := range []string{rec.Name, rec.Description, rec.Author} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
