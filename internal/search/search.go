// Package search filters items that are already loaded. It never talks to the
// server; a screen filters what its controller has fetched so far.
package search

import (
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/palmgate/palmgate/internal/domain"
)

// Match is a ranked filter hit.
type Match struct {
	Item           domain.ListItem
	Index          int   // position in the input slice
	MatchedIndexes []int // byte offsets in the lowercased title, for highlighting
	Score          int   // higher is better
}

// Index implements sahilm/fuzzy.Source over item titles
type Index struct {
	items       []domain.ListItem
	lowerTitles []string
}

// NewIndex pre-computes lowercase titles for items.
func NewIndex(items []domain.ListItem) *Index {
	idx := &Index{
		items:       items,
		lowerTitles: make([]string, len(items)),
	}
	for i, item := range items {
		idx.lowerTitles[i] = strings.ToLower(item.GetTitle())
	}
	return idx
}

// String returns the lowercase title at index i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerTitles[i] }

// Len returns the number of items (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.items) }

// Filter ranks items against query, best first. An empty query matches every
// item in its original order.
func Filter(query string, items []domain.ListItem) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]Match, len(items))
		for i, item := range items {
			out[i] = Match{Item: item, Index: i}
		}
		return out
	}

	idx := NewIndex(items)
	found := fuzzy.FindFrom(query, idx)
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{
			Item:           items[m.Index],
			Index:          m.Index,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// Grep keeps items whose columns contain query as a fuzzy subsequence,
// ignoring case and diacritics. Order is preserved.
func Grep(query string, items []domain.ListItem) []domain.ListItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}
	var out []domain.ListItem
	for _, item := range items {
		if fuzzysearch.MatchNormalizedFold(query, strings.Join(item.Columns(), " ")) {
			out = append(out, item)
		}
	}
	return out
}
