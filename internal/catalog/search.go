package catalog

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/at-ishikawa/offlinedict/internal/dictionary"
)

// AllCategories disables the category filter.
const AllCategories = "All"

// Membership is a set of entry ids, e.g. bookmarks.
type Membership interface {
	Contains(id string) bool
}

// Search returns the entries whose term or either translation contains query, ignoring case.
// An empty query matches every entry.
func (s *Store) Search(query string) dictionary.Collection {
	return s.SearchInCategory(query, "")
}

// SearchInCategory is Search restricted to a category. An empty category or AllCategories matches every category.
func (s *Store) SearchInCategory(query string, category string) dictionary.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// A Caser is stateful and cannot be shared between goroutines.
	caser := cases.Fold()
	folded := caser.String(query)

	result := make(dictionary.Collection, 0)
	for _, entry := range s.lastGood {
		if category != "" && category != AllCategories && entry.Category != category {
			continue
		}
		if matches(caser, entry, folded) {
			result = append(result, entry)
		}
	}
	return result
}

func matches(caser cases.Caser, entry dictionary.DictionaryEntry, foldedQuery string) bool {
	if foldedQuery == "" {
		return true
	}
	for _, field := range entry.SearchableFields() {
		if strings.Contains(caser.String(field), foldedQuery) {
			return true
		}
	}
	return false
}

// Bookmarked returns the entries in ids, in snapshot order. Ids without an entry are ignored.
func (s *Store) Bookmarked(ids Membership) dictionary.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(dictionary.Collection, 0)
	for _, entry := range s.lastGood {
		if ids.Contains(entry.ID) {
			result = append(result, entry)
		}
	}
	return result
}
