// Package dictionary provides the dictionary entry model shared by the feed reader, the catalog, and the shells.
package dictionary

// DictionaryEntry is one record of the word list.
// Entries are immutable once fetched and are replaced wholesale on every sync.
type DictionaryEntry struct {
	ID                   string `json:"id" yaml:"id"`
	PrimaryTerm          string `json:"primary_term" yaml:"primary_term"`
	PrimaryPronunciation string `json:"primary_pronunciation" yaml:"primary_pronunciation"`
	TranslationA         string `json:"translation_a" yaml:"translation_a"`
	TranslationB         string `json:"translation_b" yaml:"translation_b"`
	Category             string `json:"category" yaml:"category"`
}

// SearchableFields returns the text fields a search query is matched against.
func (e DictionaryEntry) SearchableFields() []string {
	return []string{e.PrimaryTerm, e.TranslationA, e.TranslationB}
}

// Collection keeps the entries in source order. IDs are trusted from the source.
type Collection []DictionaryEntry

// IDs returns the entry ids in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, e := range c {
		ids = append(ids, e.ID)
	}
	return ids
}

// Find returns the first entry with the id.
func (c Collection) Find(id string) (DictionaryEntry, bool) {
	for _, e := range c {
		if e.ID == id {
			return e, true
		}
	}
	return DictionaryEntry{}, false
}

// Clone returns a copy that does not share the backing array.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	cloned := make(Collection, len(c))
	copy(cloned, c)
	return cloned
}
