package models

// LegacyStatsHeader is the header message used for extension rows that do not
// come with their own section
const LegacyStatsHeader = "statistics-header-hooks"

// ExtraStatItem is one extension-provided statistics row.
// Key is a message key: it labels the row unless Name is set and it forms
// the row id "mw-<Key>". Name is caller-provided HTML and is sanitized
// before rendering. Number is rendered escaped and localized.
type ExtraStatItem struct {
	Key    string
	Name   string
	Number interface{}
}

// Named reports whether the item brings its own label
func (i ExtraStatItem) Named() bool {
	return i.Name != ""
}

// ExtraStatEntry is either a section (Header plus Items) or a legacy flat item
type ExtraStatEntry struct {
	Header string
	Items  []ExtraStatItem
	Legacy *ExtraStatItem
}

// IsLegacy reports whether the entry is a flat item without its own header
func (e ExtraStatEntry) IsLegacy() bool {
	return e.Legacy != nil
}

// ExtraStats collects statistics contributed by extensions, in insertion order
type ExtraStats struct {
	Entries []ExtraStatEntry
}

// AddSection appends a section with its own header message.
// Adding to an existing header appends to that section instead.
func (e *ExtraStats) AddSection(header string, items ...ExtraStatItem) {
	for i := range e.Entries {
		if !e.Entries[i].IsLegacy() && e.Entries[i].Header == header {
			e.Entries[i].Items = append(e.Entries[i].Items, items...)
			return
		}
	}
	e.Entries = append(e.Entries, ExtraStatEntry{Header: header, Items: items})
}

// AddItem sets a legacy flat item labelled by the message key.
// Setting a key that is already present replaces its number in place.
func (e *ExtraStats) AddItem(key string, number interface{}) {
	for i := range e.Entries {
		if e.Entries[i].IsLegacy() && e.Entries[i].Legacy.Key == key {
			e.Entries[i].Legacy.Number = number
			return
		}
	}
	e.Entries = append(e.Entries, ExtraStatEntry{Legacy: &ExtraStatItem{Key: key, Number: number}})
}

// Len returns the number of entries
func (e *ExtraStats) Len() int {
	return len(e.Entries)
}

// KeyedItem is a row labelled by the parsed message key
func KeyedItem(key string, number interface{}) ExtraStatItem {
	return ExtraStatItem{Key: key, Number: number}
}

// NamedItem is a row labelled by caller-provided HTML
func NamedItem(key, nameHTML string, number interface{}) ExtraStatItem {
	return ExtraStatItem{Key: key, Name: nameHTML, Number: number}
}
