// Package linker parses page titles and renders internal wiki links
package linker

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Canonical namespace names
const (
	NSMain     = ""
	NSTalk     = "Talk"
	NSUser     = "User"
	NSProject  = "Project"
	NSFile     = "File"
	NSSpecial  = "Special"
	NSTemplate = "Template"
	NSHelp     = "Help"
	NSCategory = "Category"
	NSMessages = "MediaWiki"
)

// MaxTitleLength is the longest allowed title key in bytes
const MaxTitleLength = 255

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidTitle  = errors.New("title contains illegal characters")
	ErrTitleTooLong  = errors.New("title too long")
	ErrRelativeTitle = errors.New("relative titles are not allowed")
)

var namespaceNames = map[string]string{
	"talk":      NSTalk,
	"user":      NSUser,
	"project":   NSProject,
	"file":      NSFile,
	"image":     NSFile,
	"special":   NSSpecial,
	"template":  NSTemplate,
	"help":      NSHelp,
	"category":  NSCategory,
	"mediawiki": NSMessages,
}

// Title is a normalized page name: namespace plus DB key (spaces as underscores)
type Title struct {
	Namespace string
	DBKey     string
}

// ParseTitle normalizes user text into a Title.
// Empty titles and the characters # < > [ ] | { } as well as control
// characters are rejected. Only canonical namespace names are recognized;
// Linker.ParseTitle also knows the site's project namespace name.
func ParseTitle(text string) (Title, error) {
	return parseTitle(text, "")
}

// parseTitle resolves projectName (spaces, not underscores) as an alias of NSProject
func parseTitle(text, projectName string) (Title, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "_", " "))
	if text == "" {
		return Title{}, ErrEmptyTitle
	}
	if !utf8.ValidString(text) {
		return Title{}, ErrInvalidTitle
	}
	for _, r := range text {
		if unicode.IsControl(r) || strings.ContainsRune("#<>[]|{}", r) {
			return Title{}, ErrInvalidTitle
		}
	}

	t := Title{}
	if i := strings.Index(text, ":"); i > 0 {
		prefix := strings.ToLower(strings.TrimSpace(text[:i]))
		if ns, ok := namespaceNames[prefix]; ok {
			t.Namespace = ns
			text = strings.TrimSpace(text[i+1:])
		} else if projectName != "" && prefix == strings.ToLower(projectName) {
			t.Namespace = NSProject
			text = strings.TrimSpace(text[i+1:])
		}
	}
	if text == "" {
		return Title{}, ErrEmptyTitle
	}
	if text == "." || text == ".." || strings.HasPrefix(text, "./") || strings.HasPrefix(text, "../") ||
		strings.Contains(text, "/./") || strings.Contains(text, "/../") {
		return Title{}, ErrRelativeTitle
	}

	key := collapseSpaces(text)
	key = upperFirst(key)
	key = strings.ReplaceAll(key, " ", "_")
	if len(key) > MaxTitleLength {
		return Title{}, ErrTitleTooLong
	}
	t.DBKey = key
	return t, nil
}

// MustParseTitle is ParseTitle for constant input; it panics on error
func MustParseTitle(text string) Title {
	t, err := ParseTitle(text)
	if err != nil {
		panic("linker: invalid title " + text + ": " + err.Error())
	}
	return t
}

// SpecialPage returns the title of a special page, e.g. SpecialPage("AllPages")
func SpecialPage(name string) Title {
	return Title{Namespace: NSSpecial, DBKey: strings.ReplaceAll(upperFirst(name), " ", "_")}
}

// IsSpecial reports whether the title is in the Special namespace
func (t Title) IsSpecial() bool {
	return t.Namespace == NSSpecial
}

// PrefixedDBKey returns "Namespace:Key" with underscores
func (t Title) PrefixedDBKey() string {
	if t.Namespace == NSMain {
		return t.DBKey
	}
	return t.Namespace + ":" + t.DBKey
}

// PrefixedText returns "Namespace:Key" with spaces
func (t Title) PrefixedText() string {
	return strings.ReplaceAll(t.PrefixedDBKey(), "_", " ")
}

// Text returns the key without namespace, with spaces
func (t Title) Text() string {
	return strings.ReplaceAll(t.DBKey, "_", " ")
}

func (t Title) String() string {
	return t.PrefixedText()
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
