package messages

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Language is a user or content language with its number formatting rules
type Language struct {
	code    string
	tag     language.Tag
	printer *message.Printer
}

// NewLanguage parses a language code such as "en" or "de-AT".
// Unparseable codes fall back to English.
func NewLanguage(code string) Language {
	code = strings.ToLower(strings.TrimSpace(code))
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		code = fallbackLanguage
		tag = language.English
	}
	return Language{code: code, tag: tag, printer: message.NewPrinter(tag)}
}

// Code returns the language code as given
func (l Language) Code() string {
	if l.code == "" {
		return fallbackLanguage
	}
	return l.code
}

// IsZero reports whether the language was never set
func (l Language) IsZero() bool {
	return l.code == ""
}

// Tag returns the BCP 47 tag
func (l Language) Tag() language.Tag {
	return l.tag
}

// Base returns the base language code, "de" for "de-AT"
func (l Language) Base() string {
	base, _ := l.tag.Base()
	return base.String()
}

func (l Language) p() *message.Printer {
	if l.printer == nil {
		return message.NewPrinter(language.English)
	}
	return l.printer
}

// FormatNum renders a number with the language's digit grouping and decimal
// separator. Integers, floats and numeric strings are formatted; decimal
// places in strings are kept as given. Anything else is returned unchanged.
func (l Language) FormatNum(v interface{}) string {
	switch n := v.(type) {
	case int:
		return l.p().Sprintf("%d", n)
	case int32:
		return l.p().Sprintf("%d", n)
	case int64:
		return l.p().Sprintf("%d", n)
	case uint:
		return l.p().Sprintf("%d", n)
	case uint32:
		return l.p().Sprintf("%d", n)
	case uint64:
		return l.p().Sprintf("%d", n)
	case float32:
		return l.FormatNum(strconv.FormatFloat(float64(n), 'f', -1, 32))
	case float64:
		return l.FormatNum(strconv.FormatFloat(n, 'f', -1, 64))
	case string:
		return l.formatNumString(n)
	default:
		return l.p().Sprint(v)
	}
}

func (l Language) formatNumString(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return l.p().Sprintf("%d", i)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	decimals := 0
	if dot := strings.IndexByte(trimmed, '.'); dot >= 0 {
		decimals = len(trimmed) - dot - 1
		if e := strings.IndexAny(trimmed, "eE"); e > dot {
			decimals = e - dot - 1
		}
	}
	return l.p().Sprintf("%.*f", decimals, f)
}

// pluralIndex picks the form for n from a PLURAL list using CLDR cardinal rules.
// Forms are listed in CLDR order (one, few, many, other for most languages);
// only one and other are distinguished here, missing forms fall back to the last.
func (l Language) pluralIndex(n int, forms int) int {
	if forms <= 1 {
		return 0
	}
	if plural.Cardinal.MatchPlural(l.tag, n, 0, 0, 0, 0) == plural.One {
		return 0
	}
	return forms - 1
}

// parseLocalizedInt reads a number that may carry digit grouping, as produced by FormatNum
func parseLocalizedInt(s string) (int, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		case r == '.' || r == ',' || r == ' ' || r == '\u00a0' || r == '\u202f' || r == '\'':
			// group or decimal separators
		default:
			return 0, false
		}
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
