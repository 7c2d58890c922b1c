package messages

import (
	"html"
	"strconv"
	"strings"
)

type param struct {
	value string
	raw   bool
}

// Message is one interface message bound to a language and its parameters.
// Builder methods return a modified copy.
type Message struct {
	catalog *Catalog
	key     string
	lang    Language
	params  []param
}

// Key returns the message key
func (m *Message) Key() string {
	return m.key
}

func (m *Message) clone() *Message {
	c := *m
	c.params = append([]param(nil), m.params...)
	return &c
}

// Params appends plain parameters. They are treated as wikitext and escaped on output.
func (m *Message) Params(values ...string) *Message {
	c := m.clone()
	for _, v := range values {
		c.params = append(c.params, param{value: v})
	}
	return c
}

// RawParams appends parameters that are inserted after parsing or escaping, as-is
func (m *Message) RawParams(values ...string) *Message {
	c := m.clone()
	for _, v := range values {
		c.params = append(c.params, param{value: v, raw: true})
	}
	return c
}

// InLanguage rebinds the message to another language
func (m *Message) InLanguage(lang Language) *Message {
	c := m.clone()
	c.lang = lang
	return c
}

// InContentLanguage rebinds the message to the wiki's content language
func (m *Message) InContentLanguage() *Message {
	return m.InLanguage(m.catalog.ContentLanguage())
}

// Exists reports whether any language in the chain defines the key
func (m *Message) Exists() bool {
	_, ok := m.catalog.lookup(m.lang, m.key)
	return ok
}

// IsBlank reports whether the message is missing or empty
func (m *Message) IsBlank() bool {
	text, ok := m.catalog.lookup(m.lang, m.key)
	return !ok || text == ""
}

// IsDisabled reports whether the message is blank or set to "-"
func (m *Message) IsDisabled() bool {
	text, ok := m.catalog.lookup(m.lang, m.key)
	return !ok || text == "" || text == "-"
}

// Plain returns the unexpanded text with parameters substituted
func (m *Message) Plain() string {
	text, ok := m.catalog.lookup(m.lang, m.key)
	if !ok {
		return m.missing()
	}
	return m.substitute(text, false)
}

// Text returns the message with parameters and templates expanded.
// Links stay as wikitext and nothing is escaped.
func (m *Message) Text() string {
	text, ok := m.catalog.lookup(m.lang, m.key)
	if !ok {
		return m.missing()
	}
	return m.catalog.expandTemplates(m.lang, m.substitute(text, false))
}

// Escaped returns Text with HTML special characters escaped. Raw parameters are not escaped.
func (m *Message) Escaped() string {
	text, ok := m.catalog.lookup(m.lang, m.key)
	if !ok {
		return html.EscapeString(m.missing())
	}
	out := html.EscapeString(m.catalog.expandTemplates(m.lang, m.substitute(text, true)))
	return m.fillRaw(out)
}

// Parse renders the message as HTML. Raw parameters are inserted unescaped.
func (m *Message) Parse() string {
	text, ok := m.catalog.lookup(m.lang, m.key)
	if !ok {
		return html.EscapeString(m.missing())
	}
	expanded := m.catalog.expandTemplates(m.lang, m.substitute(text, true))
	return m.fillRaw(m.catalog.renderWikitext(expanded))
}

func (m *Message) missing() string {
	return "⧼" + m.key + "⧽"
}

// substitute replaces $1..$n. With placeholders set, raw parameters become
// markers that fillRaw swaps back after escaping.
func (m *Message) substitute(text string, placeholders bool) string {
	if len(m.params) == 0 || !strings.Contains(text, "$") {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '$' {
			b.WriteByte(text[i])
			continue
		}
		j := i + 1
		for j < len(text) && text[j] >= '0' && text[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			continue
		}
		n, err := strconv.Atoi(text[i+1 : j])
		if err != nil || n < 1 || n > len(m.params) {
			b.WriteString(text[i:j])
			i = j - 1
			continue
		}
		p := m.params[n-1]
		if p.raw && placeholders {
			b.WriteString(rawMarker(n - 1))
		} else {
			b.WriteString(p.value)
		}
		i = j - 1
	}
	return b.String()
}

func rawMarker(i int) string {
	return "\x7fRAW" + strconv.Itoa(i) + "\x7f"
}

func (m *Message) fillRaw(s string) string {
	if !strings.Contains(s, "\x7f") {
		return s
	}
	for i, p := range m.params {
		if p.raw {
			s = strings.ReplaceAll(s, rawMarker(i), p.value)
		}
	}
	return s
}
