package messages

import (
	"html"
	"regexp"
	"strings"

	"github.com/go-while/go-pugwiki/internal/linker"
)

const maxTemplatePasses = 8

var (
	templateRe     = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	internalLinkRe = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|([^\[\]]*))?\]\]`)
)

var canonicalNamespaces = map[string]string{
	"-1":        linker.NSSpecial,
	"special":   linker.NSSpecial,
	"0":         "",
	"1":         linker.NSTalk,
	"talk":      linker.NSTalk,
	"2":         linker.NSUser,
	"user":      linker.NSUser,
	"6":         linker.NSFile,
	"file":      linker.NSFile,
	"8":         linker.NSMessages,
	"mediawiki": linker.NSMessages,
	"10":        linker.NSTemplate,
	"template":  linker.NSTemplate,
	"12":        linker.NSHelp,
	"help":      linker.NSHelp,
	"14":        linker.NSCategory,
	"category":  linker.NSCategory,
}

// expandTemplates replaces the magic words messages may use, innermost first.
// Unknown templates are left in place.
func (c *Catalog) expandTemplates(lang Language, text string) string {
	for pass := 0; pass < maxTemplatePasses && strings.Contains(text, "{{"); pass++ {
		changed := false
		text = templateRe.ReplaceAllStringFunc(text, func(match string) string {
			inner := match[2 : len(match)-2]
			if out, ok := c.expandTemplate(lang, inner); ok {
				changed = true
				return out
			}
			return match
		})
		if !changed {
			break
		}
	}
	return text
}

func (c *Catalog) expandTemplate(lang Language, inner string) (string, bool) {
	name, arg, hasArg := strings.Cut(inner, ":")
	name = strings.TrimSpace(name)
	switch {
	case !hasArg && strings.EqualFold(name, "SITENAME"):
		return c.site.SiteName, true
	case hasArg && strings.EqualFold(name, "ns"):
		key := strings.ToLower(strings.TrimSpace(arg))
		if key == "project" || key == "4" {
			return c.site.ProjectNamespace, true
		}
		if ns, ok := canonicalNamespaces[key]; ok {
			return ns, true
		}
		return "", true
	case hasArg && strings.EqualFold(name, "PLURAL"):
		parts := strings.Split(arg, "|")
		if len(parts) < 2 {
			return "", true
		}
		n, ok := parseLocalizedInt(strings.TrimSpace(parts[0]))
		if !ok {
			n = 0
		}
		forms := parts[1:]
		return forms[lang.pluralIndex(n, len(forms))], true
	}
	return "", false
}

// renderWikitext turns expanded message text into HTML: plain text is
// escaped and [[Target|label]] becomes a link.
func (c *Catalog) renderWikitext(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range internalLinkRe.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		last = loc[1]

		target := text[loc[2]:loc[3]]
		label := strings.TrimPrefix(strings.TrimSpace(target), ":")
		if loc[4] >= 0 {
			label = text[loc[4]:loc[5]]
		}
		title, err := c.linker.ParseTitle(strings.TrimPrefix(strings.TrimSpace(target), ":"))
		if err != nil {
			b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
			continue
		}
		b.WriteString(c.linker.LinkKnown(title, html.EscapeString(label), nil))
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}
