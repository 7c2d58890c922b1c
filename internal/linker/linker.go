package linker

import (
	"context"
	"html"
	"log"
	"net/url"
	"strings"
)

const (
	DefaultArticlePath = "/wiki/"
	DefaultScriptPath  = "/index.php"
)

// PageLookup tells the linker whether a page exists so missing pages get red links
type PageLookup interface {
	PageExists(ctx context.Context, namespace, dbKey string) (bool, error)
}

// Linker renders <a> elements for wiki titles
type Linker struct {
	ArticlePath string
	ScriptPath  string
	Pages       PageLookup

	// ProjectNamespace is the site's local name for NSProject, e.g. "PugWiki".
	// Titles are parsed with it as an alias and rendered with it as prefix.
	ProjectNamespace string
}

// New creates a linker with the default URL layout. pages may be nil,
// in which case every title is treated as existing.
func New(pages PageLookup) *Linker {
	return &Linker{
		ArticlePath: DefaultArticlePath,
		ScriptPath:  DefaultScriptPath,
		Pages:       pages,
	}
}

// ParseTitle is the package ParseTitle with ProjectNamespace resolved to NSProject
func (l *Linker) ParseTitle(text string) (Title, error) {
	return parseTitle(text, l.projectName())
}

func (l *Linker) projectName() string {
	if l.ProjectNamespace == "" || strings.EqualFold(l.ProjectNamespace, NSProject) {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(l.ProjectNamespace, "_", " "))
}

// PrefixedDBKey returns the title key with the local namespace name
func (l *Linker) PrefixedDBKey(t Title) string {
	if name := l.projectName(); name != "" && t.Namespace == NSProject {
		return strings.ReplaceAll(name, " ", "_") + ":" + t.DBKey
	}
	return t.PrefixedDBKey()
}

// PrefixedText is PrefixedDBKey with spaces
func (l *Linker) PrefixedText(t Title) string {
	return strings.ReplaceAll(l.PrefixedDBKey(t), "_", " ")
}

// URL returns the local URL of a title. Query parameters switch to the
// script path form: /index.php?title=X&key=value
func (l *Linker) URL(t Title, query url.Values) string {
	if len(query) == 0 {
		return l.ArticlePath + EncodeTitle(l.PrefixedDBKey(t))
	}
	return l.ScriptPath + "?title=" + EncodeTitle(l.PrefixedDBKey(t)) + "&" + query.Encode()
}

// LinkKnown renders a link without checking whether the target exists.
// textHTML is inserted as-is and must already be escaped.
func (l *Linker) LinkKnown(t Title, textHTML string, query url.Values) string {
	return `<a href="` + html.EscapeString(l.URL(t, query)) + `" title="` +
		html.EscapeString(l.PrefixedText(t)) + `">` + textHTML + `</a>`
}

// Link renders a link to t, or a red edit link when the page does not exist.
// Special pages are always treated as existing.
func (l *Linker) Link(ctx context.Context, t Title, textHTML string) string {
	if t.IsSpecial() || l.Pages == nil {
		return l.LinkKnown(t, textHTML, nil)
	}
	exists, err := l.Pages.PageExists(ctx, t.Namespace, t.DBKey)
	if err != nil {
		log.Printf("[LINKER]: page lookup for '%s' failed: %v", t.PrefixedDBKey(), err)
		return l.LinkKnown(t, textHTML, nil)
	}
	if exists {
		return l.LinkKnown(t, textHTML, nil)
	}
	return l.redLink(t, textHTML)
}

func (l *Linker) redLink(t Title, textHTML string) string {
	href := l.ScriptPath + "?title=" + EncodeTitle(l.PrefixedDBKey(t)) + "&action=edit&redlink=1"
	return `<a href="` + html.EscapeString(href) + `" class="new" title="` +
		html.EscapeString(l.PrefixedText(t)+" (page does not exist)") + `">` + textHTML + `</a>`
}

// EncodeTitle escapes a DB key for use in a URL, keeping ':' and '/' readable
func EncodeTitle(dbKey string) string {
	return strings.ReplaceAll(url.PathEscape(dbKey), "%2F", "/")
}
