// Package messages provides localized interface messages for wiki pages.
//
// Texts come from the built-in catalog, optionally replaced per site through
// the message_overrides table. Messages understand a small subset of wikitext:
// $1-style parameters, {{SITENAME}}, {{ns:...}}, {{PLURAL:n|one|other}} and
// [[Target|label]] internal links.
package messages

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-while/go-pugwiki/internal/linker"
	"github.com/go-while/go-pugwiki/internal/models"
)

// SiteInfo carries the site-wide values messages can refer to
type SiteInfo struct {
	SiteName         string
	ProjectNamespace string
	ContentLanguage  Language
}

// OverrideStore lists site-local message replacements
type OverrideStore interface {
	ListMessageOverrides(ctx context.Context) ([]*models.MessageOverride, error)
}

// Catalog resolves message keys to texts for a language
type Catalog struct {
	site      SiteInfo
	linker    *linker.Linker
	store     OverrideStore
	mux       sync.RWMutex
	overrides map[string]map[string]string // lang -> key -> text
}

// NewCatalog creates a catalog. lk renders internal links in parsed
// messages and store may be nil when no overrides are used.
func NewCatalog(site SiteInfo, lk *linker.Linker, store OverrideStore) *Catalog {
	if site.ProjectNamespace == "" {
		site.ProjectNamespace = linker.NSProject
	}
	if site.ContentLanguage.code == "" {
		site.ContentLanguage = NewLanguage(fallbackLanguage)
	}
	if lk == nil {
		lk = linker.New(nil)
	}
	return &Catalog{
		site:      site,
		linker:    lk,
		store:     store,
		overrides: make(map[string]map[string]string),
	}
}

// Site returns the site values used for message expansion
func (c *Catalog) Site() SiteInfo {
	return c.site
}

// ContentLanguage returns the wiki's content language
func (c *Catalog) ContentLanguage() Language {
	return c.site.ContentLanguage
}

// Reload replaces the in-memory overrides with the current store contents
func (c *Catalog) Reload(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	list, err := c.store.ListMessageOverrides(ctx)
	if err != nil {
		return fmt.Errorf("failed to load message overrides: %w", err)
	}
	overrides := make(map[string]map[string]string)
	for _, o := range list {
		lang := strings.ToLower(o.Language)
		if overrides[lang] == nil {
			overrides[lang] = make(map[string]string)
		}
		overrides[lang][o.Key] = o.Text
	}
	c.mux.Lock()
	c.overrides = overrides
	c.mux.Unlock()
	log.Printf("[MESSAGES]: Loaded %d message overrides", len(list))
	return nil
}

// SetOverride replaces a message text in memory only
func (c *Catalog) SetOverride(lang, key, text string) {
	lang = strings.ToLower(lang)
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.overrides[lang] == nil {
		c.overrides[lang] = make(map[string]string)
	}
	c.overrides[lang][key] = text
}

// Msg returns the message key in lang with plain parameters
func (c *Catalog) Msg(lang Language, key string, params ...string) *Message {
	m := &Message{catalog: c, key: key, lang: lang}
	return m.Params(params...)
}

// lookup walks the language chain: requested code, its base language, English.
// At each step a site override wins over the built-in text.
func (c *Catalog) lookup(lang Language, key string) (string, bool) {
	chain := []string{lang.Code()}
	if base := lang.Base(); base != "" && base != "und" && base != lang.Code() {
		chain = append(chain, base)
	}
	if chain[len(chain)-1] != fallbackLanguage {
		chain = append(chain, fallbackLanguage)
	}

	c.mux.RLock()
	defer c.mux.RUnlock()
	for _, code := range chain {
		if text, ok := c.overrides[code][key]; ok {
			return text, true
		}
		if text, ok := builtinMessages[code][key]; ok {
			return text, true
		}
	}
	return "", false
}
