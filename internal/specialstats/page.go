// Package specialstats renders the Special:Statistics report page
package specialstats

import (
	"context"
	"fmt"
	"html"
	"log"
	"net/url"
	"strings"

	"github.com/go-while/go-pugwiki/internal/config"
	"github.com/go-while/go-pugwiki/internal/hooks"
	"github.com/go-while/go-pugwiki/internal/linker"
	"github.com/go-while/go-pugwiki/internal/messages"
	"github.com/go-while/go-pugwiki/internal/models"
)

// StatsSource provides the counters shown on the page
type StatsSource interface {
	Snapshot(ctx context.Context) (models.SiteStats, error)
	NumberInGroup(ctx context.Context, group string) (int64, error)
	RefreshActiveUsersIfStale(ctx context.Context) error
}

// Context describes the request the page is rendered for
type Context struct {
	Language        messages.Language // user language
	ContentLanguage messages.Language
	SiteName        string
	Path            string // request path, for hook handlers
}

// Result is a rendered statistics page
type Result struct {
	Title string
	HTML  string
	Stats models.SiteStats
}

// Page renders the statistics table
type Page struct {
	wiki     *config.WikiConfig
	stats    StatsSource
	hooks    *hooks.Registry
	linker   *linker.Linker
	messages *messages.Catalog
}

// NewPage wires the page to its collaborators. reg may be nil when no extensions are loaded.
func NewPage(wiki *config.WikiConfig, stats StatsSource, reg *hooks.Registry, lk *linker.Linker, msgs *messages.Catalog) *Page {
	if reg == nil {
		reg = hooks.NewRegistry()
	}
	return &Page{wiki: wiki, stats: stats, hooks: reg, linker: lk, messages: msgs}
}

// renderer carries per-request state while the table is built
type renderer struct {
	*Page
	ctx  context.Context
	rc   *Context
	lang messages.Language
}

func (r *renderer) msg(key string, params ...string) *messages.Message {
	return r.messages.Msg(r.lang, key, params...)
}

// requestContext fills what the caller left out from the site settings
func (p *Page) requestContext(rc *Context) *Context {
	var out Context
	if rc != nil {
		out = *rc
	}
	site := p.messages.Site()
	if out.ContentLanguage.IsZero() {
		out.ContentLanguage = p.messages.ContentLanguage()
	}
	if out.Language.IsZero() {
		out.Language = out.ContentLanguage
	}
	if out.SiteName == "" {
		out.SiteName = site.SiteName
	}
	return &out
}

// Execute renders the page. Counters are read before the active user
// refresh, so a recount shows up on the next view.
func (p *Page) Execute(ctx context.Context, rc *Context) (*Result, error) {
	rc = p.requestContext(rc)
	r := &renderer{Page: p, ctx: ctx, rc: rc, lang: rc.Language}

	snap, err := p.stats.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read site statistics: %w", err)
	}

	if !p.wiki.MiserMode {
		if err := p.stats.RefreshActiveUsersIfStale(ctx); err != nil {
			log.Printf("[STATS]: active users refresh failed: %v", err)
		}
	}

	var b strings.Builder
	b.WriteString(`<table class="wikitable mw-statistics-table">`)

	b.WriteString(r.getPageStats(snap))
	b.WriteString(r.getEditStats(snap))
	b.WriteString(r.getUserStats(snap))

	groups, err := r.getGroupStats()
	if err != nil {
		return nil, err
	}
	b.WriteString(groups)

	extra := &models.ExtraStats{}
	ok, err := p.hooks.RunSpecialStatsAddExtra(extra, rc)
	if err != nil {
		log.Printf("[STATS]: %v", err)
	} else if ok {
		b.WriteString(r.getOtherStats(extra))
	}

	b.WriteString(`</table>`)

	footer := r.msg("statistics-footer")
	if !footer.IsBlank() {
		b.WriteString("\n")
		b.WriteString(footer.Parse())
	}

	return &Result{
		Title: r.msg("statistics").Text(),
		HTML:  b.String(),
		Stats: snap,
	}, nil
}

func (r *renderer) getPageStats(s models.SiteStats) string {
	var b strings.Builder
	b.WriteString(r.formatRowHeader("statistics-header-pages"))
	b.WriteString(r.formatRow(
		r.linker.LinkKnown(linker.SpecialPage("AllPages"), r.msg("statistics-articles").Parse(), nil),
		r.lang.FormatNum(s.Articles),
		rowAttrs{{"class", "mw-statistics-articles"}},
		"statistics-articles-desc"))
	b.WriteString(r.formatRow(
		r.msg("statistics-pages").Parse(),
		r.lang.FormatNum(s.Pages),
		rowAttrs{{"class", "mw-statistics-pages"}},
		"statistics-pages-desc"))

	// files row only when there are files or uploads are possible
	if s.Images != 0 || r.wiki.EnableUploads {
		b.WriteString(r.formatRow(
			r.linker.LinkKnown(linker.SpecialPage("MediaStatistics"), r.msg("statistics-files").Parse(), nil),
			r.lang.FormatNum(s.Images),
			rowAttrs{{"class", "mw-statistics-files"}},
			""))
	}
	return b.String()
}

func (r *renderer) getEditStats(s models.SiteStats) string {
	return r.formatRowHeader("statistics-header-edits") +
		r.formatRow(
			r.msg("statistics-edits").Parse(),
			r.lang.FormatNum(s.Edits),
			rowAttrs{{"class", "mw-statistics-edits"}},
			"") +
		r.formatRow(
			r.msg("statistics-edits-average").Parse(),
			r.lang.FormatNum(fmt.Sprintf("%.2f", s.EditsPerPage())),
			rowAttrs{{"class", "mw-statistics-edits-average"}},
			"")
}

func (r *renderer) getUserStats(s models.SiteStats) string {
	activeLink := r.linker.LinkKnown(linker.SpecialPage("ActiveUsers"), r.msg("listgrouprights-members").Escaped(), nil)
	return r.formatRowHeader("statistics-header-users") +
		r.formatRow(
			r.msg("statistics-users").Parse(),
			r.lang.FormatNum(s.Users),
			rowAttrs{{"class", "mw-statistics-users"}},
			"") +
		r.formatRow(
			r.msg("statistics-users-active").Parse()+" "+activeLink,
			r.lang.FormatNum(s.ActiveUsers),
			rowAttrs{{"class", "mw-statistics-users-active"}},
			"statistics-users-active-desc",
			r.lang.FormatNum(r.wiki.ActiveUserDays))
}

// getGroupStats emits one row per configured group, skipping * and implicit groups
func (r *renderer) getGroupStats() (string, error) {
	var b strings.Builder
	for _, group := range r.wiki.Groups() {
		if group == "*" || r.wiki.IsImplicitGroup(group) {
			continue
		}

		localized := group
		if m := r.msg("group-" + group); !m.IsBlank() {
			localized = m.Text()
		}

		pageName := linker.NSProject + ":" + group
		if m := r.msg("grouppage-" + group).InContentLanguage(); !m.IsBlank() {
			pageName = m.Text()
		}

		var groupPage string
		if target, err := r.linker.ParseTitle(pageName); err == nil {
			groupPage = r.linker.Link(r.ctx, target, html.EscapeString(localized))
		} else {
			groupPage = html.EscapeString(localized)
		}

		groupLink := r.linker.LinkKnown(
			linker.SpecialPage("ListUsers"),
			r.msg("listgrouprights-members").Escaped(),
			url.Values{"group": {group}})

		count, err := r.stats.NumberInGroup(r.ctx, group)
		if err != nil {
			return "", fmt.Errorf("failed to count members of %s: %w", group, err)
		}
		class := "statistics-group-" + models.EscapeClass(group)
		// rows of empty groups can be hidden by site CSS
		if count == 0 {
			class += " statistics-group-zero"
		}

		b.WriteString(r.formatRow(
			groupPage+" "+groupLink,
			r.lang.FormatNum(count),
			rowAttrs{{"class", class}},
			""))
	}
	return b.String(), nil
}

// getOtherStats renders extension rows. Legacy items share the
// statistics-header-hooks header, which is only emitted while nothing else
// has been rendered for the block.
func (r *renderer) getOtherStats(extra *models.ExtraStats) string {
	var b strings.Builder
	for _, entry := range extra.Entries {
		if entry.IsLegacy() {
			if b.Len() == 0 {
				b.WriteString(r.formatRowHeader(models.LegacyStatsHeader))
			}
			b.WriteString(r.formatItemRow(*entry.Legacy))
			continue
		}

		if entry.Header != models.LegacyStatsHeader {
			b.WriteString(r.formatRowHeader(entry.Header))
		}
		for _, item := range entry.Items {
			b.WriteString(r.formatItemRow(item))
		}
	}
	return b.String()
}

func (r *renderer) formatItemRow(item models.ExtraStatItem) string {
	var name string
	if item.Named() {
		name = models.SanitizeExtensionHTML(item.Name)
	} else {
		name = r.msg(item.Key).Parse()
	}
	return r.formatRow(
		name,
		r.formatExtraNumber(item.Number),
		rowAttrs{{"class", "mw-statistics-hook"}, {"id", "mw-" + item.Key}},
		"")
}

// formatExtraNumber escapes extension numbers before localizing them;
// values that are not numeric come out escaped but otherwise unchanged.
func (r *renderer) formatExtraNumber(v interface{}) string {
	switch n := v.(type) {
	case string:
		return r.lang.FormatNum(html.EscapeString(n))
	case fmt.Stringer:
		return r.lang.FormatNum(html.EscapeString(n.String()))
	case nil:
		return ""
	default:
		return html.EscapeString(r.lang.FormatNum(n))
	}
}
