package messages

import (
	"context"
	"errors"
	"testing"

	"github.com/go-while/go-pugwiki/internal/models"
)

type fakeOverrides struct {
	list []*models.MessageOverride
	err  error
}

func (f *fakeOverrides) ListMessageOverrides(ctx context.Context) ([]*models.MessageOverride, error) {
	return f.list, f.err
}

func newTestCatalog(store OverrideStore) *Catalog {
	return NewCatalog(SiteInfo{
		SiteName:         "PugWiki",
		ProjectNamespace: "Project",
		ContentLanguage:  NewLanguage("en"),
	}, nil, store)
}

func TestFormatNum(t *testing.T) {
	en := NewLanguage("en")
	de := NewLanguage("de")
	testCases := []struct {
		lang  Language
		input interface{}
		want  string
	}{
		{en, int64(1234567), "1,234,567"},
		{en, 42, "42"},
		{en, "2.50", "2.50"},
		{en, "1234.50", "1,234.50"},
		{en, "0.00", "0.00"},
		{en, "30", "30"},
		{en, 2.5, "2.5"},
		{en, "n/a", "n/a"},
		{en, "&lt;b&gt;", "&lt;b&gt;"},
		{de, int64(1234567), "1.234.567"},
		{de, "2.50", "2,50"},
	}
	for _, tc := range testCases {
		if got := tc.lang.FormatNum(tc.input); got != tc.want {
			t.Errorf("%s FormatNum(%v) = %q, want %q", tc.lang.Code(), tc.input, got, tc.want)
		}
	}
}

func TestNewLanguageFallsBack(t *testing.T) {
	if got := NewLanguage("???").Code(); got != "en" {
		t.Errorf("expected fallback to en, got %s", got)
	}
	if got := NewLanguage("de-AT").Base(); got != "de" {
		t.Errorf("expected base de, got %s", got)
	}
}

func TestMessageText(t *testing.T) {
	c := newTestCatalog(nil)
	en := NewLanguage("en")

	testCases := []struct {
		msg  *Message
		want string
	}{
		{c.Msg(en, "statistics-edits"), "Page edits since PugWiki was set up"},
		{c.Msg(en, "grouppage-sysop"), "Project:Administrators"},
		{c.Msg(en, "statistics-users-active-desc", "1"), "Users who have performed an action in the last day"},
		{c.Msg(en, "statistics-users-active-desc", "30"), "Users who have performed an action in the last 30 days"},
		{c.Msg(en, "statistics-users-active-desc", "1,000"), "Users who have performed an action in the last 1,000 days"},
		{c.Msg(en, "parentheses", "x"), "(x)"},
		{c.Msg(en, "no-such-message"), "⧼no-such-message⧽"},
		{c.Msg(NewLanguage("de"), "statistics-users-active-desc", "30"), "Benutzer mit Aktivitäten in den letzten 30 Tagen"},
		{c.Msg(NewLanguage("de"), "parentheses", "y"), "(y)"},
	}
	for _, tc := range testCases {
		if got := tc.msg.Text(); got != tc.want {
			t.Errorf("Text(%s) = %q, want %q", tc.msg.Key(), got, tc.want)
		}
	}
}

func TestMessageParse(t *testing.T) {
	c := newTestCatalog(nil)
	en := NewLanguage("en")

	got := c.Msg(en, "statistics-users").Parse()
	want := `Registered <a href="/wiki/Special:ListUsers" title="Special:ListUsers">users</a>`
	if got != want {
		t.Errorf("Parse =\n%s\nwant\n%s", got, want)
	}

	c.SetOverride("en", "test-escape", "a < b & [[Main Page]] $1")
	got = c.Msg(en, "test-escape", "<i>").Parse()
	want = `a &lt; b &amp; <a href="/wiki/Main_Page" title="Main Page">Main Page</a> &lt;i&gt;`
	if got != want {
		t.Errorf("Parse with plain param =\n%s\nwant\n%s", got, want)
	}

	got = c.Msg(en, "parentheses").RawParams("<b>x</b>").Parse()
	if got != "(<b>x</b>)" {
		t.Errorf("raw params must not be escaped, got %q", got)
	}

	got = c.Msg(en, "parentheses").RawParams("<b>x</b>").Escaped()
	if got != "(<b>x</b>)" {
		t.Errorf("raw params must not be escaped by Escaped, got %q", got)
	}

	c.SetOverride("en", "test-invalid-link", "[[a{b]]")
	if got := c.Msg(en, "test-invalid-link").Parse(); got != "[[a{b]]" {
		t.Errorf("invalid link targets should stay as text, got %q", got)
	}
}

func TestMessageEscaped(t *testing.T) {
	c := newTestCatalog(nil)
	c.SetOverride("en", "test-html", `<"quoted"> & more`)
	got := c.Msg(NewLanguage("en"), "test-html").Escaped()
	if got != "&lt;&#34;quoted&#34;&gt; &amp; more" {
		t.Errorf("unexpected escaped text %q", got)
	}
}

func TestBlankAndDisabled(t *testing.T) {
	c := newTestCatalog(nil)
	en := NewLanguage("en")
	c.SetOverride("en", "test-dash", "-")

	testCases := []struct {
		key      string
		blank    bool
		disabled bool
	}{
		{"statistics-footer", true, true},
		{"missing-key", true, true},
		{"test-dash", false, true},
		{"statistics-pages-desc", false, false},
	}
	for _, tc := range testCases {
		m := c.Msg(en, tc.key)
		if m.IsBlank() != tc.blank || m.IsDisabled() != tc.disabled {
			t.Errorf("%s: blank=%t disabled=%t, want %t/%t", tc.key, m.IsBlank(), m.IsDisabled(), tc.blank, tc.disabled)
		}
	}
}

func TestLanguageFallbackAndOverrides(t *testing.T) {
	store := &fakeOverrides{list: []*models.MessageOverride{
		{Key: "statistics-footer", Language: "en", Text: "Counts are updated [[Project:Statistics|daily]]."},
		{Key: "group-bot", Language: "de", Text: "Roboter"},
	}}
	c := newTestCatalog(store)
	if err := c.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	de := NewLanguage("de-at")

	if got := c.Msg(de, "group-bot").Text(); got != "Roboter" {
		t.Errorf("expected override through base language, got %q", got)
	}
	if got := c.Msg(de, "statistics-pages").Text(); got != "Seiten" {
		t.Errorf("expected German built-in, got %q", got)
	}
	if got := c.Msg(de, "parentheses", "1").Text(); got != "(1)" {
		t.Errorf("expected English fallback, got %q", got)
	}
	footer := c.Msg(NewLanguage("en"), "statistics-footer")
	if footer.IsBlank() {
		t.Fatalf("override should make the footer non-blank")
	}
	want := `Counts are updated <a href="/wiki/Project:Statistics" title="Project:Statistics">daily</a>.`
	if got := footer.Parse(); got != want {
		t.Errorf("footer Parse =\n%s\nwant\n%s", got, want)
	}
	if got := c.Msg(NewLanguage("en"), "group-bot").InLanguage(de).Text(); got != "Roboter" {
		t.Errorf("InLanguage should switch the lookup, got %q", got)
	}
	if got := c.Msg(de, "grouppage-sysop").InContentLanguage().Text(); got != "Project:Administrators" {
		t.Errorf("InContentLanguage should use en, got %q", got)
	}
}

func TestReloadError(t *testing.T) {
	c := newTestCatalog(&fakeOverrides{err: errors.New("boom")})
	if err := c.Reload(context.Background()); err == nil {
		t.Errorf("expected reload error")
	}
	if err := newTestCatalog(nil).Reload(context.Background()); err != nil {
		t.Errorf("reload without store should be a no-op, got %v", err)
	}
}

func TestProjectNamespaceExpansion(t *testing.T) {
	c := NewCatalog(SiteInfo{SiteName: "Docs", ProjectNamespace: "Docs"}, nil, nil)
	if got := c.Msg(NewLanguage("en"), "grouppage-bot").Text(); got != "Docs:Bots" {
		t.Errorf("expected project namespace from site info, got %q", got)
	}
}
