package specialstats

import (
	"html"
	"strings"
)

type rowAttr struct {
	name  string
	value string
}

// rowAttrs keeps attribute order stable in the output
type rowAttrs []rowAttr

func (a rowAttrs) String() string {
	var b strings.Builder
	for _, attr := range a {
		b.WriteString(" ")
		b.WriteString(attr.name)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attr.value))
		b.WriteString(`"`)
	}
	return b.String()
}

// formatRow renders one statistics row. text and number are HTML.
// A description message, unless disabled, is appended below the text in parentheses.
func (r *renderer) formatRow(text, number string, attrs rowAttrs, descMsg string, descParams ...string) string {
	if descMsg != "" {
		desc := r.msg(descMsg, descParams...)
		if !desc.IsDisabled() {
			descHTML := r.msg("parentheses").RawParams(desc.Parse()).Escaped()
			text += `<br /><small class="mw-statistic-desc"> ` + descHTML + `</small>`
		}
	}
	return "<tr" + attrs.String() + "><td>" + text + `</td><td class="mw-statistics-numbers">` + number + "</td></tr>"
}

// formatRowHeader renders a section header spanning both columns
func (r *renderer) formatRowHeader(msgKey string) string {
	return `<tr><th colspan="2">` + r.msg(msgKey).Parse() + "</th></tr>"
}
