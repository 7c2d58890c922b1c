package models

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Security and sanitization helpers

var (
	classInvalidChars = regexp.MustCompile(`(^[0-9\-])|[\x00-\x20!"#$%&'()*+,./:;<=>?@[\]^` + "`" + `{|}~]|\x{00A0}`)
	classUnderscores  = regexp.MustCompile(`_+`)

	extensionPolicy     *bluemonday.Policy
	extensionPolicyOnce sync.Once
)

// EscapeClass turns an arbitrary string into something usable as a CSS class name.
// Disallowed characters and a leading digit or hyphen become underscores,
// runs of underscores collapse, and trailing underscores are trimmed.
func EscapeClass(class string) string {
	class = classInvalidChars.ReplaceAllString(class, "_")
	class = classUnderscores.ReplaceAllString(class, "_")
	return strings.TrimRight(class, "_")
}

// EscapeHTML escapes text for use in element content and attribute values
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeExtensionHTML strips everything from extension-provided labels but
// inline formatting and links
func SanitizeExtensionHTML(input string) string {
	extensionPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowElements("b", "i", "em", "strong", "small", "span", "abbr", "code", "br")
		p.AllowAttrs("title").OnElements("abbr", "span")
		p.AllowAttrs("class").Matching(regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)).OnElements("span")
		p.AllowStandardURLs()
		p.AllowRelativeURLs(true)
		p.AllowAttrs("href", "title").OnElements("a")
		p.RequireNoFollowOnFullyQualifiedLinks(true)
		extensionPolicy = p
	})
	return extensionPolicy.Sanitize(input)
}
