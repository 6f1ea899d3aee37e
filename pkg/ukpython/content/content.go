// Package content renders the long-form bodies of news items, sponsored news
// and pages. Bodies arrive from the dump tree as HTML and are sanitized before
// they are served.
package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre", "span", "div")
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips markup that is unsafe to serve from body.
func Sanitize(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return policy.Sanitize(body)
}

// Summary returns the plain-text start of body, cut at a word boundary so it
// is at most limit runes long.
func Summary(body string, limit int) string {
	text := strings.Join(strings.Fields(bluemonday.StrictPolicy().Sanitize(body)), " ")
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
