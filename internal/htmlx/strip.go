// Package htmlx converts provider HTML bodies to plain text for the
// suggestion engines.
package htmlx

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes every tag, leaving only text nodes.
	strictPolicy = bluemonday.StrictPolicy()

	blankRuns = regexp.MustCompile(`\n{3,}`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
)

// StripTags removes all HTML markup from s and returns readable plain text:
// line breaks are preserved for br/p/div boundaries, entities are decoded,
// and whitespace runs are collapsed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	// Keep structural breaks before the sanitizer drops the tags.
	replacer := strings.NewReplacer(
		"<br>", "\n", "<br/>", "\n", "<br />", "\n",
		"</p>", "\n\n", "</div>", "\n",
	)
	s = replacer.Replace(s)

	s = strictPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
