package ai

import (
	"regexp"
	"strings"
)

var (
	// subjectLine matches an accidental leading "Subject: ..." line the
	// model sometimes emits despite the system prompt.
	subjectLine = regexp.MustCompile(`(?i)^subject:[^\n]*\n?`)

	// placeholders the model tends to leave in when it has no real value.
	placeholders = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\[recipient'?s name\]`),
		regexp.MustCompile(`(?i)\[no subject\]`),
	}
)

// CleanReply normalizes a raw completion into a draft body: trims
// whitespace, removes a leading subject line, and strips placeholder
// tokens.
func CleanReply(raw string) string {
	s := strings.TrimSpace(raw)
	s = subjectLine.ReplaceAllString(s, "")
	for _, p := range placeholders {
		s = p.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}
