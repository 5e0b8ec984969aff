package llm

import (
	"regexp"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+`)
	bulletRe  = regexp.MustCompile(`(?m)^\s*\*\s+`)
	emptyRe   = regexp.MustCompile(`(?mi)^\s*\(пусто\)\s*$`)
	blanksRe  = regexp.MustCompile(`\n{3,}`)
	tldrRe    = regexp.MustCompile(`(?mi)^\s*TL;DR:\s*`)
	actionRe  = regexp.MustCompile(`(?mi)^\s*Action:\s*.*$`)
)

// Sanitize strips markdown remnants and noise prefixes from model output so
// the result is safe to send as Telegram plain text.
func Sanitize(s string) string {
	if s == "" {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = headingRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = bulletRe.ReplaceAllString(s, "- ")
	s = strings.ReplaceAll(s, "```", "")

	s = emptyRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(blanksRe.ReplaceAllString(s, "\n\n"))

	s = tldrRe.ReplaceAllString(s, "")
	s = actionRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	return strings.TrimSpace(blanksRe.ReplaceAllString(s, "\n\n"))
}

// SingleLine sanitizes and collapses model output to one line.
func SingleLine(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(Sanitize(s)), " "))
}
