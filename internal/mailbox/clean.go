package mailbox

import (
	"regexp"
	"strings"
)

var quoteMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^>+`),
	regexp.MustCompile(`(?i)^On .+ wrote:$`),
	regexp.MustCompile(`(?i)^От: .+$`),
	regexp.MustCompile(`(?i)^Sent: .+$`),
	regexp.MustCompile(`(?i)^-{2,}\s*Original Message\s*-{2,}$`),
}

var signatureMarkers = []*regexp.Regexp{
	regexp.MustCompile(`^--\s*$`),
	regexp.MustCompile(`(?i)^С уважением[,!]*\s*$`),
	regexp.MustCompile(`(?i)^Best regards[,!]*\s*$`),
}

// Clean strips quoted reply chains and signatures from an email body and
// truncates it to maxChars runes.
func Clean(text string, maxChars int) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")

	var cleaned []string
	for _, ln := range strings.Split(t, "\n") {
		ln = strings.TrimRight(ln, " \t")
		trimmed := strings.TrimSpace(ln)
		if trimmed == "" {
			cleaned = append(cleaned, "")
			continue
		}
		if matchesAny(quoteMarkers, trimmed) {
			continue
		}
		cleaned = append(cleaned, ln)
	}

	var final []string
	for _, ln := range cleaned {
		if matchesAny(signatureMarkers, strings.TrimSpace(ln)) {
			break
		}
		final = append(final, ln)
	}

	out := strings.TrimSpace(strings.Join(final, "\n"))

	if maxChars > 0 {
		if runes := []rune(out); len(runes) > maxChars {
			out = string(runes[:maxChars]) + "\n\n[TRUNCATED]"
		}
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}
