package telegram

import "strings"

// MaxMessageLen leaves headroom under Telegram's 4096-character limit.
const MaxMessageLen = 3900

// SplitMessage breaks long text into Telegram-sized chunks, preferring line
// boundaries. A single over-long line is hard-split.
func SplitMessage(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if len([]rune(text)) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var buf []string
	cur := 0

	for _, ln := range strings.Split(text, "\n") {
		addLen := len([]rune(ln))
		if len(buf) > 0 {
			addLen++
		}
		if cur+addLen > maxLen && len(buf) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(buf, "\n")))
			buf = []string{ln}
			cur = len([]rune(ln))
		} else {
			if len(buf) > 0 {
				cur++
			}
			buf = append(buf, ln)
			cur += len([]rune(ln))
		}
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.TrimSpace(strings.Join(buf, "\n")))
	}

	var fixed []string
	for _, ch := range chunks {
		runes := []rune(ch)
		if len(runes) <= maxLen {
			fixed = append(fixed, ch)
			continue
		}
		for i := 0; i < len(runes); i += maxLen {
			end := i + maxLen
			if end > len(runes) {
				end = len(runes)
			}
			fixed = append(fixed, string(runes[i:end]))
		}
	}
	return fixed
}
