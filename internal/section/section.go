// Package section splits multi-city digest messages into per-city blocks.
// A block starts at a line that looks like a city header for the target city
// (any known alias opens it) and runs until the next header naming a
// different city, or the end of the message.
package section

import (
	"regexp"
	"strings"

	"github.com/avoronin/vestnik/internal/textnorm"
)

// headerRe matches a section header line: an uppercase first letter, 1-60
// further letters/hyphens/spaces, an optional "(N)" vacancy count, and an
// optional trailing colon. Applied to trimmed lines only.
var headerRe = regexp.MustCompile(`^([ЁА-ЯA-Z][ЁёА-яA-Za-z -]{1,60}?)\s*(?:\((\d+)\))?\s*:?$`)

// DefaultAliases groups spellings that name the same city.
var DefaultAliases = [][]string{
	{"Санкт-Петербург", "Санкт Петербург", "СПб", "Питер"},
}

// Config carries the segmenter's alias table.
type Config struct {
	Aliases [][]string
}

// Segmenter extracts city sections from digest messages.
type Segmenter struct {
	aliasGroups []map[string]bool
}

// New creates a Segmenter from the given config. A nil alias table falls back
// to DefaultAliases.
func New(cfg Config) *Segmenter {
	aliases := cfg.Aliases
	if aliases == nil {
		aliases = DefaultAliases
	}
	groups := make([]map[string]bool, 0, len(aliases))
	for _, group := range aliases {
		g := make(map[string]bool, len(group))
		for _, name := range group {
			if key := textnorm.Key(name); key != "" {
				g[key] = true
			}
		}
		if len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return &Segmenter{aliasGroups: groups}
}

// HeaderKey parses a line as a section header and returns its normalized city
// identity. The count suffix is stripped before identity extraction, so
// "Москва (3)" and "Москва" carry the same key.
func HeaderKey(line string) (string, bool) {
	m := headerRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	return textnorm.Key(m[1]), true
}

// targets returns the alias-expanded identity set for a city. A city that
// belongs to a known alias group expands to the whole group, so any alias
// opens and continues the section.
func (s *Segmenter) targets(city string) map[string]bool {
	key := textnorm.Key(city)
	for _, group := range s.aliasGroups {
		if group[key] {
			return group
		}
	}
	return map[string]bool{key: true}
}

// Extract returns the target city's section of a multi-city message,
// including its header line. An absent section yields an empty string; that
// is a normal outcome, not an error.
func (s *Segmenter) Extract(text, targetCity string) string {
	if text == "" {
		return ""
	}
	targets := s.targets(targetCity)
	lines := strings.Split(text, "\n")

	start := -1
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if key, ok := HeaderKey(line); ok && targets[key] {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if key, ok := HeaderKey(line); ok && !targets[key] {
			end = i
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
