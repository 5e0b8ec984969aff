package digest

import (
	"fmt"
	"strings"

	"github.com/avoronin/vestnik/internal/claims"
)

// summaryBlock builds the counted header the model must never rewrite.
func summaryBlock(processed, failed int, groups []claims.Group, other []claims.Item, c claims.Counters) string {
	inClaims := 0
	for _, g := range groups {
		inClaims += len(g.Items)
	}

	var sb strings.Builder
	sb.WriteString("СВОДКА:\n")
	fmt.Fprintf(&sb, "- Писем: %d, с заявками: %d, прочее: %d, не обработано: %d\n", processed+failed, inClaims, len(other), failed)
	fmt.Fprintf(&sb, "- За сегодня (%s): по заявкам %d, прочее %d, всего %d", c.Date, c.Total-c.Other, c.Other, c.Total)
	return sb.String()
}

// claimsBlock lists claim groups deterministically, one block per claim.
func claimsBlock(groups []claims.Group) string {
	if len(groups) == 0 {
		return "(нет данных)"
	}

	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		lines := make([]string, 0, len(g.Items)+1)
		lines = append(lines, fmt.Sprintf("[%s]", g.ClaimID))
		for _, it := range g.Items {
			lines = append(lines, fmt.Sprintf("- %s: +++ СОДЕРЖАНИЕ: %s", it.FromLabel, it.Summary))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// renderFallback assembles the digest without a model: the claim-less items
// are listed flat instead of being grouped into themes.
func renderFallback(summaryText, claimsText string, other []claims.Item, failed []failedItem) string {
	var sb strings.Builder
	sb.WriteString(summaryText)
	sb.WriteString("\n\nЗАЯВКИ:\n")
	sb.WriteString(claimsText)

	sb.WriteString("\n\nПРОЧЕЕ:\n")
	if len(other) == 0 {
		sb.WriteString("(нет данных)")
	} else {
		lines := make([]string, 0, len(other))
		for _, it := range other {
			lines = append(lines, fmt.Sprintf("- %s: +++ СОДЕРЖАНИЕ: %s", it.FromLabel, it.Summary))
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	if len(failed) > 0 {
		sb.WriteString("\n\nНЕ ОБРАБОТАНО:\n")
		lines := make([]string, 0, len(failed))
		for _, f := range failed {
			lines = append(lines, fmt.Sprintf("- From: %s : %s", f.FromLabel, trimSubject(f.Subject)))
		}
		sb.WriteString(strings.Join(lines, "\n"))
	}

	return sb.String()
}

func trimSubject(s string) string {
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > 180 {
		return string(runes[:180]) + "…"
	}
	return s
}
