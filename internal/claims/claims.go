// Package claims correlates summarized messages by the claim identifier
// mentioned in their subjects. Groups are rebuilt on every run, never
// persisted; only the daily counters survive between runs.
package claims

import (
	"regexp"
	"sort"
)

// Item is one processed message entering correlation. Seq is the processing
// sequence number (mailbox UID order) and is unique within a batch. ClaimID
// is extracted once and immutable afterwards.
type Item struct {
	Seq       int
	FromLabel string
	Subject   string
	Summary   string
	ClaimID   string
}

// Group collects items sharing one claim identifier. Items are ordered by
// ascending Seq; Rank is the group's highest Seq and drives presentation
// order (most recently touched claim first).
type Group struct {
	ClaimID string
	Items   []Item
	Rank    int
}

var (
	digitRunRe = regexp.MustCompile(`\d+`)
	// Up to three suffix chunks of 1-4 Latin or Cyrillic letters each,
	// consumed greedily right after the claim number.
	suffixRe = regexp.MustCompile(`^(?:-[A-Za-zЁёА-я]{1,4}){1,3}`)
)

// ExtractClaimID finds the first claim token in a subject: exactly five
// digits not adjacent to other digits, optionally followed by letter
// suffixes like "-АБ" or "-AB-CD". Returns "" when the subject carries no
// claim, which routes the item to the "other" bucket.
func ExtractClaimID(subject string) string {
	for _, loc := range digitRunRe.FindAllStringIndex(subject, -1) {
		if loc[1]-loc[0] != 5 {
			continue
		}
		id := subject[loc[0]:loc[1]]
		if suffix := suffixRe.FindString(subject[loc[1]:]); suffix != "" {
			id += suffix
		}
		return id
	}
	return ""
}

// Correlate partitions a batch into claim groups and the "other" bucket and
// fixes the deterministic presentation order. Items with an empty ClaimID
// get one extracted from their subject first.
func Correlate(items []Item) (groups []Group, other []Item) {
	byID := make(map[string]int)

	for _, it := range items {
		if it.ClaimID == "" {
			it.ClaimID = ExtractClaimID(it.Subject)
		}
		if it.ClaimID == "" {
			other = append(other, it)
			continue
		}
		idx, ok := byID[it.ClaimID]
		if !ok {
			idx = len(groups)
			byID[it.ClaimID] = idx
			groups = append(groups, Group{ClaimID: it.ClaimID})
		}
		groups[idx].Items = append(groups[idx].Items, it)
		if it.Seq > groups[idx].Rank {
			groups[idx].Rank = it.Seq
		}
	}

	for i := range groups {
		sort.Slice(groups[i].Items, func(a, b int) bool {
			return groups[i].Items[a].Seq < groups[i].Items[b].Seq
		})
	}
	sort.Slice(groups, func(a, b int) bool {
		if groups[a].Rank != groups[b].Rank {
			return groups[a].Rank > groups[b].Rank
		}
		return groups[a].ClaimID < groups[b].ClaimID
	})
	sort.Slice(other, func(a, b int) bool { return other[a].Seq < other[b].Seq })

	return groups, other
}
