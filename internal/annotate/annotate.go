// Package annotate resolves rich-text link annotations against message text.
// Annotation offsets arrive in UTF-16 code units (the wire format of the
// rich-text host), while Go strings index bytes; supplementary-plane
// characters such as emoji occupy two UTF-16 units, so offsets must go
// through an explicit conversion table before any substring is taken.
package annotate

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/avoronin/vestnik/internal/textnorm"
)

// Span is one link annotation: Offset and Length are UTF-16 code units.
type Span struct {
	Offset int
	Length int
	URL    string
}

// ErrNegativeSpan reports a structurally invalid span. Unlike an offset that
// merely misses a code point boundary, a negative value is a caller bug and
// is surfaced loudly.
var ErrNegativeSpan = errors.New("annotate: negative span offset or length")

// Index is a conversion table from UTF-16 code-unit offsets to byte offsets
// of one string.
type Index struct {
	byteAt map[int]int
}

// NewIndex builds the conversion table for s. Every code point boundary gets
// an entry, including the end of the string.
func NewIndex(s string) *Index {
	byteAt := make(map[int]int, len(s)+1)
	u := 0
	for i, r := range s {
		byteAt[u] = i
		if r > 0xFFFF {
			u += 2
		} else {
			u++
		}
	}
	byteAt[u] = len(s)
	return &Index{byteAt: byteAt}
}

// Slice returns the substring of s covered by a UTF-16 span. ok is false when
// either span end does not land on a table entry; that forfeits the single
// span without affecting others. Negative offsets or lengths return
// ErrNegativeSpan.
func (ix *Index) Slice(s string, offset, length int) (frag string, ok bool, err error) {
	if offset < 0 || length < 0 {
		return "", false, ErrNegativeSpan
	}
	start, okStart := ix.byteAt[offset]
	end, okEnd := ix.byteAt[offset+length]
	if !okStart || !okEnd {
		return "", false, nil
	}
	return s[start:end], true, nil
}

var ordinalPrefixRe = regexp.MustCompile(`^\d+\.\s*`)

// normalizeTitle reduces a link's visible text to a lookup key: leading
// ordinal stripped, anything after the first " — " separator dropped, then
// the usual normalized form.
func normalizeTitle(frag string) string {
	frag = ordinalPrefixRe.ReplaceAllString(strings.TrimSpace(frag), "")
	frag, _, _ = strings.Cut(frag, " — ")
	return textnorm.Key(frag)
}

// LinkMap builds a title-to-URL lookup from annotation spans over text. Only
// URLs matching urlRe are kept. Keys are normalized titles: the covered
// fragment with any leading ordinal stripped and anything after the first
// " — " separator dropped. The first span for a title wins. A span whose
// offsets miss a code point boundary is skipped; only negative spans abort.
func LinkMap(text string, spans []Span, urlRe *regexp.Regexp) (map[string]string, error) {
	if text == "" || len(spans) == 0 {
		return nil, nil
	}
	ix := NewIndex(text)
	var m map[string]string
	for _, sp := range spans {
		if sp.URL == "" || !urlRe.MatchString(sp.URL) {
			continue
		}
		frag, ok, err := ix.Slice(text, sp.Offset, sp.Length)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		key := normalizeTitle(frag)
		if key == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		if _, exists := m[key]; !exists {
			m[key] = sp.URL
		}
	}
	return m, nil
}

// LinkMapFromAnchors builds the same lookup from an anchor-text map, the
// shape feed bodies produce. Texts are visited in sorted order so a title
// collision resolves to the same URL on every run.
func LinkMapFromAnchors(anchors map[string]string, urlRe *regexp.Regexp) map[string]string {
	if len(anchors) == 0 {
		return nil
	}
	texts := make([]string, 0, len(anchors))
	for text := range anchors {
		texts = append(texts, text)
	}
	sort.Strings(texts)

	var m map[string]string
	for _, text := range texts {
		href := anchors[text]
		if href == "" || !urlRe.MatchString(href) {
			continue
		}
		key := normalizeTitle(text)
		if key == "" {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		if _, exists := m[key]; !exists {
			m[key] = href
		}
	}
	return m
}
