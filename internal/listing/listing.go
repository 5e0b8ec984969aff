// Package listing parses enumerated vacancy lists out of digest messages.
// Two variants share one scanning loop: the city variant walks the target
// city's section and drops remote postings, the remote variant walks the
// whole message and keeps only remote postings.
package listing

import (
	"regexp"
	"strings"

	"github.com/avoronin/vestnik/internal/section"
	"github.com/avoronin/vestnik/internal/textnorm"
)

// DefaultLinkPattern matches hh.ru vacancy links.
const DefaultLinkPattern = `(?i)https?://(?:www\.)?hh\.ru/vacancy/\d+`

// DefaultBannedKeywords filters out titles the digest owner never wants to
// see. Matching is substring-based on normalized text, so a stem filters
// every title containing it.
var DefaultBannedKeywords = []string{"врач", "водитель", "агент", "терапевт", "диспетчер"}

// DefaultRemoteKeywords are the phrasings channels use to mark remote work.
var DefaultRemoteKeywords = []string{"удаленная работа", "удаленка"}

var (
	entryRe   = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
	companyRe = regexp.MustCompile(`(?im)^[ \t]*Компания[ \t]*:[ \t]*(.+?)[ \t]*$`)
)

// Vacancy is one finalized, filtered listing entry.
type Vacancy struct {
	Title   string
	Link    string
	Company string
}

// Result carries everything a scan produced. Detected counts every entry that
// reached link resolution and passed the variant's remote gate; Selected is
// the subset that also passed the banned-keyword filter, so
// len(Selected) <= Detected always holds.
type Result struct {
	Selected []Vacancy
	Detected int
}

// Config carries the pattern tables a Parser runs on. Zero-value fields fall
// back to the package defaults, so Config{} is a usable production setup.
type Config struct {
	TargetCity     string
	CityAliases    [][]string
	BannedKeywords []string
	RemoteKeywords []string
	LinkPattern    string
}

// Parser scans messages for vacancy listings.
type Parser struct {
	cfg    Config
	seg    *section.Segmenter
	linkRe *regexp.Regexp
}

// New creates a Parser, applying defaults for unset config fields.
func New(cfg Config) (*Parser, error) {
	if cfg.TargetCity == "" {
		cfg.TargetCity = "Санкт-Петербург"
	}
	if cfg.BannedKeywords == nil {
		cfg.BannedKeywords = DefaultBannedKeywords
	}
	if cfg.RemoteKeywords == nil {
		cfg.RemoteKeywords = DefaultRemoteKeywords
	}
	if cfg.LinkPattern == "" {
		cfg.LinkPattern = DefaultLinkPattern
	}
	linkRe, err := regexp.Compile(cfg.LinkPattern)
	if err != nil {
		return nil, err
	}
	return &Parser{
		cfg:    cfg,
		seg:    section.New(section.Config{Aliases: cfg.CityAliases}),
		linkRe: linkRe,
	}, nil
}

// LinkRegexp exposes the compiled vacancy link pattern for annotation
// resolution.
func (p *Parser) LinkRegexp() *regexp.Regexp {
	return p.linkRe
}

// ExtractCompany finds the posting company over the whole message. First
// match wins; it applies uniformly to every entry of the message.
func ExtractCompany(text string) string {
	m := companyRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ParseCity parses the target city's section. Remote postings inside the
// section are excluded from both counts. inlineLinks is the
// annotation-derived title-to-link map and may be nil.
func (p *Parser) ParseCity(text string, inlineLinks map[string]string) Result {
	block := p.seg.Extract(text, p.cfg.TargetCity)
	if block == "" {
		return Result{}
	}
	lines := strings.Split(block, "\n")
	// Skip the header line; the segmenter guarantees it is first.
	return p.scan(text, lines[1:], gateCity, inlineLinks)
}

// ParseRemote parses the whole message ignoring section boundaries, keeping
// only remote postings regardless of which city they were listed under.
func (p *Parser) ParseRemote(text string, inlineLinks map[string]string) Result {
	if text == "" {
		return Result{}
	}
	return p.scan(text, strings.Split(text, "\n"), gateRemote, inlineLinks)
}

// gate decides whether an entry with the given remote flag counts at all in
// the current variant.
type gate func(remote bool) bool

func gateCity(remote bool) bool   { return !remote }
func gateRemote(remote bool) bool { return remote }

func (p *Parser) scan(full string, lines []string, include gate, inlineLinks map[string]string) Result {
	company := ExtractCompany(full)

	var res Result
	var pendingTitle string
	var pendingRemote bool

	finalize := func(title string, remote bool, link string) {
		if !include(remote) {
			return
		}
		res.Detected++
		if textnorm.ContainsAnyKey(title, p.cfg.BannedKeywords) {
			return
		}
		res.Selected = append(res.Selected, Vacancy{Title: title, Link: link, Company: company})
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := entryRe.FindStringSubmatch(line); m != nil {
			rest := m[2]
			remote := textnorm.ContainsAnyKey(rest, p.cfg.RemoteKeywords)
			title, _, _ := strings.Cut(rest, " — ")
			title = strings.TrimSpace(title)

			if link, ok := inlineLinks[textnorm.Key(title)]; ok {
				finalize(title, remote, link)
				pendingTitle = ""
				continue
			}
			pendingTitle, pendingRemote = title, remote
			continue
		}

		if link := p.linkRe.FindString(line); link != "" && pendingTitle != "" {
			finalize(pendingTitle, pendingRemote, link)
			pendingTitle = ""
		}
	}

	// A trailing entry with no link is dropped silently; malformed postings
	// are expected in production input.
	return res
}
