// Package jobs builds the channel vacancy digest: it walks configured
// Telegram channels through their feeds, parses new posts for the target
// city and for remote listings, and renders a plain-text report.
package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avoronin/vestnik/internal/annotate"
	"github.com/avoronin/vestnik/internal/listing"
	"github.com/avoronin/vestnik/internal/source"
	"github.com/avoronin/vestnik/internal/store"
)

// Channel is one configured source channel.
type Channel struct {
	Name    string
	FeedURL string
}

// ChannelStats is the per-channel run outcome shown in the stats footer.
type ChannelStats struct {
	Ref          string
	Title        string
	FetchedPosts int
	Detected     int
	Selected     int
}

// Runner executes channel digest runs.
type Runner struct {
	store    *store.Store
	fetcher  source.Fetcher
	parser   *listing.Parser
	channels []Channel
	limit    int
}

// NewRunner wires the channel pipeline. A non-positive fetchLimit falls back
// to the source default.
func NewRunner(st *store.Store, fetcher source.Fetcher, parser *listing.Parser, channels []Channel, fetchLimit int) *Runner {
	return &Runner{
		store:    st,
		fetcher:  fetcher,
		parser:   parser,
		channels: channels,
		limit:    source.EffectiveFetchLimit(fetchLimit),
	}
}

// Run processes new posts of every configured channel. Returns the digest
// text, the number of posts with selected vacancies and per-channel stats.
// Channel cursors advance past every fetched post.
func (r *Runner) Run(ctx context.Context) (string, int, []ChannelStats, error) {
	if len(r.channels) == 0 {
		return "Не настроены каналы с вакансиями.", 0, nil, nil
	}

	lines := []string{"Вакансии из Telegram-каналов:"}
	matched := 0
	var stats []ChannelStats

	for _, ch := range r.channels {
		lastID, err := r.store.ChannelCursor(ch.Name)
		if err != nil {
			return "", 0, stats, err
		}

		feed, err := r.fetcher.Fetch(ctx, ch.FeedURL, lastID, r.limit)
		if err != nil {
			return "", 0, stats, fmt.Errorf("channel %s: %w", ch.Name, err)
		}
		title := feed.Title
		if title == "" {
			title = ch.Name
		}

		maxSeen := lastID
		st := ChannelStats{Ref: ch.Name, Title: title, FetchedPosts: len(feed.Posts)}

		for _, post := range feed.Posts {
			if post.ID > maxSeen {
				maxSeen = post.ID
			}
			text := strings.TrimSpace(post.Text)
			if text == "" {
				continue
			}

			inline := annotate.LinkMapFromAnchors(post.Links, r.parser.LinkRegexp())
			city := r.parser.ParseCity(text, inline)
			remote := r.parser.ParseRemote(text, inline)
			st.Detected += city.Detected + remote.Detected
			st.Selected += len(city.Selected) + len(remote.Selected)

			if len(city.Selected) == 0 && len(remote.Selected) == 0 {
				continue
			}
			matched++
			lines = append(lines, postBlock(title, post, city.Selected, remote.Selected)...)
		}

		if err := r.store.SetChannelCursor(ch.Name, maxSeen); err != nil {
			return "", 0, stats, err
		}
		stats = append(stats, st)
		log.Printf("Channel %s processed: fetched_posts=%d, detected=%d, selected=%d, last_id=%d",
			ch.Name, st.FetchedPosts, st.Detected, st.Selected, maxSeen)
	}

	if matched == 0 {
		return "В новых постах по выбранным каналам подходящих вакансий не найдено.", 0, stats, nil
	}

	text := strings.Join(lines, "\n")
	if _, err := r.store.InsertDigest("jobs", text, matched, 0); err != nil {
		log.Printf("Archiving jobs digest failed: %v", err)
	}
	return text, matched, stats, nil
}

// ProcessPost parses one bot-received channel post. Inline links arrive as
// message entities rather than anchor tags.
func (r *Runner) ProcessPost(channelTitle string, postID int64, date time.Time, text string, spans []annotate.Span) (string, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, nil
	}

	inline, err := annotate.LinkMap(text, spans, r.parser.LinkRegexp())
	if err != nil {
		return "", false, err
	}
	city := r.parser.ParseCity(text, inline)
	remote := r.parser.ParseRemote(text, inline)
	if len(city.Selected) == 0 && len(remote.Selected) == 0 {
		return "", false, nil
	}

	post := source.Post{ID: postID, Date: date}
	return strings.Join(postBlock(channelTitle, post, city.Selected, remote.Selected), "\n"), true, nil
}

func postBlock(channelTitle string, post source.Post, city, remote []listing.Vacancy) []string {
	header := fmt.Sprintf("\nКанал: %s | пост #%d | %s", channelTitle, post.ID, formatDate(post.Date))
	if company := firstCompany(city, remote); company != "" {
		header += " | Компания: " + company
	}

	lines := []string{header}
	n := 0
	for _, v := range city {
		n++
		lines = append(lines, fmt.Sprintf("%d. %s", n, v.Title), "   "+v.Link)
	}
	for _, v := range remote {
		n++
		lines = append(lines, fmt.Sprintf("%d. %s (удаленно)", n, v.Title), "   "+v.Link)
	}
	return lines
}

func firstCompany(city, remote []listing.Vacancy) string {
	for _, v := range city {
		if v.Company != "" {
			return v.Company
		}
	}
	for _, v := range remote {
		if v.Company != "" {
			return v.Company
		}
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown-date"
	}
	return t.Format("2006-01-02 15:04")
}

// FormatStats renders the per-channel statistics footer.
func FormatStats(stats []ChannelStats) string {
	if len(stats) == 0 {
		return "Каналы: нет данных."
	}
	lines := []string{"Статистика по каналам:"}
	for _, st := range stats {
		lines = append(lines, fmt.Sprintf(
			"- %s (%s): постов просмотрено %d, вакансий отсмотрено %d, выбрано %d",
			st.Title, st.Ref, st.FetchedPosts, st.Detected, st.Selected))
	}
	return strings.Join(lines, "\n")
}
