// Package house reports new activity in residential house chats. Unlike the
// vacancy channels the raw messages are not forwarded; each chat gets one
// short summary line instead.
package house

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/avoronin/vestnik/internal/llm"
	"github.com/avoronin/vestnik/internal/source"
	"github.com/avoronin/vestnik/internal/store"
)

// Chat is one configured house chat read through its feed mirror.
type Chat struct {
	Name    string
	FeedURL string
}

// ChatStats is the per-chat run outcome shown in the stats footer.
type ChatStats struct {
	House           string
	Ref             string
	Title           string
	FetchedMessages int
}

// Runner executes house chat digest runs.
type Runner struct {
	store     *store.Store
	fetcher   source.Fetcher
	provider  llm.Provider
	chats     []Chat
	limit     int
	maxTokens int
}

// NewRunner wires the house chat pipeline. provider may be nil; summaries
// then degrade to message counts. A non-positive fetchLimit falls back to
// the source default.
func NewRunner(st *store.Store, fetcher source.Fetcher, provider llm.Provider, chats []Chat, fetchLimit, maxTokens int) *Runner {
	return &Runner{
		store:     st,
		fetcher:   fetcher,
		provider:  provider,
		chats:     chats,
		limit:     source.EffectiveFetchLimit(fetchLimit),
		maxTokens: maxTokens,
	}
}

// Run summarizes new messages of every configured chat. Returns the report
// text, the number of new messages seen and per-chat stats. Chat cursors
// advance past every fetched message.
func (r *Runner) Run(ctx context.Context) (string, int, []ChatStats, error) {
	if len(r.chats) == 0 {
		return "Не настроены домовые чаты.", 0, nil, nil
	}

	lines := []string{"Отчёт по домовым чатам:"}
	total := 0
	var stats []ChatStats

	for _, ch := range r.chats {
		lastID, err := r.store.HouseChatCursor(ch.Name)
		if err != nil {
			return "", 0, stats, err
		}

		feed, err := r.fetcher.Fetch(ctx, ch.FeedURL, lastID, r.limit)
		if err != nil {
			return "", 0, stats, fmt.Errorf("house chat %s: %w", ch.Name, err)
		}
		title := feed.Title
		if title == "" {
			title = ch.Name
		}

		maxSeen := lastID
		var rendered []string
		for _, msg := range feed.Posts {
			if msg.ID > maxSeen {
				maxSeen = msg.ID
			}
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				continue
			}
			rendered = append(rendered, fmt.Sprintf("[%s] %s", formatDate(msg.Date), text))
		}

		if err := r.store.SetHouseChatCursor(ch.Name, maxSeen); err != nil {
			return "", 0, stats, err
		}
		total += len(feed.Posts)
		stats = append(stats, ChatStats{
			House:           ch.Name,
			Ref:             ch.FeedURL,
			Title:           title,
			FetchedMessages: len(feed.Posts),
		})

		summary := "новых обсуждений нет"
		if len(rendered) > 0 {
			summary = r.summarize(ctx, ch.Name, strings.Join(rendered, "\n"), len(rendered))
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", ch.Name, summary))
		log.Printf("House chat %s processed: fetched_messages=%d, last_id=%d",
			ch.Name, len(feed.Posts), maxSeen)
	}

	text := strings.Join(lines, "\n")
	if _, err := r.store.InsertDigest("house", text, total, 0); err != nil {
		log.Printf("Archiving house chats digest failed: %v", err)
	}
	return text, total, stats, nil
}

// summarize asks for a one-line recap of a chat's new messages. Without a
// provider, or when generation fails, the message count stands in.
func (r *Runner) summarize(ctx context.Context, houseName, blob string, count int) string {
	fallback := fmt.Sprintf("новых сообщений: %d (сводка недоступна)", count)
	if r.provider == nil {
		return fallback
	}
	out, err := r.provider.Generate(ctx, summaryPrompt(houseName, blob), r.maxTokens)
	if err != nil {
		log.Printf("House chat summary failed for %s: %v", houseName, err)
		return fallback
	}
	out = llm.SingleLine(out)
	if out == "" {
		return fallback
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown-date"
	}
	return t.Format("2006-01-02 15:04")
}

// FormatStats renders the per-chat statistics footer.
func FormatStats(stats []ChatStats) string {
	if len(stats) == 0 {
		return "Чаты домов: нет данных."
	}
	lines := []string{"Статистика по чатам домов:"}
	for _, st := range stats {
		lines = append(lines, fmt.Sprintf(
			"- %s (%s, %s): сообщений просмотрено %d",
			st.House, st.Title, st.Ref, st.FetchedMessages))
	}
	return strings.Join(lines, "\n")
}
