package house

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avoronin/vestnik/internal/source"
	"github.com/avoronin/vestnik/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakeFetcher struct {
	feeds map[string]*source.Feed
	// sinceSeen records the cursor each Fetch was called with.
	sinceSeen map[string]int64
}

func (f *fakeFetcher) Fetch(_ context.Context, feedURL string, sinceID int64, _ int) (*source.Feed, error) {
	if f.sinceSeen == nil {
		f.sinceSeen = make(map[string]int64)
	}
	f.sinceSeen[feedURL] = sinceID
	feed, ok := f.feeds[feedURL]
	if !ok {
		return nil, fmt.Errorf("no feed %s", feedURL)
	}
	out := &source.Feed{Title: feed.Title}
	for _, p := range feed.Posts {
		if p.ID > sinceID {
			out.Posts = append(out.Posts, p)
		}
	}
	return out, nil
}

type mockProvider struct {
	resp string
	fail bool
}

func (p *mockProvider) IsConfigured() bool { return true }

func (p *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	if p.fail {
		return "", fmt.Errorf("model refused")
	}
	return p.resp, nil
}

func chatFeed(posts ...source.Post) map[string]*source.Feed {
	return map[string]*source.Feed{
		"https://rss.local/dom1": {Title: "Чат дома 1", Posts: posts},
	}
}

func testChats() []Chat {
	return []Chat{{Name: "Дом 1", FeedURL: "https://rss.local/dom1"}}
}

func TestRunNoChats(t *testing.T) {
	s := openTestStore(t)
	r := NewRunner(s, &fakeFetcher{}, nil, nil, 50, 220)

	text, total, stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 || stats != nil {
		t.Errorf("total=%d stats=%v", total, stats)
	}
	if !strings.Contains(text, "Не настроены домовые чаты") {
		t.Errorf("text = %q", text)
	}
}

func TestRunSummarizesMessages(t *testing.T) {
	s := openTestStore(t)
	f := &fakeFetcher{feeds: chatFeed(
		source.Post{ID: 11, Text: "Отключили горячую воду", Date: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)},
		source.Post{ID: 12, Text: "Обещали включить к вечеру"},
	)}
	p := &mockProvider{resp: "Обсуждали отключение горячей воды, обещали включить к вечеру"}
	r := NewRunner(s, f, p, testChats(), 50, 220)

	text, total, stats, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d", total)
	}
	if !strings.Contains(text, "Отчёт по домовым чатам:") {
		t.Errorf("missing report header: %q", text)
	}
	if !strings.Contains(text, "- Дом 1: Обсуждали отключение горячей воды") {
		t.Errorf("missing chat summary: %q", text)
	}

	if len(stats) != 1 || stats[0].FetchedMessages != 2 || stats[0].Title != "Чат дома 1" {
		t.Errorf("stats = %+v", stats)
	}
	if id, _ := s.HouseChatCursor("Дом 1"); id != 12 {
		t.Errorf("cursor = %d", id)
	}

	st, _ := s.GetStats()
	if st.HouseDigests != 1 {
		t.Errorf("HouseDigests = %d, want 1", st.HouseDigests)
	}
}

func TestRunNoNewMessages(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetHouseChatCursor("Дом 1", 12); err != nil {
		t.Fatal(err)
	}
	f := &fakeFetcher{feeds: chatFeed(source.Post{ID: 12, Text: "старое"})}
	r := NewRunner(s, f, &mockProvider{resp: "не должно вызываться"}, testChats(), 50, 220)

	text, total, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d", total)
	}
	if !strings.Contains(text, "- Дом 1: новых обсуждений нет") {
		t.Errorf("text = %q", text)
	}
	if f.sinceSeen["https://rss.local/dom1"] != 12 {
		t.Errorf("fetch cursor = %d", f.sinceSeen["https://rss.local/dom1"])
	}
}

func TestRunSummaryFailureFallsBack(t *testing.T) {
	s := openTestStore(t)
	f := &fakeFetcher{feeds: chatFeed(
		source.Post{ID: 5, Text: "Сломался домофон"},
	)}
	r := NewRunner(s, f, &mockProvider{fail: true}, testChats(), 50, 220)

	text, _, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(text, "- Дом 1: новых сообщений: 1 (сводка недоступна)") {
		t.Errorf("text = %q", text)
	}
	if id, _ := s.HouseChatCursor("Дом 1"); id != 5 {
		t.Errorf("cursor = %d", id)
	}
}

func TestRunWithoutProvider(t *testing.T) {
	s := openTestStore(t)
	f := &fakeFetcher{feeds: chatFeed(source.Post{ID: 3, Text: "Собрание в субботу"})}
	r := NewRunner(s, f, nil, testChats(), 50, 220)

	text, _, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(text, "- Дом 1: новых сообщений: 1 (сводка недоступна)") {
		t.Errorf("text = %q", text)
	}
}

func TestFormatStats(t *testing.T) {
	got := FormatStats(nil)
	if got != "Чаты домов: нет данных." {
		t.Errorf("FormatStats(nil) = %q", got)
	}

	got = FormatStats([]ChatStats{{House: "Дом 1", Ref: "https://rss.local/dom1", Title: "Чат дома 1", FetchedMessages: 4}})
	want := "Статистика по чатам домов:\n- Дом 1 (Чат дома 1, https://rss.local/dom1): сообщений просмотрено 4"
	if got != want {
		t.Errorf("FormatStats = %q", got)
	}
}
