package digest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/avoronin/vestnik/internal/claims"
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

func testLedger(t *testing.T, s *store.Store) *claims.Ledger {
	t.Helper()
	l, err := claims.NewLedger(s, "UTC")
	if err != nil {
		t.Fatalf("creating ledger: %v", err)
	}
	return l
}

type fakeMailer struct {
	validity uint32
	msgs     map[uint32][]byte
}

func (f *fakeMailer) SelectFolder(string) (uint32, error) { return f.validity, nil }

func (f *fakeMailer) UIDsSince(last uint32, max int) ([]uint32, error) {
	var uids []uint32
	for uid := range f.msgs {
		if uid > last {
			uids = append(uids, uid)
		}
	}
	for i := 0; i < len(uids); i++ {
		for j := i + 1; j < len(uids); j++ {
			if uids[j] < uids[i] {
				uids[i], uids[j] = uids[j], uids[i]
			}
		}
	}
	if max > 0 && len(uids) > max {
		uids = uids[len(uids)-max:]
	}
	return uids, nil
}

func (f *fakeMailer) FetchRaw(uid uint32) ([]byte, error) {
	raw, ok := f.msgs[uid]
	if !ok {
		return nil, fmt.Errorf("no message %d", uid)
	}
	return raw, nil
}

func (f *fakeMailer) Close() error { return nil }

// mockProvider fails whenever the prompt contains failOn.
type mockProvider struct {
	resp   string
	failOn string
}

func (p *mockProvider) IsConfigured() bool { return true }

func (p *mockProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	if p.failOn != "" && strings.Contains(prompt, p.failOn) {
		return "", fmt.Errorf("model refused")
	}
	return p.resp, nil
}

func rawEmail(from, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + body + "\r\n")
}

func testRunner(s *store.Store, l *claims.Ledger, m Mailer, p *mockProvider) *Runner {
	cfg := Config{Folder: "INBOX/ONLINE", MaxEmails: 80, MaxCharsPerEmail: 20000}
	dial := func() (Mailer, error) { return m, nil }
	if p == nil {
		return NewRunner(s, l, nil, dial, cfg)
	}
	return NewRunner(s, l, p, dial, cfg)
}

func TestRunNoNewMail(t *testing.T) {
	s := openTestStore(t)
	m := &fakeMailer{validity: 1, msgs: map[uint32][]byte{}}
	r := testRunner(s, testLedger(t, s), m, nil)

	text, total, failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 0 || failed != 0 {
		t.Errorf("total=%d failed=%d", total, failed)
	}
	if !strings.Contains(text, "Новых писем") {
		t.Errorf("text = %q", text)
	}
}

func TestRunFallbackDigest(t *testing.T) {
	s := openTestStore(t)
	m := &fakeMailer{validity: 1, msgs: map[uint32][]byte{
		3: rawEmail("Anna <anna@corp.ru>", "Re: заявка 12345-АБ", "Договор готов"),
		5: rawEmail("Boris <boris@corp.ru>", "По заявке 12345-АБ", "Оплата прошла"),
		7: rawEmail("news@corp.ru", "Новости компании", "Что-то случилось"),
	}}
	r := testRunner(s, testLedger(t, s), m, nil)

	text, total, failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 3 || failed != 0 {
		t.Errorf("total=%d failed=%d", total, failed)
	}
	if !strings.Contains(text, "СВОДКА:") {
		t.Errorf("missing summary block: %q", text)
	}
	if !strings.Contains(text, "[12345-АБ]") {
		t.Errorf("missing claim group: %q", text)
	}
	if !strings.Contains(text, "Anna (corp.ru)") || !strings.Contains(text, "Boris (corp.ru)") {
		t.Errorf("missing claim items: %q", text)
	}
	if !strings.Contains(text, "ПРОЧЕЕ:") || !strings.Contains(text, "Новости компании") {
		t.Errorf("missing other block: %q", text)
	}
	if strings.Contains(text, "НЕ ОБРАБОТАНО") {
		t.Errorf("unexpected failed block: %q", text)
	}

	uid, err := s.LastUID()
	if err != nil || uid != 7 {
		t.Errorf("cursor = %d, err %v", uid, err)
	}

	digests, err := s.RecentDigests(10)
	if err != nil || len(digests) != 1 {
		t.Fatalf("digests = %v, err %v", digests, err)
	}
	if digests[0].Kind != "mail" || digests[0].ItemCount != 3 {
		t.Errorf("archived digest = %+v", digests[0])
	}
}

func TestRunAdvancesCursorPastFailures(t *testing.T) {
	s := openTestStore(t)
	m := &fakeMailer{validity: 1, msgs: map[uint32][]byte{
		1: rawEmail("ok@corp.ru", "Обычное письмо", "текст"),
		2: rawEmail("bad@corp.ru", "Проблемное письмо", "ЯД-МАРКЕР внутри"),
	}}
	p := &mockProvider{resp: "короткое содержание", failOn: "ЯД-МАРКЕР"}
	r := testRunner(s, testLedger(t, s), m, p)

	text, total, failed, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 2 || failed != 1 {
		t.Errorf("total=%d failed=%d", total, failed)
	}
	if text == "" {
		t.Error("empty digest")
	}

	uid, _ := s.LastUID()
	if uid != 2 {
		t.Errorf("cursor must advance past failed item, got %d", uid)
	}

	// Second run sees nothing new
	_, total2, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if total2 != 0 {
		t.Errorf("reprocessed items: total=%d", total2)
	}
}

func TestRunUIDValidityReset(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetLastUID(50); err != nil {
		t.Fatal(err)
	}
	if err := s.SetUIDValidity("111"); err != nil {
		t.Fatal(err)
	}

	// New validity on the server; UIDs below the stale cursor must be seen.
	m := &fakeMailer{validity: 222, msgs: map[uint32][]byte{
		4: rawEmail("a@corp.ru", "Письмо", "тело"),
	}}
	r := testRunner(s, testLedger(t, s), m, nil)

	_, total, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if total != 1 {
		t.Errorf("expected cursor reset to surface old UIDs, total=%d", total)
	}

	v, _ := s.UIDValidity()
	if v != "222" {
		t.Errorf("stored validity = %q", v)
	}
	uid, _ := s.LastUID()
	if uid != 4 {
		t.Errorf("cursor = %d", uid)
	}
}

func TestRunRecordsCounters(t *testing.T) {
	s := openTestStore(t)
	l := testLedger(t, s)
	m := &fakeMailer{validity: 1, msgs: map[uint32][]byte{
		1: rawEmail("a@corp.ru", "заявка 54321", "тело"),
		2: rawEmail("b@corp.ru", "без номера", "тело"),
	}}
	r := testRunner(s, l, m, nil)

	if _, _, _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	c := l.Load()
	if c.Total != 2 || c.Other != 1 || c.Claims["54321"] != 1 {
		t.Errorf("counters = %+v", c)
	}
}
