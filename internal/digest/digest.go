// Package digest runs the mailbox pipeline: fetch new mail, summarize each
// message, correlate by claim and assemble the final plain-text digest.
package digest

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/avoronin/vestnik/internal/claims"
	"github.com/avoronin/vestnik/internal/llm"
	"github.com/avoronin/vestnik/internal/mailbox"
	"github.com/avoronin/vestnik/internal/store"
)

// Mailer is the IMAP surface the pipeline needs. The real implementation is
// mailbox.Client; tests substitute a fake.
type Mailer interface {
	SelectFolder(folder string) (uint32, error)
	UIDsSince(lastUID uint32, maxResults int) ([]uint32, error)
	FetchRaw(uid uint32) ([]byte, error)
	Close() error
}

// Config tunes one pipeline run.
type Config struct {
	Folder           string
	MaxEmails        int
	MaxCharsPerEmail int
	SummaryMaxTokens int
	DigestMaxTokens  int
}

// Runner executes mailbox digest runs.
type Runner struct {
	store    *store.Store
	ledger   *claims.Ledger
	provider llm.Provider
	dial     func() (Mailer, error)
	cfg      Config
}

// NewRunner wires the pipeline. provider may be nil; the digest then falls
// back to fully deterministic output.
func NewRunner(st *store.Store, ledger *claims.Ledger, provider llm.Provider, dial func() (Mailer, error), cfg Config) *Runner {
	return &Runner{store: st, ledger: ledger, provider: provider, dial: dial, cfg: cfg}
}

type failedItem struct {
	FromLabel string
	Subject   string
	Reason    string
}

// Run fetches and digests new mail. Returns the digest text, the number of
// emails seen and the number that could not be processed. The mailbox cursor
// advances even past failed items so nothing is reprocessed.
func (r *Runner) Run(ctx context.Context) (string, int, int, error) {
	lastUID, err := r.store.LastUID()
	if err != nil {
		return "", 0, 0, err
	}
	oldValidity, err := r.store.UIDValidity()
	if err != nil {
		return "", 0, 0, err
	}

	m, err := r.dial()
	if err != nil {
		return "", 0, 0, err
	}
	defer m.Close()

	validity, err := m.SelectFolder(r.cfg.Folder)
	if err != nil {
		return "", 0, 0, err
	}
	if validity != 0 {
		vstr := strconv.FormatUint(uint64(validity), 10)
		if oldValidity != "" && oldValidity != vstr {
			log.Printf("UIDVALIDITY changed (%s -> %s), resetting mailbox cursor", oldValidity, vstr)
			lastUID = 0
		}
		if err := r.store.SetUIDValidity(vstr); err != nil {
			return "", 0, 0, err
		}
	}

	uids, err := m.UIDsSince(lastUID, r.cfg.MaxEmails)
	if err != nil {
		return "", 0, 0, err
	}
	if len(uids) == 0 {
		return fmt.Sprintf("Новых писем в папке %s нет.", r.cfg.Folder), 0, 0, nil
	}

	var items []claims.Item
	var failed []failedItem
	maxUID := lastUID
	seq := 0

	for _, uid := range uids {
		if uid > maxUID {
			maxUID = uid
		}

		raw, err := m.FetchRaw(uid)
		if err != nil {
			return "", 0, 0, fmt.Errorf("fetching UID %d: %w", uid, err)
		}

		email, err := mailbox.Parse(uid, raw)
		if err != nil {
			log.Printf("Parse failed for UID %d: %v", uid, err)
			failed = append(failed, failedItem{FromLabel: "unknown", Subject: "", Reason: err.Error()})
			continue
		}

		label := email.FromLabel()
		body := mailbox.Clean(email.Body, r.cfg.MaxCharsPerEmail)

		summary, err := r.summarize(ctx, email.Subject, label, body)
		if err != nil {
			log.Printf("Summarize failed for UID %d: %v", uid, err)
			failed = append(failed, failedItem{FromLabel: label, Subject: email.Subject, Reason: err.Error()})
			continue
		}

		seq++
		items = append(items, claims.Item{
			Seq:       seq,
			FromLabel: label,
			Subject:   email.Subject,
			Summary:   summary,
		})
	}

	// Advance past everything seen, including failed items.
	if err := r.store.SetLastUID(maxUID); err != nil {
		return "", 0, 0, err
	}

	groups, other := claims.Correlate(items)
	counters, err := r.ledger.Record(groups, other)
	if err != nil {
		log.Printf("Recording counters failed: %v", err)
	}

	summaryText := summaryBlock(len(items), len(failed), groups, other, counters)
	claimsText := claimsBlock(groups)

	text := r.compose(ctx, summaryText, claimsText, other, failed)

	total := len(items) + len(failed)
	if _, err := r.store.InsertDigest("mail", text, total, len(failed)); err != nil {
		log.Printf("Archiving digest failed: %v", err)
	}
	return text, total, len(failed), nil
}

// summarize produces the one-line per-email summary. Without a provider the
// subject itself stands in, so the pipeline keeps working offline.
func (r *Runner) summarize(ctx context.Context, subject, fromLabel, body string) (string, error) {
	if r.provider == nil {
		return llm.SingleLine(subject), nil
	}
	out, err := r.provider.Generate(ctx, summaryPrompt(subject, fromLabel, body), r.cfg.SummaryMaxTokens)
	if err != nil {
		return "", err
	}
	line := llm.SingleLine(out)
	if line == "" {
		return "", fmt.Errorf("empty summary from model")
	}
	return line, nil
}

// compose assembles the final digest. The summary and claims blocks are
// computed by code and passed through verbatim; the model only themes the
// claim-less remainder. Any model failure falls back to deterministic output.
func (r *Runner) compose(ctx context.Context, summaryText, claimsText string, other []claims.Item, failed []failedItem) string {
	if r.provider == nil {
		return renderFallback(summaryText, claimsText, other, failed)
	}

	prompt := digestPrompt(summaryText, claimsText, other, failed)
	out, err := r.provider.Generate(ctx, prompt, r.cfg.DigestMaxTokens)
	if err != nil {
		log.Printf("Digest composition failed, using deterministic fallback: %v", err)
		return renderFallback(summaryText, claimsText, other, failed)
	}
	text := llm.Sanitize(out)
	if text == "" {
		return renderFallback(summaryText, claimsText, other, failed)
	}
	return text
}
