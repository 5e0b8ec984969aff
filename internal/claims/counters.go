package claims

import (
	"encoding/json"
	"fmt"
	"time"
)

// KV is the persisted slot the ledger lives in. A missing key reads as "".
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

const counterKey = "daily_claim_counters"

// Counters is the per-day accumulator of processed items: one delta per
// claim, one for claim-less items, and the day total.
type Counters struct {
	Date   string         `json:"date"`
	Claims map[string]int `json:"claims"`
	Other  int            `json:"other"`
	Total  int            `json:"total"`
}

// Ledger merges per-run deltas into the per-day counters kept in a KV slot.
// The day boundary follows the configured time zone; the structure resets to
// zero when the stored date differs from today.
type Ledger struct {
	kv  KV
	loc *time.Location
}

// NewLedger creates a ledger with day boundaries in time zone tz.
func NewLedger(kv KV, tz string) (*Ledger, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tz, err)
	}
	return &Ledger{kv: kv, loc: loc}, nil
}

func (l *Ledger) today() string {
	return time.Now().In(l.loc).Format("2006-01-02")
}

func zeroCounters(date string) Counters {
	return Counters{Date: date, Claims: make(map[string]int)}
}

// Load reads today's counters. A missing, corrupted, or stale persisted
// shape falls back to an all-zero structure for the current date rather
// than failing.
func (l *Ledger) Load() Counters {
	today := l.today()

	raw, err := l.kv.Get(counterKey)
	if err != nil || raw == "" {
		return zeroCounters(today)
	}

	var c Counters
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return zeroCounters(today)
	}
	if c.Date != today {
		return zeroCounters(today)
	}
	if c.Claims == nil {
		c.Claims = make(map[string]int)
	}
	return c
}

// Record merges one run's correlation outcome into today's counters and
// persists the result: +1 per item, attributed to its claim or to "other".
func (l *Ledger) Record(groups []Group, other []Item) (Counters, error) {
	c := l.Load()

	for _, g := range groups {
		c.Claims[g.ClaimID] += len(g.Items)
		c.Total += len(g.Items)
	}
	c.Other += len(other)
	c.Total += len(other)

	data, err := json.Marshal(c)
	if err != nil {
		return c, fmt.Errorf("marshaling counters: %w", err)
	}
	if err := l.kv.Set(counterKey, string(data)); err != nil {
		return c, fmt.Errorf("persisting counters: %w", err)
	}
	return c, nil
}
