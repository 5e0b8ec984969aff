package store

import "fmt"

// Digest is one archived digest run.
type Digest struct {
	ID          int64
	Kind        string // "mail", "jobs" or "house"
	Body        string
	ItemCount   int
	FailedCount int
	CreatedAt   string
}

// InsertDigest archives a sent digest and returns its ID.
func (s *Store) InsertDigest(kind, body string, itemCount, failedCount int) (int64, error) {
	res, err := s.conn.Exec(
		"INSERT INTO digests (kind, body, item_count, failed_count) VALUES (?, ?, ?, ?)",
		kind, body, itemCount, failedCount,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting digest: %w", err)
	}
	return res.LastInsertId()
}

// GetDigest returns one archived digest, nil when absent.
func (s *Store) GetDigest(id int64) (*Digest, error) {
	rows, err := s.conn.Query(
		`SELECT id, kind, body, item_count, failed_count, created_at
		FROM digests WHERE id = ?`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanDigests(rows)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

// RecentDigests returns the newest digests first, up to limit.
func (s *Store) RecentDigests(limit int) ([]Digest, error) {
	rows, err := s.conn.Query(
		`SELECT id, kind, body, item_count, failed_count, created_at
		FROM digests ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDigests(rows)
}

// Stats contains aggregate store statistics for the status command.
type Stats struct {
	MailDigests  int
	JobsDigests  int
	HouseDigests int
	LastUID      uint32
	Paused       bool
}

// GetStats collects the status snapshot.
func (s *Store) GetStats() (*Stats, error) {
	st := &Stats{}
	if err := s.conn.QueryRow(
		"SELECT COUNT(*) FROM digests WHERE kind = 'mail'",
	).Scan(&st.MailDigests); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRow(
		"SELECT COUNT(*) FROM digests WHERE kind = 'jobs'",
	).Scan(&st.JobsDigests); err != nil {
		return nil, err
	}
	if err := s.conn.QueryRow(
		"SELECT COUNT(*) FROM digests WHERE kind = 'house'",
	).Scan(&st.HouseDigests); err != nil {
		return nil, err
	}

	var err error
	if st.LastUID, err = s.LastUID(); err != nil {
		return nil, err
	}
	if st.Paused, err = s.Paused(); err != nil {
		return nil, err
	}
	return st, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanDigests(rows rowScanner) ([]Digest, error) {
	var list []Digest
	for rows.Next() {
		var d Digest
		if err := rows.Scan(&d.ID, &d.Kind, &d.Body, &d.ItemCount, &d.FailedCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
