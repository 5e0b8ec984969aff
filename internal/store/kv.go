package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Get reads a kv slot. A missing key reads as "" with no error.
func (s *Store) Get(key string) (string, error) {
	var v string
	err := s.conn.QueryRow("SELECT v FROM kv WHERE k = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading kv %q: %w", key, err)
	}
	return v, nil
}

// Set writes a kv slot, replacing any previous value.
func (s *Store) Set(key, value string) error {
	_, err := s.conn.Exec(
		"INSERT INTO kv(k, v) VALUES(?, ?) ON CONFLICT(k) DO UPDATE SET v=excluded.v",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing kv %q: %w", key, err)
	}
	return nil
}

func (s *Store) getInt(key string) (int64, error) {
	v, err := s.Get(key)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// A mangled cursor restarts from zero rather than wedging the run.
		return 0, nil
	}
	return n, nil
}

// LastUID returns the highest processed mailbox UID.
func (s *Store) LastUID() (uint32, error) {
	n, err := s.getInt("last_uid")
	return uint32(n), err
}

// SetLastUID advances the mailbox cursor.
func (s *Store) SetLastUID(uid uint32) error {
	return s.Set("last_uid", strconv.FormatUint(uint64(uid), 10))
}

// UIDValidity returns the stored mailbox UIDVALIDITY, "" when unset.
func (s *Store) UIDValidity() (string, error) {
	return s.Get("uidvalidity")
}

// SetUIDValidity stores the mailbox UIDVALIDITY.
func (s *Store) SetUIDValidity(v string) error {
	return s.Set("uidvalidity", v)
}

// Paused reports whether scheduled digests are paused.
func (s *Store) Paused() (bool, error) {
	v, err := s.Get("paused")
	return v == "1", err
}

// SetPaused toggles the scheduled-digest pause flag.
func (s *Store) SetPaused(paused bool) error {
	v := "0"
	if paused {
		v = "1"
	}
	return s.Set("paused", v)
}

// ChannelCursor returns the last seen post ID for a channel.
func (s *Store) ChannelCursor(channel string) (int64, error) {
	return s.getInt("channel_last:" + channel)
}

// SetChannelCursor advances a channel's post cursor.
func (s *Store) SetChannelCursor(channel string, id int64) error {
	return s.Set("channel_last:"+channel, strconv.FormatInt(id, 10))
}

// HouseChatCursor returns the last seen message ID for a house chat.
func (s *Store) HouseChatCursor(chat string) (int64, error) {
	return s.getInt("house_last:" + chat)
}

// SetHouseChatCursor advances a house chat's message cursor.
func (s *Store) SetHouseChatCursor(chat string, id int64) error {
	return s.Set("house_last:"+chat, strconv.FormatInt(id, 10))
}
