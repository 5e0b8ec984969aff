// Package mailbox reads new mail over IMAP and turns raw messages into
// cleaned plain-text bodies ready for summarization.
package mailbox

import (
	"fmt"
	"io"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Client wraps an IMAP connection to a single account.
type Client struct {
	conn *client.Client
}

// Dial connects over TLS and logs in.
func Dial(host string, port int, user, password string) (*Client, error) {
	conn, err := client.DialTLS(fmt.Sprintf("%s:%d", host, port), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s:%d: %w", host, port, err)
	}

	if err := conn.Login(user, password); err != nil {
		conn.Logout()
		return nil, fmt.Errorf("IMAP login for %s: %w", user, err)
	}

	return &Client{conn: conn}, nil
}

// Close logs out and drops the connection.
func (c *Client) Close() error {
	return c.conn.Logout()
}

// SelectFolder opens a folder read-only and returns its UIDVALIDITY.
func (c *Client) SelectFolder(folder string) (uint32, error) {
	status, err := c.conn.Select(folder, true)
	if err != nil {
		return 0, fmt.Errorf("selecting folder %s: %w", folder, err)
	}
	return status.UidValidity, nil
}

// UIDsSince returns UIDs strictly greater than lastUID, ascending, capped at
// maxResults newest entries.
func (c *Client) UIDsSince(lastUID uint32, maxResults int) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	set := new(imap.SeqSet)
	set.AddRange(lastUID+1, 0)
	criteria.Uid = set

	uids, err := c.conn.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("UID search: %w", err)
	}

	// Servers answer "N:*" with at least the last message even when nothing
	// is new, so filter explicitly.
	fresh := uids[:0]
	for _, uid := range uids {
		if uid > lastUID {
			fresh = append(fresh, uid)
		}
	}

	if maxResults > 0 && len(fresh) > maxResults {
		fresh = fresh[len(fresh)-maxResults:]
	}
	return fresh, nil
}

// FetchRaw downloads the full RFC 822 body of one message.
func (c *Client) FetchRaw(uid uint32) ([]byte, error) {
	set := new(imap.SeqSet)
	set.AddNum(uid)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.conn.UidFetch(set, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("reading message %d: %w", uid, err)
		}
		raw = data
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("UID fetch for %d: %w", uid, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("no body returned for UID %d", uid)
	}
	return raw, nil
}
