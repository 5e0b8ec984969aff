package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	readability "github.com/go-shiori/go-readability"

	"github.com/avoronin/vestnik/internal/htmltext"
)

// Email is one parsed inbox message.
type Email struct {
	UID      uint32
	FromName string
	FromAddr string
	Subject  string
	Date     string
	Body     string
}

// Parse decodes a raw RFC 822 message. text/plain is preferred; HTML-only
// messages are reduced to text. Attachments are ignored.
func Parse(uid uint32, raw []byte) (*Email, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message %d: %w", uid, err)
	}

	e := &Email{UID: uid}

	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		e.FromName = strings.TrimSpace(addrs[0].Name)
		e.FromAddr = strings.TrimSpace(addrs[0].Address)
	}
	if subject, err := mr.Header.Subject(); err == nil {
		e.Subject = strings.TrimSpace(subject)
	}
	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		e.Date = date.Format("2006-01-02 15:04:05 -0700")
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ctype, _, err := h.ContentType()
		if err != nil {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}

		switch ctype {
		case "text/plain":
			if plain == "" {
				plain = string(data)
			}
		case "text/html":
			if html == "" {
				html = string(data)
			}
		}
	}

	switch {
	case plain != "":
		e.Body = strings.TrimSpace(plain)
	case html != "":
		e.Body = strings.TrimSpace(htmlToText(html))
	}

	return e, nil
}

// htmlToText extracts readable text from an HTML body. Readability handles
// heavily templated marketing mail well; simple fragments fall through to a
// plain tag strip.
func htmlToText(src string) string {
	base, _ := url.Parse("message://inline")
	article, err := readability.FromReader(strings.NewReader(src), base)
	if err == nil {
		if text := strings.TrimSpace(article.TextContent); len(text) > 100 {
			return text
		}
	}
	return htmltext.Text(src)
}

// FromLabel builds the "Name (domain)" display label used in digests.
func (e *Email) FromLabel() string {
	domain := ""
	if i := strings.LastIndex(e.FromAddr, "@"); i >= 0 {
		domain = strings.ToLower(e.FromAddr[i+1:])
	}

	switch {
	case e.FromName != "" && domain != "":
		return fmt.Sprintf("%s (%s)", e.FromName, domain)
	case e.FromName != "":
		return e.FromName
	case domain != "":
		return domain
	case e.FromAddr != "":
		return e.FromAddr
	}
	return "unknown"
}
