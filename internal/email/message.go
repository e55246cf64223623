package email

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

// Message is the readable view of a retrieved RFC 5322 message.
type Message struct {
	MessageID   string
	Subject     string
	From        string
	To          []string
	Cc          []string
	Date        time.Time
	TextBody    string
	HTMLBody    string
	Attachments []string
}

// Parse reads a message as returned by RETR. Bodies are decoded according to
// their transfer encoding and charset; attachments are listed by file name.
func Parse(raw string) (*Message, error) {
	r, err := mail.CreateReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer r.Close()

	header := r.Header
	msg := &Message{
		MessageID: firstHeaderValue(header, "Message-ID", "Message-Id"),
		From:      header.Get("From"),
		To:        addressList(header, "To"),
		Cc:        addressList(header, "Cc"),
	}
	if subject, err := header.Subject(); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = header.Get("Subject")
	}
	if date, err := header.Date(); err == nil {
		msg.Date = date
	}

	for {
		part, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return msg, fmt.Errorf("read message part: %w", err)
		}
		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if contentType == "" {
				// RFC 2045 default
				contentType = "text/plain"
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") && msg.TextBody == "":
				msg.TextBody = readAll(part.Body)
			case strings.HasPrefix(contentType, "text/html") && msg.HTMLBody == "":
				msg.HTMLBody = readAll(part.Body)
			}
		case *mail.AttachmentHeader:
			filename, err := h.Filename()
			if err != nil || filename == "" {
				filename = fmt.Sprintf("attachment-%d", len(msg.Attachments)+1)
			}
			msg.Attachments = append(msg.Attachments, filename)
		}
	}

	if msg.TextBody != "" && looksLikeHTML(msg.TextBody) {
		if msg.HTMLBody == "" {
			msg.HTMLBody = msg.TextBody
		}
		msg.TextBody = ""
	}

	return msg, nil
}

// ReadableBody returns the plain text body, falling back to the HTML body
// with tags stripped.
func (m *Message) ReadableBody() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return StripHTMLTags(m.HTMLBody)
}

func readAll(r io.Reader) string {
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(data)
}

func addressList(header mail.Header, field string) []string {
	list, err := header.AddressList(field)
	if err != nil {
		return parseEmailAddressesFallback(header.Get(field))
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		if addr.Address != "" {
			out = append(out, strings.ToLower(addr.Address))
		}
	}
	return out
}

func parseEmailAddressesFallback(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if start := strings.LastIndex(p, "<"); start != -1 {
			if end := strings.LastIndex(p, ">"); end > start {
				if addr := strings.TrimSpace(p[start+1 : end]); addr != "" {
					result = append(result, strings.ToLower(addr))
				}
				continue
			}
		}
		if strings.Contains(p, "@") {
			result = append(result, strings.ToLower(p))
		}
	}
	return result
}

func looksLikeHTML(value string) bool {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return false
	}
	return strings.HasPrefix(trimmed, "<!doctype") ||
		strings.HasPrefix(trimmed, "<html") ||
		strings.HasPrefix(trimmed, "<body") ||
		strings.Contains(trimmed, "<html")
}

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

func StripHTMLTags(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func firstHeaderValue(header mail.Header, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(header.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
