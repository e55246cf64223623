package httpclient

import (
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	"protoclient/internal/wire"
)

// Header maps lower-cased header names to their values in arrival order.
type Header map[string][]string

func (h Header) Add(name, value string) {
	key := strings.ToLower(name)
	h[key] = append(h[key], value)
}

// Values returns every value received for name, ignoring case.
func (h Header) Values(name string) []string {
	return h[strings.ToLower(name)]
}

// Get returns the first value for name, or "" when the header is absent.
func (h Header) Get(name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (h Header) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// Keys returns the header names in sorted order.
func (h Header) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Response struct {
	StatusCode    int
	StatusMessage string
	Headers       Header
	Body          string
}

func (r *Response) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %d %s\n", r.StatusCode, r.StatusMessage)
	b.WriteString("Headers:\n")
	for _, name := range r.Headers.Keys() {
		for _, value := range r.Headers[name] {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	fmt.Fprintf(&b, "Body Length: %d\n", len(r.Body))
	return b.String()
}

// ReadResponse parses a status line, a header block and a body from r. The
// body runs to end of stream, so r must belong to a connection the server
// closes after responding.
func ReadResponse(r *textproto.Reader) (*Response, error) {
	statusLine, err := r.ReadLine()
	if err != nil {
		if wire.IsEOF(err) {
			return nil, wire.ProtocolError("read status line", "", fmt.Errorf("empty response"))
		}
		return nil, wire.ProtocolError("read status line", "", err)
	}

	resp := &Response{Headers: Header{}}
	if err := parseStatusLine(statusLine, resp); err != nil {
		return nil, err
	}

	if err := readHeaders(r, resp.Headers); err != nil {
		return nil, err
	}

	body, err := readBody(r)
	if err != nil {
		return nil, err
	}
	resp.Body = body

	return resp, nil
}

func parseStatusLine(line string, resp *Response) error {
	fields := splitFields(line, 3)
	if len(fields) == 0 {
		return wire.ProtocolError("parse status line", line, fmt.Errorf("empty response"))
	}
	if len(fields) < 2 {
		return wire.ProtocolError("parse status line", line, fmt.Errorf("missing status code"))
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return wire.ProtocolError("parse status line", line, fmt.Errorf("invalid status code %q", fields[1]))
	}
	resp.StatusCode = code
	if len(fields) == 3 {
		resp.StatusMessage = fields[2]
	}
	return nil
}

// splitFields splits s on runs of spaces or tabs into at most n fields; the
// last field keeps its inner whitespace.
func splitFields(s string, n int) []string {
	var fields []string
	s = strings.TrimLeft(s, " \t")
	for s != "" && len(fields) < n-1 {
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			break
		}
		fields = append(fields, s[:i])
		s = strings.TrimLeft(s[i:], " \t")
	}
	if s != "" {
		fields = append(fields, strings.TrimRight(s, " \t"))
	}
	return fields
}

func readHeaders(r *textproto.Reader, headers Header) error {
	var lastKey string
	for {
		line, err := r.ReadLine()
		if err != nil {
			if wire.IsEOF(err) {
				return nil
			}
			return wire.ProtocolError("read headers", "", err)
		}
		if line == "" {
			return nil
		}

		if line[0] == ' ' || line[0] == '\t' {
			if lastKey != "" {
				values := headers[lastKey]
				values[len(values)-1] += " " + strings.TrimSpace(line)
			}
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.ToLower(strings.TrimSpace(name))
		headers[lastKey] = append(headers[lastKey], strings.TrimSpace(value))
	}
}

func readBody(r *textproto.Reader) (string, error) {
	var body strings.Builder
	for {
		line, err := r.ReadLine()
		if err != nil {
			if err == io.EOF {
				return body.String(), nil
			}
			return "", wire.ProtocolError("read body", "", err)
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
}
