package httpclient

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"

	"protoclient/internal/wire"
)

const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"

	DefaultPort = 80
	formContent = "application/x-www-form-urlencoded"
)

// Target is the connection address and request path extracted from a URL.
type Target struct {
	Host string
	Port int
	Path string
}

// ParseTarget splits an absolute http URL into host, port and the
// request-target sent on the request line.
func ParseTarget(rawURL string) (Target, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Target{}, wire.ProtocolError("parse url", "", err)
	}
	if u.Scheme != "" && u.Scheme != "http" {
		return Target{}, wire.ProtocolError("parse url", "", fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	t := Target{Host: u.Hostname(), Port: DefaultPort, Path: u.EscapedPath()}
	if t.Host == "" {
		return Target{}, wire.ProtocolError("parse url", "", fmt.Errorf("missing host in %q", rawURL))
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Target{}, wire.ProtocolError("parse url", "", fmt.Errorf("invalid port %q", p))
		}
		t.Port = port
	}
	if t.Path == "" {
		t.Path = "/"
	}
	if u.RawQuery != "" || u.ForceQuery {
		t.Path += "?" + u.RawQuery
	}
	return t, nil
}

// hasBody reports whether method carries a form body and its headers.
func hasBody(method string) bool {
	return method == MethodPost || method == MethodPut
}

// BuildRequest renders the request bytes for method on t. The body follows
// the blank line without a trailing terminator, and Content-Length is its
// exact byte count.
func BuildRequest(method string, t Target, body []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", method, t.Path)
	fmt.Fprintf(&buf, "Host: %s\r\n", t.Host)
	if hasBody(method) {
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", formContent)
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	}
	buf.WriteString("Connection: close\r\n")
	buf.WriteString("\r\n")
	if hasBody(method) {
		buf.Write(body)
	}
	return buf.Bytes()
}
