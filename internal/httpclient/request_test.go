package httpclient

import (
	"testing"

	"protoclient/internal/wire"

	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Target
	}{
		{"defaults", "http://example.com", Target{Host: "example.com", Port: 80, Path: "/"}},
		{"explicit port and path", "http://localhost:8080/api/items", Target{Host: "localhost", Port: 8080, Path: "/api/items"}},
		{"query appended", "http://httpbin.org/get?a=1&b=2", Target{Host: "httpbin.org", Port: 80, Path: "/get?a=1&b=2"}},
		{"query without path", "http://httpbin.org?x=y", Target{Host: "httpbin.org", Port: 80, Path: "/?x=y"}},
		{"empty query kept", "http://httpbin.org/get?", Target{Host: "httpbin.org", Port: 80, Path: "/get?"}},
		{"fragment dropped", "http://example.com/a#top", Target{Host: "example.com", Port: 80, Path: "/a"}},
		{"ipv6 host", "http://[::1]:9000/", Target{Host: "::1", Port: 9000, Path: "/"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTarget(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/",
		"ftp://example.com/",
		"example.com/path",
		"http://example.com:99999/",
		"http://%zz/",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseTarget(raw)
			require.ErrorIs(t, err, wire.ErrProtocol)
		})
	}
}

func TestBuildRequest(t *testing.T) {
	target := Target{Host: "httpbin.org", Port: 80, Path: "/post"}

	t.Run("post carries form headers and raw body", func(t *testing.T) {
		got := string(BuildRequest(MethodPost, target, []byte("name=Augustas&age=21")))
		require.Equal(t, "POST /post HTTP/1.1\r\n"+
			"Host: httpbin.org\r\n"+
			"Content-Type: application/x-www-form-urlencoded\r\n"+
			"Content-Length: 20\r\n"+
			"Connection: close\r\n"+
			"\r\n"+
			"name=Augustas&age=21", got)
	})

	t.Run("put with empty body", func(t *testing.T) {
		got := string(BuildRequest(MethodPut, target, nil))
		require.Contains(t, got, "Content-Length: 0\r\n")
		require.True(t, len(got) > 4 && got[len(got)-4:] == "\r\n\r\n")
	})

	t.Run("get ignores body", func(t *testing.T) {
		got := string(BuildRequest(MethodGet, Target{Host: "example.com", Path: "/"}, []byte("ignored")))
		require.Equal(t, "GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n", got)
	})

	t.Run("delete", func(t *testing.T) {
		got := string(BuildRequest(MethodDelete, Target{Host: "example.com", Path: "/delete"}, nil))
		require.Equal(t, "DELETE /delete HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n", got)
	})

	t.Run("content length counts bytes", func(t *testing.T) {
		got := string(BuildRequest(MethodPost, target, []byte("ąčę")))
		require.Contains(t, got, "Content-Length: 6\r\n")
	})
}
