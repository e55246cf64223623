package httpclient

import (
	"bufio"
	"net/textproto"
	"strings"
	"testing"

	"protoclient/internal/wire"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, raw string) (*Response, error) {
	t.Helper()
	return ReadResponse(textproto.NewReader(bufio.NewReader(strings.NewReader(raw))))
}

func TestReadResponse(t *testing.T) {
	t.Run("status line with message", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 404 Not Found\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, 404, resp.StatusCode)
		require.Equal(t, "Not Found", resp.StatusMessage)
		require.Empty(t, resp.Headers)
		require.Empty(t, resp.Body)
	})

	t.Run("status line without message", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 204\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, 204, resp.StatusCode)
		require.Equal(t, "", resp.StatusMessage)
	})

	t.Run("message keeps inner spaces", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.0 500 Internal  Server Error\r\n")
		require.NoError(t, err)
		require.Equal(t, 500, resp.StatusCode)
		require.Equal(t, "Internal  Server Error", resp.StatusMessage)
	})

	t.Run("repeated headers keep order", func(t *testing.T) {
		raw := "HTTP/1.1 200 OK\r\n" +
			"Set-Cookie: a=1\r\n" +
			"Content-Type: text/html\r\n" +
			"set-cookie: b=2\r\n" +
			"\r\n"
		resp, err := parse(t, raw)
		require.NoError(t, err)
		require.Equal(t, []string{"a=1", "b=2"}, resp.Headers.Values("Set-Cookie"))
		require.Equal(t, []string{"a=1", "b=2"}, resp.Headers.Values("set-cookie"))
		require.Equal(t, resp.Headers.Get("Content-Type"), resp.Headers.Get("content-type"))
		require.Equal(t, "text/html", resp.Headers.Get("CONTENT-TYPE"))
		require.Equal(t, []string{"content-type", "set-cookie"}, resp.Headers.Keys())
	})

	t.Run("header split on first colon and trimmed", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 200 OK\r\nLocation :  http://example.com:8080/x  \r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, "http://example.com:8080/x", resp.Headers.Get("location"))
	})

	t.Run("malformed header lines are skipped", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 200 OK\r\nnot a header\r\nX-Ok: yes\r\n\r\nbody\r\n")
		require.NoError(t, err)
		require.Equal(t, []string{"x-ok"}, resp.Headers.Keys())
		require.Equal(t, "body\n", resp.Body)
	})

	t.Run("folded header continues previous value", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 200 OK\r\nX-Long: first\r\n\tsecond\r\n  third\r\n\r\n")
		require.NoError(t, err)
		require.Equal(t, "first second third", resp.Headers.Get("x-long"))
	})

	t.Run("body lines joined with newline", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 200 OK\r\nContent-Length: 11\r\n\r\nline1\r\n\r\nline3")
		require.NoError(t, err)
		require.Equal(t, "line1\n\nline3\n", resp.Body)
	})

	t.Run("headers until end of stream", func(t *testing.T) {
		resp, err := parse(t, "HTTP/1.1 200 OK\r\nServer: test")
		require.NoError(t, err)
		require.Equal(t, "test", resp.Headers.Get("server"))
		require.Empty(t, resp.Body)
	})

	t.Run("empty stream", func(t *testing.T) {
		resp, err := parse(t, "")
		require.ErrorIs(t, err, wire.ErrProtocol)
		require.Nil(t, resp)
		require.Contains(t, err.Error(), "empty response")
	})

	t.Run("empty first line", func(t *testing.T) {
		resp, err := parse(t, "\r\nHTTP/1.1 200 OK\r\n\r\n")
		require.ErrorIs(t, err, wire.ErrProtocol)
		require.Nil(t, resp)
	})

	t.Run("invalid status code", func(t *testing.T) {
		_, err := parse(t, "HTTP/1.1 abc OK\r\n\r\n")
		require.ErrorIs(t, err, wire.ErrProtocol)

		_, err = parse(t, "HTTP/1.1\r\n\r\n")
		require.ErrorIs(t, err, wire.ErrProtocol)
	})
}

func TestSplitFields(t *testing.T) {
	require.Equal(t, []string{"HTTP/1.1", "200", "OK"}, splitFields("HTTP/1.1 200 OK", 3))
	require.Equal(t, []string{"HTTP/1.1", "200"}, splitFields("HTTP/1.1   200  ", 3))
	require.Equal(t, []string{"a", "b", "c d  e"}, splitFields("a b c d  e", 3))
	require.Nil(t, splitFields("   ", 3))
}

func TestResponseString(t *testing.T) {
	resp := &Response{
		StatusCode:    200,
		StatusMessage: "OK",
		Headers:       Header{"content-type": {"text/plain"}},
		Body:          "hello\n",
	}
	out := resp.String()
	require.Contains(t, out, "Status: 200 OK\n")
	require.Contains(t, out, "content-type: text/plain\n")
	require.Contains(t, out, "Body Length: 6\n")
}
