package wire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"time"
)

// DialFunc opens a stream connection to addr.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Dial connects to host:port. A zero timeout leaves the dial unbounded apart
// from ctx.
func Dial(ctx context.Context, dial DialFunc, host string, port int, timeout time.Duration) (net.Conn, error) {
	if dial == nil {
		d := &net.Dialer{Timeout: timeout}
		dial = d.DialContext
	} else if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, ConnectionError("dial "+addr, "", err)
	}
	return conn, nil
}

// Conn is a line-oriented view of a net.Conn. Every socket read and every
// flush refreshes the corresponding deadline when a timeout is configured.
type Conn struct {
	raw          net.Conn
	r            *textproto.Reader
	w            *bufio.Writer
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func NewConn(c net.Conn) *Conn {
	conn := &Conn{raw: c, w: bufio.NewWriter(c)}
	conn.r = textproto.NewReader(bufio.NewReader(timedReader{conn}))
	return conn
}

type timedReader struct {
	c *Conn
}

func (t timedReader) Read(p []byte) (int, error) {
	if t.c.ReadTimeout > 0 {
		if err := t.c.raw.SetReadDeadline(time.Now().Add(t.c.ReadTimeout)); err != nil {
			return 0, err
		}
	}
	return t.c.raw.Read(p)
}

// Reader exposes the buffered line reader for parsers that consume the rest
// of the stream.
func (c *Conn) Reader() *textproto.Reader {
	return c.r
}

// ReadLine returns the next line without its CRLF or LF terminator. A final
// unterminated line is returned as is; io.EOF is only reported when nothing
// at all was left to read.
func (c *Conn) ReadLine() (string, error) {
	return c.r.ReadLine()
}

// WriteLine writes format followed by CRLF and flushes.
func (c *Conn) WriteLine(format string, args ...any) error {
	if _, err := fmt.Fprintf(c.w, format, args...); err != nil {
		return err
	}
	if _, err := c.w.WriteString("\r\n"); err != nil {
		return err
	}
	return c.Flush()
}

// Write buffers raw bytes; call Flush to send them.
func (c *Conn) Write(p []byte) (int, error) {
	return c.w.Write(p)
}

func (c *Conn) Flush() error {
	if c.WriteTimeout > 0 {
		if err := c.raw.SetWriteDeadline(time.Now().Add(c.WriteTimeout)); err != nil {
			return err
		}
	}
	return c.w.Flush()
}

func (c *Conn) Close() error {
	return c.raw.Close()
}

// IsEOF reports whether err means the peer closed the stream.
func IsEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
