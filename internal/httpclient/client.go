package httpclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"protoclient/internal/config"
	"protoclient/internal/logger"
	"protoclient/internal/metrics"
	"protoclient/internal/wire"
)

// Client sends one request per connection and closes it once the response
// has been read. A zero Client is usable and dials with net.Dialer.
type Client struct {
	Dial           wire.DialFunc
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		ConnectTimeout: cfg.HTTP.ConnectTimeout,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
	}
}

func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, MethodGet, rawURL, nil)
}

func (c *Client) Post(ctx context.Context, rawURL, body string) (*Response, error) {
	return c.Do(ctx, MethodPost, rawURL, []byte(body))
}

func (c *Client) Put(ctx context.Context, rawURL, body string) (*Response, error) {
	return c.Do(ctx, MethodPut, rawURL, []byte(body))
}

func (c *Client) Delete(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, MethodDelete, rawURL, nil)
}

// Do performs a single exchange. body is ignored for GET and DELETE.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte) (resp *Response, err error) {
	switch method {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	start := time.Now()
	defer func() {
		code := wire.Kind(err)
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		metrics.HTTPRequestsTotal.WithLabelValues(method, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	target, err := ParseTarget(rawURL)
	if err != nil {
		return nil, err
	}

	raw, err := wire.Dial(ctx, c.Dial, target.Host, target.Port, c.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	conn := wire.NewConn(raw)
	conn.ReadTimeout = c.ReadTimeout
	conn.WriteTimeout = c.WriteTimeout
	defer func() {
		_ = conn.Close()
	}()

	req := BuildRequest(method, target, body)
	logger.DebugContext(ctx, "http request", "method", method, "host", target.Host, "port", target.Port, "path", target.Path, "bytes", len(req))

	if _, err := conn.Write(req); err != nil {
		return nil, wire.ConnectionError("send request", "", err)
	}
	if err := conn.Flush(); err != nil {
		return nil, wire.ConnectionError("send request", "", err)
	}

	resp, err = ReadResponse(conn.Reader())
	if err != nil {
		logger.DebugContext(ctx, "http response failed", "method", method, "error", err)
		return nil, err
	}

	logger.DebugContext(ctx, "http response", "method", method, "status", resp.StatusCode, "headers", len(resp.Headers), "body_bytes", len(resp.Body))
	return resp, nil
}
