package pop3

import (
	"context"
	"errors"
	"fmt"

	"protoclient/internal/config"
	"protoclient/internal/logger"
)

var (
	ErrAuthFailed    = errors.New("pop3 authentication failed")
	ErrDeleteRefused = errors.New("server refused to delete message")
)

// Client is the part of Session the service layer needs.
type Client interface {
	Status() (MailboxStatus, error)
	List() ([]string, error)
	Retrieve(n int) (string, error)
	Delete(n int) (bool, error)
	Noop() (bool, error)
	Reset() (bool, error)
	Quit() (string, error)
}

// Service runs one short session per call: connect, log in, do the work,
// quit.
type Service struct {
	Connector func(ctx context.Context, cfg config.Config) (Client, error)
}

func NewService() *Service {
	return &Service{Connector: Connect}
}

// Connect opens an authenticated session using the pop3 and auth sections of
// cfg.
func Connect(ctx context.Context, cfg config.Config) (Client, error) {
	s := &Session{
		ConnectTimeout: cfg.POP3.ConnectTimeout,
		ReadTimeout:    cfg.POP3.ReadTimeout,
		WriteTimeout:   cfg.POP3.WriteTimeout,
	}
	port := cfg.POP3.Port
	if port == 0 {
		port = DefaultPort
	}

	greeting, err := s.Connect(ctx, cfg.POP3.Host, port)
	if err != nil {
		return nil, err
	}
	logger.Info("pop3 server greeting", "host", cfg.POP3.Host, "greeting", greeting)

	ok, err := s.Login(cfg.Auth.Username, cfg.Auth.Password)
	if err != nil {
		_ = s.Disconnect()
		return nil, err
	}
	if !ok {
		_, _ = s.Quit()
		return nil, ErrAuthFailed
	}
	return s, nil
}

func (s *Service) withClient(ctx context.Context, cfg config.Config, fn func(Client) error) error {
	connector := s.Connector
	if connector == nil {
		connector = Connect
	}
	client, err := connector(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if reply, err := client.Quit(); err != nil {
			logger.Warn("pop3 quit failed", "error", err)
		} else {
			logger.Debug("pop3 quit", "reply", reply)
		}
	}()
	return fn(client)
}

func (s *Service) Status(ctx context.Context, cfg config.Config) (MailboxStatus, error) {
	var status MailboxStatus
	err := s.withClient(ctx, cfg, func(c Client) error {
		st, err := c.Status()
		if err != nil {
			return err
		}
		status = st
		return nil
	})
	return status, err
}

// ListMessages returns the parsed LIST scan lines. Lines that do not parse are
// skipped with a warning.
func (s *Service) ListMessages(ctx context.Context, cfg config.Config) ([]MessageInfo, error) {
	messages := []MessageInfo{}
	err := s.withClient(ctx, cfg, func(c Client) error {
		lines, err := c.List()
		if err != nil {
			return err
		}
		for _, line := range lines {
			info, err := ParseListing(line)
			if err != nil {
				logger.Warn("skipping malformed listing", "line", line, "error", err)
				continue
			}
			messages = append(messages, info)
		}
		return nil
	})
	return messages, err
}

func (s *Service) Retrieve(ctx context.Context, cfg config.Config, n int) (string, error) {
	var content string
	err := s.withClient(ctx, cfg, func(c Client) error {
		msg, err := c.Retrieve(n)
		if err != nil {
			return err
		}
		content = msg
		return nil
	})
	return content, err
}

// Ping logs in and issues NOOP, reporting whether the server answered +OK.
func (s *Service) Ping(ctx context.Context, cfg config.Config) (bool, error) {
	var alive bool
	err := s.withClient(ctx, cfg, func(c Client) error {
		ok, err := c.Noop()
		if err != nil {
			return err
		}
		alive = ok
		return nil
	})
	return alive, err
}

// Delete marks every message in numbers deleted; the deletions are committed
// by the QUIT that ends the session. If the server refuses one of them, RSET
// unmarks the ones already accepted so nothing is removed.
func (s *Service) Delete(ctx context.Context, cfg config.Config, numbers ...int) error {
	return s.withClient(ctx, cfg, func(c Client) error {
		for _, n := range numbers {
			ok, err := c.Delete(n)
			if err == nil && ok {
				continue
			}
			if _, rerr := c.Reset(); rerr != nil {
				logger.Warn("pop3 reset failed", "error", rerr)
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("message %d: %w", n, ErrDeleteRefused)
		}
		return nil
	})
}
