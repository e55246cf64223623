package pop3

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"protoclient/internal/logger"
	"protoclient/internal/metrics"
	"protoclient/internal/wire"
)

const (
	DefaultPort = 110

	// NotConnectedReply is what Quit returns for a session with no connection.
	NotConnectedReply = "Not connected"
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Session drives one POP3 connection. It is not safe for concurrent use;
// commands must be issued one after another.
type Session struct {
	Dial           wire.DialFunc
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	state State
	conn  *wire.Conn
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) connected() bool {
	return s.state != StateDisconnected
}

// Connect dials server:port and reads the greeting. Any previous connection
// held by the session is closed first.
func (s *Session) Connect(ctx context.Context, server string, port int) (string, error) {
	_ = s.Disconnect()

	raw, err := wire.Dial(ctx, s.Dial, server, port, s.ConnectTimeout)
	if err != nil {
		metrics.POP3SessionsTotal.WithLabelValues("dial_error").Inc()
		return "", err
	}
	conn := wire.NewConn(raw)
	conn.ReadTimeout = s.ReadTimeout
	conn.WriteTimeout = s.WriteTimeout

	greeting, err := conn.ReadLine()
	if err != nil {
		_ = conn.Close()
		metrics.POP3SessionsTotal.WithLabelValues("no_greeting").Inc()
		return "", wire.ConnectionError("connect", "", fmt.Errorf("read greeting: %w", err))
	}
	if !IsSuccess(greeting) {
		_ = conn.Close()
		metrics.POP3SessionsTotal.WithLabelValues("rejected").Inc()
		return "", wire.ConnectionError("connect", greeting, errors.New("server rejected connection"))
	}

	s.conn = conn
	s.state = StateConnected
	metrics.POP3SessionsTotal.WithLabelValues("ok").Inc()
	logger.DebugContext(ctx, "pop3 connected", "server", server, "port", port, "greeting", greeting)
	return greeting, nil
}

// Login authenticates with USER/PASS. A rejected USER or PASS is reported as
// false rather than as an error; PASS is not sent when USER is rejected.
func (s *Session) Login(username, password string) (bool, error) {
	if !s.connected() {
		return false, wire.StateError("login")
	}

	reply, err := s.command("USER", username)
	if err != nil {
		return false, err
	}
	if !IsSuccess(reply) {
		logger.Debug("pop3 user rejected", "reply", reply)
		return false, nil
	}

	reply, err = s.command("PASS", password)
	if err != nil {
		return false, err
	}
	if !IsSuccess(reply) {
		logger.Debug("pop3 password rejected", "reply", reply)
		return false, nil
	}

	s.state = StateAuthenticated
	return true, nil
}

func (s *Session) Status() (MailboxStatus, error) {
	if !s.connected() {
		return MailboxStatus{}, wire.StateError("stat")
	}
	reply, err := s.command("STAT", "")
	if err != nil {
		return MailboxStatus{}, err
	}
	return ParseStatus(reply)
}

// List returns the LIST scan lines exactly as the server sent them.
func (s *Session) List() ([]string, error) {
	if !s.connected() {
		return nil, wire.StateError("list")
	}
	return s.multiline("LIST", "", nil)
}

// Retrieve returns message n with byte-stuffing removed and every line
// terminated by "\n".
func (s *Session) Retrieve(n int) (string, error) {
	if !s.connected() {
		return "", wire.StateError("retr")
	}
	lines, err := s.multiline("RETR", fmt.Sprint(n), unstuff)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Delete marks message n for deletion and reports whether the server
// accepted it.
func (s *Session) Delete(n int) (bool, error) {
	if !s.connected() {
		return false, wire.StateError("dele")
	}
	return s.simple("DELE", fmt.Sprint(n))
}

func (s *Session) Noop() (bool, error) {
	if !s.connected() {
		return false, wire.StateError("noop")
	}
	return s.simple("NOOP", "")
}

// Reset unmarks every message marked for deletion in this session.
func (s *Session) Reset() (bool, error) {
	if !s.connected() {
		return false, wire.StateError("rset")
	}
	return s.simple("RSET", "")
}

// Quit ends the session. The connection is closed whatever the server
// replies; without a connection NotConnectedReply is returned and nothing is
// sent.
func (s *Session) Quit() (string, error) {
	if !s.connected() {
		return NotConnectedReply, nil
	}
	reply, err := s.command("QUIT", "")
	if cerr := s.Disconnect(); cerr != nil {
		logger.Debug("pop3 close after quit", "error", cerr)
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Disconnect closes the connection if there is one. It is safe to call more
// than once.
func (s *Session) Disconnect() error {
	s.state = StateDisconnected
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Session) simple(cmd, arg string) (bool, error) {
	reply, err := s.command(cmd, arg)
	if err != nil {
		return false, err
	}
	return IsSuccess(reply), nil
}

func (s *Session) multiline(cmd, arg string, transform func(string) string) ([]string, error) {
	reply, err := s.command(cmd, arg)
	if err != nil {
		return nil, err
	}
	if !IsSuccess(reply) {
		return nil, wire.ProtocolError(strings.ToLower(cmd), reply, nil)
	}
	lines, err := readMultiline(s.conn, strings.ToLower(cmd), transform)
	if err != nil {
		metrics.POP3CommandsTotal.WithLabelValues(cmd, wire.Kind(err)).Inc()
		return nil, err
	}
	return lines, nil
}

// command sends one command line and reads its status line.
func (s *Session) command(cmd, arg string) (string, error) {
	line := cmd
	if arg != "" {
		line += " " + arg
	}
	if cmd == "PASS" {
		logger.Debug("pop3 send", "command", "PASS ****")
	} else {
		logger.Debug("pop3 send", "command", line)
	}

	if err := s.conn.WriteLine("%s", line); err != nil {
		err = wire.ConnectionError(strings.ToLower(cmd), "", err)
		metrics.POP3CommandsTotal.WithLabelValues(cmd, wire.Kind(err)).Inc()
		return "", err
	}
	reply, err := s.conn.ReadLine()
	if err != nil {
		err = wire.ProtocolError(strings.ToLower(cmd), "", fmt.Errorf("missing reply: %w", err))
		metrics.POP3CommandsTotal.WithLabelValues(cmd, wire.Kind(err)).Inc()
		return "", err
	}

	result := "err"
	if IsSuccess(reply) {
		result = "ok"
	}
	metrics.POP3CommandsTotal.WithLabelValues(cmd, result).Inc()
	logger.Debug("pop3 recv", "command", cmd, "reply", reply)
	return reply, nil
}
