package pop3

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"protoclient/internal/metrics"
	"protoclient/internal/wire"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// hangup as the last reply line makes the server close the connection right
// after sending the lines before it.
const hangup = "\x00hangup"

// exchange is one scripted command and the raw reply lines sent back. A nil
// reply closes the connection without answering.
type exchange struct {
	expect string
	reply  []string
}

type fakeServer struct {
	mu       sync.Mutex
	received []string
	done     chan struct{}
}

func (f *fakeServer) commands() []string {
	<-f.done
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

// newScriptedSession returns a session whose Dial hands out one end of a pipe
// served by a goroutine that sends greeting and then plays script. Commands
// received after the script ends are recorded without a reply.
func newScriptedSession(t *testing.T, greeting string, script ...exchange) (*Session, *fakeServer) {
	t.Helper()
	srv := &fakeServer{done: make(chan struct{})}

	s := &Session{
		Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			local, remote := net.Pipe()
			go srv.run(t, remote, greeting, script)
			return local, nil
		},
	}
	t.Cleanup(func() { _ = s.Disconnect() })
	return s, srv
}

func (f *fakeServer) run(t *testing.T, conn net.Conn, greeting string, script []exchange) {
	defer close(f.done)
	defer conn.Close()

	br := bufio.NewReader(conn)
	if _, err := io.WriteString(conn, greeting+"\r\n"); err != nil {
		return
	}

	next := 0
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		if !strings.HasSuffix(line, "\r\n") {
			t.Errorf("command %q not CRLF terminated", line)
		}
		line = strings.TrimSuffix(line, "\r\n")

		f.mu.Lock()
		f.received = append(f.received, line)
		f.mu.Unlock()

		if next >= len(script) {
			continue
		}
		step := script[next]
		next++
		if line != step.expect {
			t.Errorf("expected command %q, got %q", step.expect, line)
		}
		reply := step.reply
		closeAfter := len(reply) == 0
		if n := len(reply); n > 0 && reply[n-1] == hangup {
			reply = reply[:n-1]
			closeAfter = true
		}
		if len(reply) > 0 {
			if _, err := io.WriteString(conn, strings.Join(reply, "\r\n")+"\r\n"); err != nil {
				return
			}
		}
		if closeAfter {
			return
		}
	}
}

func connect(t *testing.T, s *Session) {
	t.Helper()
	greeting, err := s.Connect(context.Background(), "pop.example.test", 110)
	require.NoError(t, err)
	require.True(t, IsSuccess(greeting))
	require.Equal(t, StateConnected, s.State())
}

func TestConnect(t *testing.T) {
	t.Run("greeting accepted", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK POP3 server ready")
		greeting, err := s.Connect(context.Background(), "pop.example.test", 110)
		require.NoError(t, err)
		require.Equal(t, "+OK POP3 server ready", greeting)
		require.Equal(t, StateConnected, s.State())
	})

	t.Run("greeting rejected", func(t *testing.T) {
		s, srv := newScriptedSession(t, "-ERR too busy")
		_, err := s.Connect(context.Background(), "pop.example.test", 110)
		require.ErrorIs(t, err, wire.ErrConnection)
		require.Contains(t, err.Error(), "-ERR too busy")
		require.Equal(t, StateDisconnected, s.State())
		require.Empty(t, srv.commands())
	})

	t.Run("dial failure", func(t *testing.T) {
		s := &Session{Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("connection refused")
		}}
		_, err := s.Connect(context.Background(), "pop.example.test", 110)
		require.ErrorIs(t, err, wire.ErrConnection)
		require.Equal(t, StateDisconnected, s.State())
	})

	t.Run("dial address", func(t *testing.T) {
		var got string
		s := &Session{Dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
			got = addr
			return nil, errors.New("refused")
		}}
		_, _ = s.Connect(context.Background(), "pop.example.test", 1110)
		require.Equal(t, "pop.example.test:1110", got)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, srv := newScriptedSession(t, "+OK ready",
			exchange{"USER alice", []string{"+OK"}},
			exchange{"PASS secret", []string{"+OK maildrop locked"}},
		)
		connect(t, s)

		ok, err := s.Login("alice", "secret")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, StateAuthenticated, s.State())

		require.NoError(t, s.Disconnect())
		require.Equal(t, []string{"USER alice", "PASS secret"}, srv.commands())
	})

	t.Run("rejected password returns false", func(t *testing.T) {
		s, srv := newScriptedSession(t, "+OK ready",
			exchange{"USER alice", []string{"+OK"}},
			exchange{"PASS wrong", []string{"-ERR invalid password"}},
		)
		connect(t, s)

		ok, err := s.Login("alice", "wrong")
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, StateConnected, s.State())

		require.NoError(t, s.Disconnect())
		require.Equal(t, []string{"USER alice", "PASS wrong"}, srv.commands())
	})

	t.Run("rejected user skips pass", func(t *testing.T) {
		s, srv := newScriptedSession(t, "+OK ready",
			exchange{"USER nobody", []string{"-ERR no such user"}},
		)
		connect(t, s)

		ok, err := s.Login("nobody", "pw")
		require.NoError(t, err)
		require.False(t, ok)

		require.NoError(t, s.Disconnect())
		require.Equal(t, []string{"USER nobody"}, srv.commands())
	})
}

func TestStatus(t *testing.T) {
	t.Run("count and size", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"STAT", []string{"+OK 5 2048"}},
		)
		connect(t, s)

		status, err := s.Status()
		require.NoError(t, err)
		require.Equal(t, MailboxStatus{Count: 5, Size: 2048}, status)
	})

	t.Run("error reply", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"STAT", []string{"-ERR"}},
		)
		connect(t, s)

		_, err := s.Status()
		require.ErrorIs(t, err, wire.ErrProtocol)
		require.Contains(t, err.Error(), "-ERR")
	})

	t.Run("missing tokens", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"STAT", []string{"+OK 5"}},
		)
		connect(t, s)

		_, err := s.Status()
		require.ErrorIs(t, err, wire.ErrProtocol)
	})
}

func TestList(t *testing.T) {
	t.Run("scan lines verbatim", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"LIST", []string{"+OK 2 messages", "1 120", "2 200", "."}},
			exchange{"NOOP", []string{"+OK"}},
		)
		connect(t, s)

		lines, err := s.List()
		require.NoError(t, err)
		require.Equal(t, []string{"1 120", "2 200"}, lines)

		// the sentinel was consumed, so the next reply lines up
		ok, err := s.Noop()
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("empty mailbox", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"LIST", []string{"+OK 0 messages", "."}},
		)
		connect(t, s)

		lines, err := s.List()
		require.NoError(t, err)
		require.Empty(t, lines)
	})

	t.Run("error reply", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"LIST", []string{"-ERR not authenticated"}},
		)
		connect(t, s)

		_, err := s.List()
		require.ErrorIs(t, err, wire.ErrProtocol)
		require.Contains(t, err.Error(), "-ERR not authenticated")
	})

	t.Run("stream ends before sentinel", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"LIST", []string{"+OK", "1 120", hangup}},
		)
		connect(t, s)

		_, err := s.List()
		require.ErrorIs(t, err, wire.ErrProtocol)
	})
}

func TestRetrieve(t *testing.T) {
	t.Run("dot unstuffing", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"RETR 1", []string{
				"+OK 42 octets",
				"Subject: hello",
				"",
				"..test",
				"...",
				".not stuffed",
				"end",
				".",
			}},
		)
		connect(t, s)

		msg, err := s.Retrieve(1)
		require.NoError(t, err)
		require.Equal(t, "Subject: hello\n\n.test\n..\n.not stuffed\nend\n", msg)
		for _, line := range strings.Split(msg, "\n") {
			require.NotEqual(t, ".", line)
		}
	})

	t.Run("no such message", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"RETR 9", []string{"-ERR no such message"}},
		)
		connect(t, s)

		_, err := s.Retrieve(9)
		require.ErrorIs(t, err, wire.ErrProtocol)
		require.Contains(t, err.Error(), "no such message")
	})
}

func TestDelete(t *testing.T) {
	s, _ := newScriptedSession(t, "+OK ready",
		exchange{"DELE 1", []string{"+OK message 1 deleted"}},
		exchange{"DELE 7", []string{"-ERR no such message"}},
		exchange{"RSET", []string{"+OK"}},
	)
	connect(t, s)

	ok, err := s.Delete(1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Delete(7)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateConnected, s.State())

	ok, err = s.Reset()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestQuit(t *testing.T) {
	t.Run("closes connection", func(t *testing.T) {
		s, srv := newScriptedSession(t, "+OK ready",
			exchange{"QUIT", []string{"+OK bye"}},
		)
		connect(t, s)

		reply, err := s.Quit()
		require.NoError(t, err)
		require.Equal(t, "+OK bye", reply)
		require.Equal(t, StateDisconnected, s.State())
		require.Equal(t, []string{"QUIT"}, srv.commands())
	})

	t.Run("error reply still disconnects", func(t *testing.T) {
		s, _ := newScriptedSession(t, "+OK ready",
			exchange{"QUIT", []string{"-ERR some deleted messages not removed"}},
		)
		connect(t, s)

		reply, err := s.Quit()
		require.NoError(t, err)
		require.Equal(t, "-ERR some deleted messages not removed", reply)
		require.Equal(t, StateDisconnected, s.State())
	})

	t.Run("not connected", func(t *testing.T) {
		s := &Session{}
		reply, err := s.Quit()
		require.NoError(t, err)
		require.Equal(t, NotConnectedReply, reply)
	})
}

func TestCommandsRequireConnection(t *testing.T) {
	s := &Session{}

	_, err := s.Login("u", "p")
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.Status()
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.List()
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.Retrieve(1)
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.Delete(1)
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.Noop()
	require.ErrorIs(t, err, wire.ErrState)
	_, err = s.Reset()
	require.ErrorIs(t, err, wire.ErrState)
}

func TestDisconnectIdempotent(t *testing.T) {
	s, srv := newScriptedSession(t, "+OK ready")
	connect(t, s)

	require.NoError(t, s.Disconnect())
	require.NoError(t, s.Disconnect())
	require.Equal(t, StateDisconnected, s.State())

	select {
	case <-srv.done:
	case <-time.After(time.Second):
		t.Fatal("server did not observe the close")
	}

	_, err := s.Status()
	require.ErrorIs(t, err, wire.ErrState)
}

func TestMissingReply(t *testing.T) {
	s, _ := newScriptedSession(t, "+OK ready",
		exchange{"STAT", nil},
	)
	connect(t, s)

	counter := metrics.POP3CommandsTotal.WithLabelValues("STAT", "protocol")
	before := testutil.ToFloat64(counter)

	_, err := s.Status()
	require.ErrorIs(t, err, wire.ErrProtocol)
	require.Equal(t, before+1, testutil.ToFloat64(counter))
}
