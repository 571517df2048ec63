package mpd

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeServer is a minimal MPD server on a loopback port. It greets each
// connection, answers OK to every command, and drops a connection that
// starts idling so the watcher sees a dead socket.
type fakeServer struct {
	listener net.Listener
	greet    bool

	mu    sync.Mutex
	conns []net.Conn
}

func startFakeServer(t *testing.T, greet bool) *fakeServer {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{listener: l, greet: greet}
	go s.serve()
	t.Cleanup(s.close)
	return s
}

func (s *fakeServer) endpoint() Endpoint {
	return ParseEndpoint(s.listener.Addr().String())
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		if s.greet {
			go s.handle(conn)
		}
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	defer conn.Close()

	if _, err := conn.Write([]byte("OK MPD 0.23.0\n")); err != nil {
		return
	}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "idle"):
			return
		case line == "close":
			return
		}
		if _, err := conn.Write([]byte("OK\n")); err != nil {
			return
		}
	}
}

func (s *fakeServer) close() {
	s.listener.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func TestDialTimeout_SilentServer(t *testing.T) {
	server := startFakeServer(t, false)

	start := time.Now()
	conn, err := DialTimeout(server.endpoint(), 100*time.Millisecond, zerolog.Nop())
	require.Error(t, err)
	require.Nil(t, conn)
	require.Contains(t, err.Error(), "timed out")
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestDial(t *testing.T) {
	server := startFakeServer(t, true)

	conn, err := Dial(server.endpoint(), zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, server.endpoint(), conn.Endpoint())
	require.NoError(t, conn.Ping())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close(), "second close is a no-op")
}

func TestConn_WatcherErrorEndsSubscription(t *testing.T) {
	server := startFakeServer(t, true)

	conn, err := Dial(server.endpoint(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, conn.Subscribe())

	// The server hangs up on idle; Changes must close instead of the
	// watcher's retries being relayed forever.
	select {
	case _, ok := <-conn.Changes():
		require.False(t, ok, "expected Changes to close")
	case <-time.After(5 * time.Second):
		t.Fatal("Changes was not closed after the idle connection dropped")
	}

	require.Len(t, conn.errs, 1)
	require.Error(t, <-conn.Errors())

	// Nothing is forwarded once the subscription has ended.
	time.Sleep(50 * time.Millisecond)
	require.Len(t, conn.errs, 0)

	require.NoError(t, conn.Close())
}

func TestConn_SubscribeAfterClose(t *testing.T) {
	server := startFakeServer(t, true)

	conn, err := Dial(server.endpoint(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	_, ok := <-conn.Changes()
	require.False(t, ok)
	require.Error(t, conn.Subscribe())
}
