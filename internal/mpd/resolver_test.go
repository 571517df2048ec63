package mpd

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	endpoint   Endpoint
	state      PlayState
	statusErr  error
	subscribed bool
	closed     bool
}

func (f *fakeSession) Endpoint() Endpoint { return f.endpoint }

func (f *fakeSession) Status() (Status, error) {
	if f.statusErr != nil {
		return Status{}, f.statusErr
	}
	return Status{State: f.state}, nil
}

func (f *fakeSession) CurrentTrack() (*Track, error) { return nil, nil }
func (f *fakeSession) Subscribe() error              { f.subscribed = true; return nil }
func (f *fakeSession) Changes() <-chan string        { return nil }
func (f *fakeSession) Errors() <-chan error          { return nil }
func (f *fakeSession) Ping() error                   { return nil }
func (f *fakeSession) Close() error                  { f.closed = true; return nil }

// fakeServers maps an endpoint host to the state it reports.
// Hosts missing from the map refuse connections.
type fakeServers struct {
	states   map[string]PlayState
	dialed   []string
	sessions []*fakeSession
}

func (s *fakeServers) dial(ep Endpoint) (Session, error) {
	s.dialed = append(s.dialed, ep.Host)
	state, ok := s.states[ep.Host]
	if !ok {
		return nil, errors.New("connection refused")
	}
	sess := &fakeSession{endpoint: ep, state: state}
	s.sessions = append(s.sessions, sess)
	return sess, nil
}

func endpoints(hosts ...string) []Endpoint {
	eps := make([]Endpoint, len(hosts))
	for i, h := range hosts {
		eps[i] = Endpoint{Kind: EndpointNetwork, Host: h, Port: DefaultPort}
	}
	return eps
}

func TestSweep_FirstPlayingWins(t *testing.T) {
	servers := &fakeServers{states: map[string]PlayState{
		"a": StatePaused,
		"b": StatePlaying,
		"c": StatePlaying,
	}}
	r := NewResolver(endpoints("down", "a", "b", "c"), time.Millisecond, servers.dial, zerolog.Nop())

	session, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", session.Endpoint().Host)
	require.Equal(t, []string{"down", "a", "b"}, servers.dialed, "later candidates must not be tried")

	// The paused server's connection is released, the winner is subscribed
	require.True(t, servers.sessions[0].closed)
	require.False(t, servers.sessions[1].closed)
	require.True(t, servers.sessions[1].subscribed)
}

func TestSweep_NothingPlaying(t *testing.T) {
	servers := &fakeServers{states: map[string]PlayState{"a": StateStopped}}
	r := NewResolver(endpoints("a", "down"), time.Millisecond, servers.dial, zerolog.Nop())

	_, err := r.Sweep(context.Background())
	require.ErrorIs(t, err, ErrNoPlayingEndpoint)
	require.True(t, servers.sessions[0].closed)
}

func TestSweep_StatusErrorTriesNext(t *testing.T) {
	calls := 0
	dial := func(ep Endpoint) (Session, error) {
		calls++
		if ep.Host == "broken" {
			return &fakeSession{endpoint: ep, statusErr: errors.New("EOF")}, nil
		}
		return &fakeSession{endpoint: ep, state: StatePlaying}, nil
	}
	r := NewResolver(endpoints("broken", "ok"), time.Millisecond, dial, zerolog.Nop())

	session, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", session.Endpoint().Host)
	require.Equal(t, 2, calls)
}

func TestResolve_RetriesUntilPlaying(t *testing.T) {
	servers := &fakeServers{states: map[string]PlayState{"a": StateStopped}}
	sweeps := 0
	dial := func(ep Endpoint) (Session, error) {
		sweeps++
		if sweeps == 3 {
			servers.states["a"] = StatePlaying
		}
		return servers.dial(ep)
	}
	r := NewResolver(endpoints("a"), time.Millisecond, dial, zerolog.Nop())

	session, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", session.Endpoint().Host)
	require.Equal(t, 3, sweeps)
}

func TestResolve_StopsOnContextCancel(t *testing.T) {
	servers := &fakeServers{states: map[string]PlayState{}}
	r := NewResolver(endpoints("down"), time.Hour, servers.dial, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Resolve did not stop after context cancel")
	}
}

func TestNewResolver_DefaultInterval(t *testing.T) {
	r := NewResolver(nil, 0, nil, zerolog.Nop())
	require.Equal(t, DefaultRetryInterval, r.interval)
	require.NotNil(t, r.dial)
}
