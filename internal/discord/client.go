package discord

import (
	"context"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// EventKind distinguishes presence connection events.
type EventKind int

const (
	EventReady EventKind = iota // Handshake completed
	EventError                  // The connection failed or was lost
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered on the Events channel whenever the connection
// becomes ready or fails.
type Event struct {
	Kind EventKind
	User string // Discord username, set for EventReady
	Err  error  // Set for EventError
}

// Client manages one Discord IPC connection and its rich presence.
//
// SetActivity and ClearActivity are safe to call while a connection
// attempt started by Start or Restart is in flight.
type Client struct {
	appID  string
	logger zerolog.Logger
	dial   func(context.Context) (net.Conn, error)
	events chan Event

	mu     sync.Mutex
	conn   *ipcConn
	closed bool
}

// New creates a Client for the given Discord application id. It does
// not connect until Start is called.
func New(appID string, logger zerolog.Logger) *Client {
	return &Client{
		appID:  appID,
		logger: logger.With().Str("component", "discord").Logger(),
		dial:   dialSocket,
		events: make(chan Event, 8),
	}
}

// Events returns the channel that receives ready and error events.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Start connects in the background. Exactly one event is emitted for the
// attempt: EventReady on success, EventError otherwise.
func (c *Client) Start(ctx context.Context) {
	go func() {
		conn, user, err := c.connect(ctx)
		if err != nil {
			c.emit(Event{Kind: EventError, Err: err})
			return
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.close()
			return
		}
		c.conn = conn
		c.mu.Unlock()

		c.logger.Info().Str("user", user).Msg("Connected to Discord")
		c.emit(Event{Kind: EventReady, User: user})
	}()
}

// Restart drops the current connection, if any, and starts a new one.
func (c *Client) Restart(ctx context.Context) {
	c.mu.Lock()
	c.dropLocked()
	c.mu.Unlock()
	c.Start(ctx)
}

func (c *Client) connect(ctx context.Context) (*ipcConn, string, error) {
	netConn, err := c.dial(ctx)
	if err != nil {
		return nil, "", &Error{Op: "dial", Err: err}
	}
	conn := &ipcConn{conn: netConn}
	user, err := conn.handshake(c.appID)
	if err != nil {
		_ = netConn.Close()
		return nil, "", &Error{Op: "handshake", Err: err}
	}
	return conn, user, nil
}

// SetActivity replaces the rich presence. Text fields are clamped to
// Discord's limits.
func (c *Client) SetActivity(a Activity) error {
	return c.setActivity("set activity", a.clamped())
}

// ClearActivity removes the rich presence.
func (c *Client) ClearActivity() error {
	return c.setActivity("clear activity", nil)
}

func (c *Client) setActivity(op string, activity any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return &Error{Op: op, Err: ErrNotConnected}
	}

	_, err := c.conn.call("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": activity,
	})
	if err == nil {
		return nil
	}

	e := &Error{Op: op, Err: err}
	if e.IsIO() {
		c.logger.Warn().Err(err).Msg("Lost Discord connection")
		c.dropLocked()
		c.emit(Event{Kind: EventError, Err: e})
	}
	return e
}

// Close disconnects without clearing the presence; Discord drops it once
// the socket closes. Connection attempts still in flight are discarded.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.dropLocked()
}

func (c *Client) dropLocked() {
	if c.conn == nil {
		return
	}
	c.conn.close()
	c.conn = nil
}

func (c *Client) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		c.logger.Warn().Stringer("kind", ev.Kind).Msg("Dropped Discord event, consumer is behind")
	}
}
