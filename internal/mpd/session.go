package mpd

import (
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog"
)

// Subsystems the session subscribes to. MPD calls the queue "playlist".
const (
	SubsystemPlayer = "player"
	SubsystemQueue  = "playlist"
)

// Session is a live connection to one MPD server
type Session interface {
	// Endpoint returns the endpoint this session is bound to
	Endpoint() Endpoint

	// Status returns the current transport state
	Status() (Status, error)

	// CurrentTrack returns the current song, or nil if the queue position is empty
	CurrentTrack() (*Track, error)

	// Subscribe starts delivering player/queue change events on Changes
	Subscribe() error

	// Changes delivers the name of each changed subsystem.
	// Closed when the subscription ends.
	Changes() <-chan string

	// Errors delivers the error that ended the subscription, if any
	Errors() <-chan error

	// Ping checks that the command connection is still usable
	Ping() error

	// Close releases the command connection and the subscription
	Close() error
}

// Conn is a Session backed by gompd: one command client plus,
// once subscribed, an idle watcher on a second connection.
type Conn struct {
	endpoint Endpoint
	client   *mpd.Client
	logger   zerolog.Logger

	mu      sync.Mutex
	watcher *mpd.Watcher
	changes chan string
	errs    chan error
	closed  bool
}

// DefaultDialTimeout bounds how long Dial waits for a server greeting
const DefaultDialTimeout = 5 * time.Second

// Dial opens a command connection to the endpoint
func Dial(endpoint Endpoint, logger zerolog.Logger) (*Conn, error) {
	return DialTimeout(endpoint, DefaultDialTimeout, logger)
}

// DialTimeout is Dial with a limit on connecting and reading the greeting.
// A host that drops packets otherwise stalls the caller for the kernel's
// TCP connect timeout.
func DialTimeout(endpoint Endpoint, timeout time.Duration, logger zerolog.Logger) (*Conn, error) {
	client, err := dialClient(endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	return &Conn{
		endpoint: endpoint,
		client:   client,
		logger:   logger.With().Str("component", "mpd").Str("endpoint", endpoint.String()).Logger(),
		changes:  make(chan string, 16),
		errs:     make(chan error, 4),
	}, nil
}

type dialResult struct {
	client *mpd.Client
	err    error
}

// dialClient runs mpd.Dial, which takes no deadline, and gives up after
// timeout. A client that connects after the deadline is closed.
func dialClient(endpoint Endpoint, timeout time.Duration) (*mpd.Client, error) {
	done := make(chan dialResult, 1)
	go func() {
		client, err := mpd.Dial(endpoint.Network(), endpoint.Address())
		done <- dialResult{client: client, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.client, r.err
	case <-timer.C:
		go func() {
			if r := <-done; r.err == nil {
				r.client.Close()
			}
		}()
		return nil, fmt.Errorf("timed out after %s", timeout)
	}
}

func (c *Conn) Endpoint() Endpoint {
	return c.endpoint
}

func (c *Conn) Status() (Status, error) {
	attrs, err := c.client.Status()
	if err != nil {
		return Status{}, fmt.Errorf("status: %w", err)
	}
	return parseStatus(attrs)
}

func (c *Conn) CurrentTrack() (*Track, error) {
	attrs, err := c.client.CurrentSong()
	if err != nil {
		return nil, fmt.Errorf("currentsong: %w", err)
	}
	return parseTrack(attrs), nil
}

func (c *Conn) Ping() error {
	return c.client.Ping()
}

// TogglePause pauses a playing song or resumes a paused one
func (c *Conn) TogglePause() error {
	status, err := c.Status()
	if err != nil {
		return err
	}
	if status.State == StateStopped {
		return c.client.Play(-1)
	}
	return c.client.Pause(status.State == StatePlaying)
}

// Next skips to the next song in the queue
func (c *Conn) Next() error {
	return c.client.Next()
}

// Previous returns to the previous song in the queue
func (c *Conn) Previous() error {
	return c.client.Previous()
}

// Subscribe opens the idle watcher. Calling it twice is a no-op.
func (c *Conn) Subscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("subscribe %s: session closed", c.endpoint)
	}
	if c.watcher != nil {
		return nil
	}

	w, err := mpd.NewWatcher(c.endpoint.Network(), c.endpoint.Address(), "", SubsystemPlayer, SubsystemQueue)
	if err != nil {
		return fmt.Errorf("watch %s: %w", c.endpoint, err)
	}
	c.watcher = w

	go c.forward(w)

	c.logger.Debug().Msg("Subscribed to player and queue changes")
	return nil
}

// forward relays watcher events until the watcher reports an error.
// The idle connection does not recover from an error and gompd retries it
// in a tight loop, so the first error ends the subscription: it is sent on
// errs and changes is closed. The watcher then blocks until Close drains it.
func (c *Conn) forward(w *mpd.Watcher) {
	defer close(c.changes)
	for {
		select {
		case subsystem, ok := <-w.Event:
			if !ok {
				return
			}
			if subsystem != SubsystemPlayer && subsystem != SubsystemQueue {
				continue
			}
			// Any single pending event triggers a full refresh, so extras can be dropped
			select {
			case c.changes <- subsystem:
			default:
			}
		case err, ok := <-w.Error:
			if !ok {
				return
			}
			c.logger.Debug().Err(err).Msg("Watcher failed, ending subscription")
			select {
			case c.errs <- err:
			default:
			}
			return
		}
	}
}

func (c *Conn) Changes() <-chan string {
	return c.changes
}

func (c *Conn) Errors() <-chan error {
	return c.errs
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.watcher != nil {
		if err := c.watcher.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Failed to close watcher")
		}
	} else {
		close(c.changes)
	}
	return c.client.Close()
}
