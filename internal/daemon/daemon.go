package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/mpdrpc/internal/discord"
	"github.com/jfmyers9/mpdrpc/internal/format"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const (
	DefaultReconnectDelay    = 5 * time.Second
	DefaultKeepaliveInterval = 30 * time.Second
)

// State is where the daemon is in its connection lifecycle
type State int

const (
	StateIdle         State = iota // No playing MPD server
	StateConnected                 // Bound to a playing server and subscribed to changes
	StateReconnecting              // Discord connection lost; waiting to reconnect
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Resolver finds a playing MPD server, blocking until one is found.
type Resolver interface {
	Resolve(ctx context.Context) (mpd.Session, error)
}

// Presence is the Discord rich presence sink.
type Presence interface {
	Events() <-chan discord.Event
	Start(ctx context.Context)
	Restart(ctx context.Context)
	SetActivity(discord.Activity) error
	ClearActivity() error
	Close()
}

// ArtResolver finds a cover URL for a track.
type ArtResolver interface {
	ResolveURL(ctx context.Context, track *mpd.Track) (string, bool)
}

// Config holds daemon configuration
type Config struct {
	Format            format.Spec
	ReconnectDelay    time.Duration // Wait before reconnecting to Discord
	KeepaliveInterval time.Duration // How often to ping the MPD command connection
}

// Daemon mirrors MPD playback onto Discord rich presence. All of its
// state is owned by the goroutine running Run; events from MPD and
// Discord are handled one at a time.
type Daemon struct {
	config   Config
	resolver Resolver
	presence Presence
	art      ArtResolver
	logger   zerolog.Logger
	now      func() time.Time

	session mpd.Session
	state   State
	retry   *time.Timer
}

// New creates a new Daemon. art may be nil to disable cover art.
func New(cfg Config, resolver Resolver, presence Presence, art ArtResolver, logger zerolog.Logger) *Daemon {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.KeepaliveInterval <= 0 {
		cfg.KeepaliveInterval = DefaultKeepaliveInterval
	}
	return &Daemon{
		config:   cfg,
		resolver: resolver,
		presence: presence,
		art:      art,
		logger:   logger.With().Str("component", "daemon").Logger(),
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (d *Daemon) State() State {
	return d.state
}

// Run starts the daemon and blocks until shutdown signal received
func (d *Daemon) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		d.logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		d.logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := d.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// run is the main event loop
func (d *Daemon) run(ctx context.Context) error {
	d.logger.Info().Msg("Starting daemon")

	d.presence.Start(ctx)
	defer d.presence.Close()
	defer d.closeSession()

	if err := d.reconnect(ctx); err != nil {
		return err
	}

	keepalive := time.NewTicker(d.config.KeepaliveInterval)
	defer keepalive.Stop()

	for {
		var retry <-chan time.Time
		if d.retry != nil {
			retry = d.retry.C
		}

		var err error
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("Daemon stopped")
			return ctx.Err()

		case subsystem, ok := <-d.session.Changes():
			if !ok {
				d.logger.Error().Str("endpoint", d.session.Endpoint().String()).Msg("Lost MPD subscription")
				err = d.sessionLost(ctx)
				break
			}
			d.logger.Debug().Str("subsystem", subsystem).Msg("MPD state changed")
			err = d.update(ctx)

		case werr := <-d.session.Errors():
			d.logger.Error().Err(werr).Str("endpoint", d.session.Endpoint().String()).Msg("MPD watcher failed")
			err = d.sessionLost(ctx)

		case ev := <-d.presence.Events():
			err = d.handlePresence(ctx, ev)

		case <-retry:
			d.retry = nil
			d.logger.Info().Msg("Reconnecting to Discord")
			d.presence.Restart(ctx)
			d.setState(StateConnected)

		case <-keepalive.C:
			if perr := d.session.Ping(); perr != nil {
				d.logger.Error().Err(perr).Str("endpoint", d.session.Endpoint().String()).Msg("MPD ping failed")
				err = d.sessionLost(ctx)
			}
		}
		if err != nil {
			return err
		}
	}
}

func (d *Daemon) handlePresence(ctx context.Context, ev discord.Event) error {
	switch ev.Kind {
	case discord.EventReady:
		d.logger.Info().Str("user", ev.User).Msg("Discord ready")
		return d.update(ctx)

	case discord.EventError:
		if !discord.IsIO(ev.Err) {
			d.logger.Debug().Err(ev.Err).Msg("Ignoring Discord error")
			return nil
		}
		if d.state == StateReconnecting {
			return nil
		}
		d.logger.Error().Err(ev.Err).Dur("delay", d.config.ReconnectDelay).Msg("Discord connection failed")
		d.setState(StateReconnecting)
		d.retry = time.NewTimer(d.config.ReconnectDelay)
	}
	return nil
}

// update re-reads the player and pushes the result to Discord. When the
// player is no longer playing or cannot be reached the presence is
// cleared and the daemon waits for a playing server before returning.
func (d *Daemon) update(ctx context.Context) error {
	for {
		status, err := d.session.Status()
		if err != nil {
			d.logger.Error().Err(err).Str("endpoint", d.session.Endpoint().String()).Msg("Failed to get status")
			d.clear()
			if err := d.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		if status.State != mpd.StatePlaying {
			d.logger.Info().Stringer("state", status.State).Msg("Playback stopped")
			d.clear()
			if err := d.reconnect(ctx); err != nil {
				return err
			}
			continue
		}

		track, err := d.session.CurrentTrack()
		if err != nil {
			d.logger.Warn().Err(err).Msg("Failed to get current song, skipping update")
			return nil
		}
		if track == nil {
			d.clear()
			return nil
		}

		d.push(ctx, track, status)
		return nil
	}
}

func (d *Daemon) push(ctx context.Context, track *mpd.Track, status mpd.Status) {
	if d.state == StateReconnecting {
		d.logger.Debug().Msg("Discord reconnecting, skipping update")
		return
	}

	spec := d.config.Format
	rendered := spec.Render(track, status)

	largeImage := spec.LargeImage
	if d.art != nil {
		if url, ok := d.art.ResolveURL(ctx, track); ok {
			largeImage = url
		}
	}

	activity := discord.Activity{
		Type:    discord.ActivityListening,
		Details: rendered.Details,
		State:   rendered.State,
		Assets: &discord.Assets{
			LargeImage: largeImage,
			LargeText:  rendered.LargeText,
			SmallImage: spec.SmallImage,
			SmallText:  rendered.SmallText,
		},
	}
	if ts := format.ComputeTimestamps(status, spec.Timestamp, d.now()); !ts.Empty() {
		activity.Timestamps = &discord.Timestamps{Start: ts.Start, End: ts.End}
	}

	if err := d.presence.SetActivity(activity); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to set activity")
		return
	}
	d.logger.Debug().
		Str("details", activity.Details).
		Str("state", activity.State).
		Msg("Updated presence")
}

func (d *Daemon) clear() {
	if d.state == StateReconnecting {
		return
	}
	if err := d.presence.ClearActivity(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to clear activity")
	}
}

// reconnect drops the current session and blocks until a playing server
// is found.
func (d *Daemon) reconnect(ctx context.Context) error {
	d.closeSession()
	if d.state == StateConnected {
		d.setState(StateIdle)
	}

	session, err := d.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	d.session = session
	if d.state == StateIdle {
		d.setState(StateConnected)
	}
	return nil
}

// sessionLost clears the presence of a server that stopped answering,
// then resweeps and renders whichever server plays next.
func (d *Daemon) sessionLost(ctx context.Context) error {
	d.clear()
	if err := d.reconnect(ctx); err != nil {
		return err
	}
	return d.update(ctx)
}

func (d *Daemon) closeSession() {
	if d.session == nil {
		return
	}
	if err := d.session.Close(); err != nil {
		d.logger.Debug().Err(err).Msg("Failed to close MPD session")
	}
	d.session = nil
}

func (d *Daemon) setState(s State) {
	if d.state == s {
		return
	}
	d.logger.Debug().Stringer("from", d.state).Stringer("to", s).Msg("State change")
	d.state = s
}
