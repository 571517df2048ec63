package tui

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/mpdrpc/internal/format"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const defaultKeepaliveInterval = 30 * time.Second

// Controls are the playback commands bound to the TUI keys
type Controls interface {
	TogglePause() error
	Next() error
	Previous() error
}

// Resolver finds a playing MPD server, blocking until one is found.
type Resolver interface {
	Resolve(ctx context.Context) (mpd.Session, error)
}

// ArtResolver finds a cover URL for a track.
type ArtResolver interface {
	ResolveURL(ctx context.Context, track *mpd.Track) (string, bool)
}

// Snapshot is one rendering of the player and the presence built from it
type Snapshot struct {
	Endpoint   string
	Status     mpd.Status
	Track      *mpd.Track
	Presence   format.Rendered
	LargeImage string
	Timestamps format.Timestamps
	At         time.Time // When Status was read
	Controls   Controls  // nil when the session cannot be controlled
}

// Position extrapolates the elapsed time of a playing song to now.
func (s Snapshot) Position(now time.Time) time.Duration {
	if s.Status.Elapsed == nil {
		return 0
	}
	pos := *s.Status.Elapsed
	if s.Status.State == mpd.StatePlaying {
		pos += now.Sub(s.At)
	}
	if s.Status.Duration != nil && pos > *s.Status.Duration {
		pos = *s.Status.Duration
	}
	return pos
}

// Source follows the playing MPD server and emits a Snapshot for every
// player or queue change. Unlike the daemon it keeps the session while
// playback is paused so the TUI can still show and resume it.
type Source struct {
	resolver  Resolver
	spec      format.Spec
	art       ArtResolver
	logger    zerolog.Logger
	now       func() time.Time
	keepalive time.Duration
}

// NewSource creates a Source. art may be nil to disable cover art.
func NewSource(resolver Resolver, spec format.Spec, art ArtResolver, logger zerolog.Logger) *Source {
	return &Source{
		resolver:  resolver,
		spec:      spec,
		art:       art,
		logger:    logger.With().Str("component", "tui").Logger(),
		now:       time.Now,
		keepalive: defaultKeepaliveInterval,
	}
}

// Run emits snapshots on out until ctx is cancelled. A lost session
// is replaced by the next playing server.
func (s *Source) Run(ctx context.Context, out chan<- Snapshot) error {
	for {
		session, err := s.resolver.Resolve(ctx)
		if err != nil {
			return err
		}
		s.watch(ctx, session, out)
		if err := session.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to close MPD session")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// watch returns when the session can no longer be used or ctx is done.
func (s *Source) watch(ctx context.Context, session mpd.Session, out chan<- Snapshot) {
	if !s.emit(ctx, session, out) {
		return
	}

	ticker := time.NewTicker(s.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-session.Changes():
			if !ok {
				s.logger.Warn().Str("endpoint", session.Endpoint().String()).Msg("Lost MPD subscription")
				return
			}
			if !s.emit(ctx, session, out) {
				return
			}
		case err := <-session.Errors():
			s.logger.Warn().Err(err).Str("endpoint", session.Endpoint().String()).Msg("MPD watcher failed")
			return
		case <-ticker.C:
			if err := session.Ping(); err != nil {
				s.logger.Warn().Err(err).Msg("MPD ping failed")
				return
			}
		}
	}
}

func (s *Source) emit(ctx context.Context, session mpd.Session, out chan<- Snapshot) bool {
	snap, err := s.snapshot(ctx, session)
	if err != nil {
		s.logger.Warn().Err(err).Str("endpoint", session.Endpoint().String()).Msg("Failed to read player")
		return false
	}
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Source) snapshot(ctx context.Context, session mpd.Session) (Snapshot, error) {
	status, err := session.Status()
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Endpoint: session.Endpoint().String(),
		Status:   status,
		At:       s.now(),
	}
	if c, ok := session.(Controls); ok {
		snap.Controls = c
	}

	if status.State == mpd.StateStopped {
		return snap, nil
	}

	track, err := session.CurrentTrack()
	if err != nil {
		return Snapshot{}, err
	}
	snap.Track = track
	if track == nil {
		return snap, nil
	}

	snap.Presence = s.spec.Render(track, status)
	snap.LargeImage = s.spec.LargeImage
	if s.art != nil {
		if url, ok := s.art.ResolveURL(ctx, track); ok {
			snap.LargeImage = url
		}
	}
	snap.Timestamps = format.ComputeTimestamps(status, s.spec.Timestamp, snap.At)
	return snap, nil
}
