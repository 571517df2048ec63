package mpd

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRetryInterval is the pause between two unsuccessful sweeps
const DefaultRetryInterval = 5 * time.Second

// ErrNoPlayingEndpoint is returned by Sweep when no endpoint is both reachable and playing
var ErrNoPlayingEndpoint = errors.New("mpd: no playing endpoint")

// Dialer opens a session to a single endpoint
type Dialer func(Endpoint) (Session, error)

// Resolver finds the first endpoint, in configured order, that is currently playing
type Resolver struct {
	endpoints []Endpoint
	interval  time.Duration
	dial      Dialer
	logger    zerolog.Logger
}

// NewResolver creates a Resolver. A nil dialer uses Dial.
func NewResolver(endpoints []Endpoint, interval time.Duration, dial Dialer, logger zerolog.Logger) *Resolver {
	if interval <= 0 {
		interval = DefaultRetryInterval
	}
	r := &Resolver{
		endpoints: endpoints,
		interval:  interval,
		dial:      dial,
		logger:    logger.With().Str("component", "resolver").Logger(),
	}
	if r.dial == nil {
		r.dial = func(ep Endpoint) (Session, error) {
			return Dial(ep, logger)
		}
	}
	return r
}

// Resolve sweeps the endpoint list until one is playing, sleeping
// between sweeps. Blocks until a session is found or ctx is cancelled.
// The returned session is already subscribed to change events.
func (r *Resolver) Resolve(ctx context.Context) (Session, error) {
	r.logger.Info().Int("endpoints", len(r.endpoints)).Msg("Waiting for a playing MPD server")

	for {
		session, err := r.Sweep(ctx)
		if err == nil {
			r.logger.Info().Str("endpoint", session.Endpoint().String()).Msg("Found playing MPD server")
			return session, nil
		}
		if !errors.Is(err, ErrNoPlayingEndpoint) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.interval):
		}
	}
}

// Sweep tries every endpoint once, in order. The first endpoint that
// is reachable and playing wins; later endpoints are not tried.
func (r *Resolver) Sweep(ctx context.Context) (Session, error) {
	for _, ep := range r.endpoints {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		session, err := r.dial(ep)
		if err != nil {
			r.logger.Error().Err(err).Str("endpoint", ep.String()).Msg("Failed to connect")
			continue
		}

		status, err := session.Status()
		if err != nil {
			r.logger.Error().Err(err).Str("endpoint", ep.String()).Msg("Failed to get status")
			_ = session.Close()
			continue
		}

		if status.State != StatePlaying {
			r.logger.Debug().
				Str("endpoint", ep.String()).
				Str("state", status.State.String()).
				Msg("Endpoint not playing")
			_ = session.Close()
			continue
		}

		if err := session.Subscribe(); err != nil {
			r.logger.Error().Err(err).Str("endpoint", ep.String()).Msg("Failed to subscribe")
			_ = session.Close()
			continue
		}

		return session, nil
	}

	return nil, ErrNoPlayingEndpoint
}
