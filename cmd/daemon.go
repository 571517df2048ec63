package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/mpdrpc/internal/artwork"
	"github.com/jfmyers9/mpdrpc/internal/config"
	"github.com/jfmyers9/mpdrpc/internal/daemon"
	"github.com/jfmyers9/mpdrpc/internal/discord"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

var (
	daemonLogFile  string
	daemonLogLevel string
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the presence daemon",
	Long: `Run the daemon that mirrors MPD playback onto Discord rich presence.

The daemon will:
- Sweep the configured MPD servers until one is playing
- Follow its player and queue changes and push a presence for each one
- Look up cover art on MusicBrainz and the Cover Art Archive
- Clear the presence and sweep again when playback stops
- Reconnect to Discord after it restarts
- Handle graceful shutdown on SIGINT/SIGTERM

The daemon runs in the foreground and logs to stderr by default.
Use the --log-file flag to log to a file (useful for systemd).`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)

	daemonCmd.Flags().StringVar(&daemonLogFile, "log-file", "", "Log file path (default: stderr)")
	daemonCmd.Flags().StringVar(&daemonLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	spec, err := cfg.Format.Spec()
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	logger := setupLogger(daemonLogFile, daemonLogLevel)

	logger.Info().
		Str("version", version).
		Strs("hosts", cfg.Hosts).
		Msg("Starting mpdrpc daemon")

	resolver := mpd.NewResolver(cfg.Endpoints(), cfg.RetryDelay(), nil, logger)
	presence := discord.New(cfg.AppID(), logger)

	// A nil *artwork.Resolver must not reach the daemon as a non-nil interface.
	var art daemon.ArtResolver
	if cfg.Artwork.Enabled {
		r, err := newArtResolver(cfg, logger)
		if err != nil {
			return err
		}
		art = r
	} else {
		logger.Info().Msg("Cover art lookups disabled")
	}

	d := daemon.New(daemon.Config{Format: spec}, resolver, presence, art, logger)

	// Run daemon (blocks until shutdown signal)
	if err := d.Run(); err != nil {
		return fmt.Errorf("daemon error: %w", err)
	}

	logger.Info().Msg("Daemon stopped")
	return nil
}

func newArtResolver(cfg *config.Config, logger zerolog.Logger) (*artwork.Resolver, error) {
	r, err := artwork.New(artwork.Config{
		MusicBrainzURL: cfg.Artwork.MusicBrainzURL,
		CoverArtURL:    cfg.Artwork.CoverArtURL,
		Size:           cfg.Artwork.Size,
		Timeout:        cfg.Artwork.Timeout,
		UserAgent:      userAgent(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create artwork resolver: %w", err)
	}
	return r, nil
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
