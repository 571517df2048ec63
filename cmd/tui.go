package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/mpdrpc/internal/config"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
	"github.com/jfmyers9/mpdrpc/internal/tui"
)

var tuiLogFile string

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Preview the presence in a terminal UI",
	Long: `Display a terminal-based user interface showing the playing MPD server
and the Discord presence the daemon would build from it, with real-time
updates from MPD's idle notifications.

The TUI includes:
- Now playing display with title, artist, album and server
- Progress bar showing playback position
- The rendered presence fields, cover art URL and timestamps
- Recently played tracks

Keys: q quit, space play/pause, n next, p previous.

The TUI does not talk to Discord; run 'mpdrpc daemon' for that.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "Log file path (default: discard)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	spec, err := cfg.Format.Spec()
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	// Anything written to stderr would corrupt the screen.
	logger := zerolog.Nop()
	if tuiLogFile != "" {
		logger = setupLogger(tuiLogFile, "debug")
	}

	var art tui.ArtResolver
	if cfg.Artwork.Enabled {
		r, err := newArtResolver(cfg, logger)
		if err != nil {
			return err
		}
		art = r
	}

	resolver := mpd.NewResolver(cfg.Endpoints(), cfg.RetryDelay(), nil, logger)
	source := tui.NewSource(resolver, spec, art, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan tui.Snapshot, 4)
	go func() {
		if err := source.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Snapshot source stopped")
		}
	}()

	app := tui.New()
	return app.Run(ctx, updates)
}
