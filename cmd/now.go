/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/mpdrpc/internal/config"
	"github.com/jfmyers9/mpdrpc/internal/format"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const (
	marqueeSpeed     = 2 // characters per second
	marqueeSeparator = " • "
	nowSeparator     = " - "
)

// nowCmd represents the now command
var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "Display the presence for the currently playing track",
	Long: `Query the configured MPD servers and print the presence the daemon
would show for the first one that is playing.

By default the rendered details and state are printed, joined by " - ".
Pass --format to print a single template instead. Templates use the same
$tokens as the config file: $title, $artist, $album, $albumartist, $date,
$disc, $genre, $track, $duration and $elapsed.

Exit codes:
  0 - A track is currently playing
  1 - Nothing playing, or no MPD server reachable`,
	RunE: runNow,
}

func init() {
	rootCmd.AddCommand(nowCmd)

	nowCmd.Flags().StringP("format", "f", "", "Output template (overrides the configured details and state)")
	nowCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled)")
	nowCmd.Flags().Bool("marquee", false, "Scroll text longer than --width instead of truncating it")
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	spec, err := cfg.Format.Spec()
	if err != nil {
		return fmt.Errorf("invalid format: %w", err)
	}

	// Status bars call this every few seconds; keep stderr quiet.
	resolver := mpd.NewResolver(cfg.Endpoints(), cfg.RetryDelay(), nil, zerolog.Nop())

	session, err := resolver.Sweep(ctx)
	if errors.Is(err, mpd.ErrNoPlayingEndpoint) {
		os.Exit(1)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to find a playing server: %w", err)
	}
	defer session.Close()

	status, err := session.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	track, err := session.CurrentTrack()
	if err != nil {
		return fmt.Errorf("failed to get current song: %w", err)
	}
	if track == nil {
		os.Exit(1)
		return nil
	}

	formatFlag, _ := cmd.Flags().GetString("format")
	output := renderNow(spec, formatFlag, track, status)

	width, _ := cmd.Flags().GetInt("width")
	marquee, _ := cmd.Flags().GetBool("marquee")
	if width > 0 {
		if marquee {
			output = marqueeText(output, width, time.Now())
		} else {
			output = padToWidth(output, width)
		}
	}

	fmt.Println(output)
	return nil
}

// renderNow renders the one-line summary. A non-empty override replaces
// the configured details and state.
func renderNow(spec format.Spec, override string, track *mpd.Track, status mpd.Status) string {
	if override != "" {
		return format.Compile(override).Render(track, status)
	}

	rendered := spec.Render(track, status)
	switch {
	case rendered.State == "":
		return rendered.Details
	case rendered.Details == "":
		return rendered.State
	default:
		return rendered.Details + nowSeparator + rendered.State
	}
}

// padToWidth pads or truncates text to a fixed display width.
// Width is measured in display columns, accounting for Unicode characters.
// If width <= 0, returns text unchanged.
// If text is longer than width, truncates with "..." suffix.
// If text is shorter than width, pads with spaces.
func padToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	currentWidth := runewidth.StringWidth(text)

	if currentWidth > width {
		ellipsis := "..."
		ellipsisWidth := runewidth.StringWidth(ellipsis)

		if width <= ellipsisWidth {
			return runewidth.Truncate(ellipsis, width, "")
		}

		truncated := runewidth.Truncate(text, width-ellipsisWidth, "")
		result := truncated + ellipsis

		// A wide rune cut at the boundary leaves the result one column short
		resultWidth := runewidth.StringWidth(result)
		if resultWidth < width {
			return result + strings.Repeat(" ", width-resultWidth)
		}
		return result
	} else if currentWidth < width {
		return text + strings.Repeat(" ", width-currentWidth)
	}

	return text
}

// marqueeText scrolls text that exceeds width, returning the window
// visible at now. Text that fits is padded instead.
//
// The position advances marqueeSpeed characters per second over
// "text{separator}text", so repeated calls from a status bar step
// through the text without any stored state.
func marqueeText(text string, width int, now time.Time) string {
	if width <= 0 {
		return text
	}

	if runewidth.StringWidth(text) <= width {
		return padToWidth(text, width)
	}

	extended := []rune(text + marqueeSeparator + text)
	total := len(extended)
	position := int(now.Unix()*marqueeSpeed) % total

	var result []rune
	resultWidth := 0
	for i := 0; i < total && resultWidth < width; i++ {
		r := extended[(position+i)%total]
		rw := runewidth.RuneWidth(r)
		if resultWidth+rw > width {
			break
		}
		result = append(result, r)
		resultWidth += rw
	}

	if resultWidth < width {
		return string(result) + strings.Repeat(" ", width-resultWidth)
	}
	return string(result)
}
