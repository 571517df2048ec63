package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const maxRecentTracks = 5

// Config holds TUI configuration options
type Config struct {
	RefreshRate time.Duration // How often to refresh the display
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 500 * time.Millisecond,
	}
}

// RecentTrack stores info about a recently played track
type RecentTrack struct {
	Title    string
	Artist   string
	PlayedAt time.Time
}

// App previews the presence the daemon would publish for the playing
// MPD server, next to the player state it was rendered from.
type App struct {
	app        *tview.Application
	nowPlaying *tview.TextView
	progress   *tview.TextView
	presence   *tview.TextView
	recent     *tview.TextView
	status     *tview.TextView

	config Config
	now    func() time.Time

	// mu guards the fields below; the update consumer and the refresh
	// ticker run on different goroutines.
	mu      sync.Mutex
	current *Snapshot

	// Ring buffer for recent tracks
	recentBuf   [maxRecentTracks]RecentTrack
	recentCount int

	// Last-rendered content for change detection
	lastNowPlaying string
	lastProgress   string
	lastPresence   string
	lastRecent     string

	// Updated only when GetInnerRect returns a positive value.
	lastBarWidth int

	cancelFunc context.CancelFunc
}

// New creates a new TUI application with default config
func New() *App {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new TUI application with the given config
func NewWithConfig(cfg Config) *App {
	a := &App{
		app:    tview.NewApplication(),
		config: cfg,
		now:    time.Now,
	}
	a.setupUI()
	return a
}

func (a *App) setupUI() {
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	a.progress = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.progress.SetBorder(true)

	a.presence = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.presence.SetBorder(true).
		SetTitle(" Presence ").
		SetTitleAlign(tview.AlignLeft)

	a.recent = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.recent.SetBorder(true).
		SetTitle(" Recent ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText("[gray]q:quit  space:play/pause  n:next  p:prev[-]")

	bottomRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.presence, 0, 2, false).
		AddItem(a.recent, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.nowPlaying, 0, 3, false).
		AddItem(a.progress, 3, 1, false).
		AddItem(bottomRow, 8, 1, false).
		AddItem(a.status, 1, 1, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetRoot(flex, true)
}

func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	var action func(Controls) error
	switch event.Rune() {
	case 'q', 'Q':
		a.app.Stop()
		return nil
	case ' ':
		action = Controls.TogglePause
	case 'n', 'N':
		action = Controls.Next
	case 'p', 'P':
		action = Controls.Previous
	default:
		return event
	}

	a.mu.Lock()
	var controls Controls
	if a.current != nil {
		controls = a.current.Controls
	}
	a.mu.Unlock()

	if controls != nil {
		// The idle subscription reports the result as a new snapshot.
		go func() { _ = action(controls) }()
	}
	return nil
}

// Run starts the TUI and renders snapshots from updates until ctx is
// cancelled or the user quits.
func (a *App) Run(ctx context.Context, updates <-chan Snapshot) error {
	ctx, a.cancelFunc = context.WithCancel(ctx)
	defer a.cancelFunc()

	go a.handleUpdates(ctx, updates)

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// handleUpdates stores incoming snapshots and redraws on a single ticker
// so bursts of updates never queue up redraws.
func (a *App) handleUpdates(ctx context.Context, updates <-chan Snapshot) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				a.apply(snap)
			}
		}
	}()

	refreshRate := a.config.RefreshRate
	if refreshRate <= 0 {
		refreshRate = 500 * time.Millisecond
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-ticker.C:
			a.refresh()
		}
	}
}

// apply records a snapshot, pushing the previous track onto the recent
// list when the song changed.
func (a *App) apply(snap Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if prev := a.current; prev != nil && prev.Track != nil && !sameTrack(prev.Track, snap.Track) {
		a.addToRecentTracks(prev.Track)
	}
	a.current = &snap
}

func sameTrack(a, b *mpd.Track) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.File != "" || b.File != "" {
		return a.File == b.File
	}
	return a.Title == b.Title
}

// addToRecentTracks must be called with a.mu held.
func (a *App) addToRecentTracks(track *mpd.Track) {
	artist, _ := track.First(mpd.TagArtist)
	idx := a.recentCount % maxRecentTracks
	a.recentBuf[idx] = RecentTrack{
		Title:    track.Title,
		Artist:   artist,
		PlayedAt: a.now(),
	}
	a.recentCount++
}

// getRecentTracks returns recent tracks most recent first.
// Must be called with a.mu held.
func (a *App) getRecentTracks() []RecentTrack {
	n := a.recentCount
	if n > maxRecentTracks {
		n = maxRecentTracks
	}
	result := make([]RecentTrack, n)
	for i := 0; i < n; i++ {
		idx := (a.recentCount - 1 - i) % maxRecentTracks
		result[i] = a.recentBuf[idx]
	}
	return result
}

func (a *App) refresh() {
	a.app.QueueUpdateDraw(func() {
		a.mu.Lock()
		defer a.mu.Unlock()

		a.updateNowPlaying()
		a.updateProgress()
		a.updatePresence()
		a.updateRecentTracks()
	})
}

func (a *App) updateNowPlaying() {
	text := nowPlayingText(a.current)
	if text != a.lastNowPlaying {
		a.lastNowPlaying = text
		a.nowPlaying.SetText(text)
	}
}

func (a *App) updateProgress() {
	var text string

	if a.current != nil && a.current.Track != nil && a.current.Status.State != mpd.StateStopped {
		_, _, width, _ := a.progress.GetInnerRect()
		barWidth := width - 14 // Account for time display
		if barWidth > 0 {
			a.lastBarWidth = barWidth
		}
		if a.lastBarWidth < 10 {
			a.lastBarWidth = 10
		}

		var duration time.Duration
		if a.current.Status.Duration != nil {
			duration = *a.current.Status.Duration
		}
		position := a.current.Position(a.now())
		text = fmt.Sprintf("%s %s %s",
			formatDuration(position),
			buildProgressBar(position, duration, a.lastBarWidth),
			formatDuration(duration))
	}

	if text != a.lastProgress {
		a.lastProgress = text
		a.progress.SetText(text)
	}
}

func (a *App) updatePresence() {
	text := presenceText(a.current)
	if text != a.lastPresence {
		a.lastPresence = text
		a.presence.SetText(text)
	}
}

func (a *App) updateRecentTracks() {
	var sb strings.Builder

	tracks := a.getRecentTracks()
	if len(tracks) == 0 {
		sb.WriteString("[gray]No recent tracks[-]")
	}
	for i, track := range tracks {
		if i > 0 {
			sb.WriteString("\n")
		}
		name := track.Title
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		sb.WriteString(fmt.Sprintf("[white]%s[-] [gray]%s[-]", tview.Escape(name), track.PlayedAt.Format("15:04")))
	}

	text := sb.String()
	if text != a.lastRecent {
		a.lastRecent = text
		a.recent.SetText(text)
	}
}

// Stop stops the TUI application
func (a *App) Stop() {
	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	a.app.Stop()
}

func nowPlayingText(snap *Snapshot) string {
	if snap == nil {
		return "\n\n[gray]Waiting for a playing MPD server[-]"
	}
	if snap.Track == nil || snap.Status.State == mpd.StateStopped {
		return fmt.Sprintf("\n\n[gray]Nothing playing on %s[-]", tview.Escape(snap.Endpoint))
	}

	artist, _ := snap.Track.First(mpd.TagArtist)
	album, _ := snap.Track.First(mpd.TagAlbum)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("[white::b]%s[-:-:-]\n", tview.Escape(snap.Track.Title)))
	sb.WriteString(fmt.Sprintf("[yellow]%s[-]\n", tview.Escape(artist)))
	sb.WriteString(fmt.Sprintf("[gray]%s[-]", tview.Escape(album)))

	stateIcon := "[green]▶[-]"
	if snap.Status.State == mpd.StatePaused {
		stateIcon = "[yellow]⏸[-]"
	}
	sb.WriteString(fmt.Sprintf("\n\n%s [gray]%s[-]", stateIcon, tview.Escape(snap.Endpoint)))
	return sb.String()
}

// presenceText shows the fields as they would be pushed to Discord.
func presenceText(snap *Snapshot) string {
	if snap == nil {
		return "[gray]No presence[-]"
	}
	if snap.Track == nil || snap.Status.State != mpd.StatePlaying {
		return "[gray]Presence cleared[-]"
	}

	var sb strings.Builder
	field := func(name, value string) {
		if value == "" {
			return
		}
		sb.WriteString(fmt.Sprintf("[gray]%-8s[-] %s\n", name, tview.Escape(value)))
	}
	field("details", snap.Presence.Details)
	field("state", snap.Presence.State)
	field("image", snap.LargeImage)
	field("tooltip", snap.Presence.LargeText)
	if start := snap.Timestamps.Start; start != nil {
		field("start", time.Unix(*start, 0).Format("15:04:05"))
	}
	if end := snap.Timestamps.End; end != nil {
		field("end", time.Unix(*end, 0).Format("15:04:05"))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// buildProgressBar creates a text-based progress bar
func buildProgressBar(position, duration time.Duration, width int) string {
	if duration == 0 || width <= 0 {
		return strings.Repeat("-", max(width, 0))
	}

	progress := float64(position) / float64(duration)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	empty := width - filled

	return "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"
}

// formatDuration formats a duration as MM:SS or HH:MM:SS for longer durations
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
