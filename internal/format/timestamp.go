package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

// TimestampMode selects which playback markers are shown
type TimestampMode int

const (
	TimestampElapsed TimestampMode = iota // start marker only; display counts up
	TimestampLeft                         // end marker only; display counts down
	TimestampBoth                         // start and end markers
	TimestampOff                          // no markers
)

// ParseTimestampMode parses a config value. "remaining" is accepted as an alias of "left".
func ParseTimestampMode(s string) (TimestampMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elapsed":
		return TimestampElapsed, nil
	case "left", "remaining":
		return TimestampLeft, nil
	case "both":
		return TimestampBoth, nil
	case "off":
		return TimestampOff, nil
	default:
		return TimestampOff, fmt.Errorf("invalid timestamp mode %q (want elapsed, left, both or off)", s)
	}
}

// String returns the config spelling of the mode
func (m TimestampMode) String() string {
	switch m {
	case TimestampElapsed:
		return "elapsed"
	case TimestampLeft:
		return "left"
	case TimestampBoth:
		return "both"
	case TimestampOff:
		return "off"
	default:
		return "unknown"
	}
}

// Timestamps are absolute epoch-second markers. Nil means absent.
type Timestamps struct {
	Start *int64
	End   *int64
}

// Empty reports whether neither marker is set
func (t Timestamps) Empty() bool {
	return t.Start == nil && t.End == nil
}

// ComputeTimestamps anchors the current playback position to wall-clock
// time so the display can count without being polled.
//
// Nothing is returned when elapsed time is unknown, or when the mode
// needs the total duration and it is unknown.
func ComputeTimestamps(status mpd.Status, mode TimestampMode, now time.Time) Timestamps {
	if status.Elapsed == nil {
		return Timestamps{}
	}

	current := now.Unix()
	elapsed := int64(status.Elapsed.Seconds())

	switch mode {
	case TimestampElapsed:
		start := current - elapsed
		return Timestamps{Start: &start}
	case TimestampLeft:
		if status.Duration == nil {
			return Timestamps{}
		}
		remaining := int64(status.Duration.Seconds()) - elapsed
		if remaining < 0 {
			remaining = 0
		}
		end := current + remaining
		return Timestamps{End: &end}
	case TimestampBoth:
		if status.Duration == nil {
			return Timestamps{}
		}
		start := current - elapsed
		end := start + int64(status.Duration.Seconds())
		if end < current {
			end = current
		}
		return Timestamps{Start: &start, End: &end}
	default:
		return Timestamps{}
	}
}
