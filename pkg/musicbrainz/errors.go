package musicbrainz

import (
	"fmt"
	"net/http"
)

// Error represents a non-2xx response from the MusicBrainz web service.
type Error struct {
	StatusCode int    // HTTP status code
	Message    string // Error message from MusicBrainz, or the status text
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("musicbrainz: status %d: %s", e.StatusCode, e.Message)
}

// Is checks if the target error is a MusicBrainz error with the same status.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode
}

// Temporary returns true if the request should be retried.
//
// MusicBrainz answers 503 when a client exceeds its rate limit;
// 429 is treated the same way.
func (e *Error) Temporary() bool {
	switch e.StatusCode {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// Predefined errors for common cases.
var (
	// ErrNotFound matches lookups of an MBID the service does not know.
	ErrNotFound = &Error{StatusCode: http.StatusNotFound, Message: "not found"}
)
