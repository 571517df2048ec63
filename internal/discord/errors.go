package discord

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	// ErrNotConnected is returned when an activity is pushed before the
	// IPC connection is ready.
	ErrNotConnected = errors.New("discord: not connected")

	// ErrClosed is returned when Discord closes the IPC connection.
	ErrClosed = errors.New("discord: connection closed")
)

// RPCError is an ERROR reply from Discord to a command.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("discord error %d: %s", e.Code, e.Message)
}

// Error records the IPC operation that failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return "discord: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsIO reports whether the failure came from the transport, in which case
// the connection is unusable and must be re-established. Replies Discord
// rejected leave the connection intact.
func (e *Error) IsIO() bool {
	return isIOError(e.Err)
}

func isIOError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, ErrClosed):
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var errno syscall.Errno
	return errors.As(err, &errno)
}

// IsIO reports whether err is a transport failure from this package.
func IsIO(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsIO()
}
