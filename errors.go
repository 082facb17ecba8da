package weirdshark

import "errors"

// Sentinel errors the builder and capturer can fail with. Callers match
// them with errors.Is; they are wrapped with context via
// github.com/pkg/errors at the point they are raised.
var (
	// ErrInterfaceNotSpecified is returned by Build when no interface was
	// selected and DefaultInterface could not find a usable one.
	ErrInterfaceNotSpecified = errors.New("no capture interface specified and no default interface could be determined")

	// ErrInterfaceNotFound is returned when a named or indexed interface
	// does not appear in the host's interface list.
	ErrInterfaceNotFound = errors.New("capture interface not found")

	// ErrCaptureTransportOpenFailed wraps a failure to open the selected
	// interface's capture handle.
	ErrCaptureTransportOpenFailed = errors.New("failed to open capture transport")

	// ErrCapturerChannelBroken is returned by a Capturer control method
	// (Start/Pause/Stop) when the worker's command queue has already been
	// closed, i.e. the capture goroutine has already terminated.
	ErrCapturerChannelBroken = errors.New("capturer command channel is closed")
)
