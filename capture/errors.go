package capture

import "errors"

// Sentinel errors the worker can terminate with. Wrapped with context via
// github.com/pkg/errors at the point they are raised; callers match them
// with errors.Is.
var (
	// ErrReportDirectoryCreateFailed is returned by NewWorker when the
	// configured report directory cannot be created.
	ErrReportDirectoryCreateFailed = errors.New("report directory could not be created")

	// ErrReportWriteFailed terminates the worker when a Flush cannot
	// write its report file, whether triggered periodically or as the
	// final flush before Stop.
	ErrReportWriteFailed = errors.New("report file could not be written")

	// ErrCaptureRead is fatal to the worker: the capture adapter's
	// blocking read returned an error.
	ErrCaptureRead = errors.New("capture transport read failed")
)
