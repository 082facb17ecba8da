package weirdshark

import (
	"github.com/weirdshark/weirdshark/capture"
	"github.com/weirdshark/weirdshark/capture/transport"
)

// Capturer is the controller handle a caller uses to drive one capture
// session end to end: start it in a goroutine via Run, then issue
// Start/Pause/Stop from any other goroutine.
type Capturer struct {
	// Interface is the host interface Build resolved and opened.
	Interface transport.Interface

	// SessionID identifies this capture run in log lines; it has no
	// bearing on report file names or contents.
	SessionID string

	worker *capture.Worker
	src    transport.FrameSource
}

// Run drives the capture worker's dispatch loop until Stop is called or
// a fatal error occurs (a report write failure, or a capture transport
// read error). It blocks, so callers invoke it in its own goroutine and
// read the returned error after Stop.
func (c *Capturer) Run() error {
	return c.worker.Run(c.src)
}

// Start begins (or resumes, after Pause) accepting captured frames into
// the aggregation map and re-enables the periodic flusher, if one is
// configured. Returns ErrCapturerChannelBroken if the worker has already
// stopped.
func (c *Capturer) Start() error {
	if !c.worker.Send(capture.Command{Type: capture.Start}) {
		return ErrCapturerChannelBroken
	}
	return nil
}

// Pause stops accepting captured frames and disables the periodic
// flusher until the next Start. Returns ErrCapturerChannelBroken if the
// worker has already stopped.
func (c *Capturer) Pause() error {
	if !c.worker.Send(capture.Command{Type: capture.Pause}) {
		return ErrCapturerChannelBroken
	}
	return nil
}

// Flush requests an out-of-band snapshot-and-write of the current
// aggregation map, independent of the periodic flusher's schedule.
// Returns ErrCapturerChannelBroken if the worker has already stopped.
func (c *Capturer) Flush() error {
	if !c.worker.Send(capture.Command{Type: capture.Flush}) {
		return ErrCapturerChannelBroken
	}
	return nil
}

// Stop requests one final flush followed by termination of the dispatch
// loop; Run then returns. Returns ErrCapturerChannelBroken if the worker
// has already stopped.
func (c *Capturer) Stop() error {
	if !c.worker.Send(capture.Command{Type: capture.Flush}) {
		return ErrCapturerChannelBroken
	}
	if !c.worker.Send(capture.Command{Type: capture.Stop}) {
		return ErrCapturerChannelBroken
	}
	return nil
}

// Dropped returns the number of frames dropped due to queue
// backpressure, always zero under the default unbounded queue.
func (c *Capturer) Dropped() int64 {
	return c.worker.Dropped()
}
