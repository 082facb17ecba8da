package capture

// CommandType distinguishes the four control-command variants (Start,
// Pause, Stop, Flush), plus the frame-delivery variant used by the
// capture adapter.
type CommandType int

const (
	// Start resumes accepting packets and (re)enables the flusher.
	Start CommandType = iota
	// Pause stops accepting packets and disables the flusher.
	Pause
	// Stop drains one final Flush (pushed by the caller before Stop) and
	// terminates the dispatch loop.
	Stop
	// Flush atomically snapshots and writes the current map.
	Flush
	// Frame carries one captured link-layer frame, or a fatal read error
	// from the capture adapter.
	Frame
)

// Command is the single variant type multiplexed onto the worker's
// command queue from all of its producers (the capture adapter, the
// flusher, and the controller, whose Capturer Start/Pause/Flush/Stop
// methods enqueue through Worker.Send).
type Command struct {
	Type CommandType

	// Populated only when Type == Frame.
	FrameData []byte
	FrameErr  error
}
