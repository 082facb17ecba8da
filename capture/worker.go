// Package capture implements the capture worker: the concurrent machinery
// that moves raw frames from the capture transport into an aggregation
// map without stalling capture, applies the filter composition, and
// drives periodic snapshot/flush under pause/resume semantics.
package capture

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/weirdshark/weirdshark/capture/flusher"
	"github.com/weirdshark/weirdshark/capture/parser"
	"github.com/weirdshark/weirdshark/capture/transport"
	"github.com/weirdshark/weirdshark/filter"
	"github.com/weirdshark/weirdshark/flow"
	"github.com/weirdshark/weirdshark/report"
)

// Config is the worker's immutable configuration, produced once by the
// builder and consumed once at construction.
type Config struct {
	ReportDir     string
	Prefix        string
	FlushInterval time.Duration // 0 disables the periodic flusher
	Filters       filter.Set
}

// Worker owns the aggregation map and is its only mutator. It
// multiplexes four command sources onto a single queue: the capture
// adapter's frames, the controller's Start/Pause/Stop, the flusher's
// Flush ticks, and the final Flush the controller pushes ahead of Stop.
type Worker struct {
	cfg   Config
	queue *commandQueue

	paused bool
	m      flow.Map
	fl     *flusher.Flusher

	dropped atomic.Int64
	now     func() time.Time
}

// NewWorker validates cfg, creates the report directory if it does not
// exist (a construction-time fatal error if that fails), and starts the
// flusher if one was configured. The worker does not begin dispatching
// commands until Run is called.
func NewWorker(cfg Config) (*Worker, error) {
	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return nil, errors.Wrapf(ErrReportDirectoryCreateFailed, "%s: %v", cfg.ReportDir, err)
	}

	w := &Worker{
		cfg:   cfg,
		queue: newCommandQueue(),
		m:     flow.Map{},
		now:   time.Now,
	}

	if cfg.FlushInterval > 0 {
		w.fl = flusher.New(cfg.FlushInterval, w.emitFlush)
		go w.fl.Run()
		w.fl.Start()
	}

	return w, nil
}

func (w *Worker) emitFlush() bool {
	return w.queue.Send(Command{Type: Flush})
}

// Send enqueues a command from an external producer (the controller, or
// the capture adapter goroutine started by Run). It is the one method
// safe to call from any goroutine; everything else in Worker belongs to
// the dispatch loop run by Run.
func (w *Worker) Send(c Command) bool {
	return w.queue.Send(c)
}

// Run starts the frame-producing adapter goroutine over src (an already
// open capture handle, closed when Run returns), and drives the dispatch loop until a Stop command is
// processed or a fatal error occurs. It blocks until then and returns the
// terminal error, if any (nil on a clean Stop).
//
// Ordering: the single consumer processes commands in enqueue order, so
// every frame enqueued before a Flush lands in the report that Flush
// produces, and a Pause takes effect only once every frame enqueued
// ahead of it has been processed.
func (w *Worker) Run(src transport.FrameSource) error {
	defer func() {
		w.queue.Close()
		if w.fl != nil {
			w.fl.Close()
		}
		src.Close()
	}()

	go w.runCaptureAdapter(src)

	for {
		cmd, ok := w.queue.Recv()
		if !ok {
			// Only reachable if something else closed the queue; Stop is
			// the normal exit path and returns directly, below.
			return nil
		}

		switch cmd.Type {
		case Start:
			w.paused = false
			if w.fl != nil && !w.fl.Running() {
				w.fl.Start()
			}
		case Pause:
			w.paused = true
			if w.fl != nil && w.fl.Running() {
				w.fl.Stop()
			}
		case Flush:
			if err := w.flush(); err != nil {
				return err
			}
		case Frame:
			if cmd.FrameErr != nil {
				return errors.Wrap(ErrCaptureRead, cmd.FrameErr.Error())
			}
			if !w.paused {
				w.acceptFrame(cmd.FrameData)
			}
		case Stop:
			return nil
		}
	}
}

// acceptFrame parses one frame and, if it parses and passes the filter
// set, folds it into the aggregation map. Parser rejections and filter
// misses are silently dropped: they never touch the map and never
// terminate the worker.
func (w *Worker) acceptFrame(data []byte) {
	res, err := parser.Parse(data)
	if err != nil {
		return
	}
	if !w.cfg.Filters.Accepts(res.Key) {
		return
	}
	w.m.Accept(res.Key, res.Bytes, w.now())
}

// flush atomically moves the current map out (leaving the worker's map
// empty), writes it to a new report file, then discards the moved-out
// copy. A Flush while paused still writes a file (possibly with zero
// rows): a flush always runs when commanded, so the timestamped file
// sequence matches the timer sequence regardless of pause state.
func (w *Worker) flush() error {
	snapshot := w.m
	w.m = flow.Map{}

	if _, err := report.Write(w.cfg.ReportDir, w.cfg.Prefix, w.now(), snapshot); err != nil {
		return errors.Wrap(ErrReportWriteFailed, err.Error())
	}
	return nil
}

// runCaptureAdapter is the dedicated producer goroutine: it pulls frames
// off src one at a time and enqueues them. A blocking read that errors is
// forwarded once as a fatal Frame command, after which the adapter exits;
// if the queue reports itself closed (the worker has stopped), the
// adapter exits without forwarding anything further. There is no portable
// way to interrupt a blocked capture read: a paused worker still wakes
// this goroutine on every frame, which simply finds cmd.FrameErr nil,
// paused true, and drops it.
func (w *Worker) runCaptureAdapter(src transport.FrameSource) {
	for {
		data, err := src.Next()
		if err != nil {
			w.queue.Send(Command{Type: Frame, FrameErr: err})
			return
		}
		if !w.queue.Send(Command{Type: Frame, FrameData: data}) {
			return
		}
	}
}

// Dropped returns the number of frames dropped due to channel
// backpressure. Always zero under the default unbounded queue
// (package-internal commandQueue never drops); wired so a future
// bounded-queue, drop-oldest mode has somewhere to report into without
// changing this method's signature.
func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}
