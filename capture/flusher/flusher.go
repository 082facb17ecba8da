// Package flusher implements a pauseable periodic flush timer driven by a
// mutex + condition-variable FSM, decoupled from the worker's command
// channel so it has no import cycle with package capture.
package flusher

import (
	"sync"
	"time"
)

// Flusher is a single-shot timer actor with internal state {running}
// guarded by a mutex+condvar pair. Emit is called once per elapsed
// interval while running; it should enqueue a flush command on the
// owner's channel and return false if that channel is known to be gone,
// at which point the actor terminates.
type Flusher struct {
	interval time.Duration
	emit     func() bool

	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	closed  bool
}

// New creates a Flusher with the given interval. interval must be > 0;
// callers configure a Flusher at all only when an optional flush interval
// was set (a zero interval means "no flusher", represented by a nil
// *Flusher in package capture, not by a Flusher instance).
func New(interval time.Duration, emit func() bool) *Flusher {
	f := &Flusher{interval: interval, emit: emit}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Run is the actor's main loop. It must be started in its own goroutine
// by the owner (the capture worker) before Start/Stop are called, and
// runs until Close is called.
func (f *Flusher) Run() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		for !f.running && !f.closed {
			f.cond.Wait()
		}
		if f.closed {
			return
		}

		f.mu.Unlock()
		time.Sleep(f.interval)
		f.mu.Lock()

		if f.closed {
			return
		}
		if !f.running {
			// Stopped while we were asleep: skip emission, go back to
			// waiting. This is what gives Pause its "takes effect by the
			// next tick" guarantee without needing to interrupt the sleep.
			continue
		}

		f.mu.Unlock()
		more := f.emit()
		f.mu.Lock()
		if !more {
			return
		}
	}
}

// Start transitions stopped -> running, signaling the waiter. Calling
// Start while already running is a protocol violation and panics;
// package capture guards against issuing a redundant Start (see
// capture.Worker's idempotent start handling).
func (f *Flusher) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		panic("flusher: Start called while already running")
	}
	f.running = true
	f.cond.Broadcast()
}

// Stop transitions running -> stopped. Calling Stop while already stopped
// is a protocol violation and panics, mirroring Start.
func (f *Flusher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		panic("flusher: Stop called while already stopped")
	}
	f.running = false
	f.cond.Broadcast()
}

// Running reports the current FSM state, letting callers guard against a
// redundant Start/Stop without tracking the state themselves.
func (f *Flusher) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Close permanently terminates Run, regardless of running/stopped state.
// The worker calls this exactly once, on its own exit.
func (f *Flusher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.cond.Broadcast()
}
