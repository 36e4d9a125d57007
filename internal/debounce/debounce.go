// Package debounce coalesces rapid successive writes with a trailing-edge
// timer: only the last value submitted within the quiet window is flushed.
// The round store itself only exposes immediate writes; callers that take
// keystroke-level edits own one of these per field.
package debounce

import (
	"sync"
	"time"
)

// Writer flushes the most recent value once the quiet window elapses without
// another Submit. A value submitted and not yet flushed is lost if the
// process terminates inside the window; that bounded risk is the trade for
// not writing on every keystroke.
type Writer struct {
	window time.Duration
	flush  func(value string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	has     bool
}

func NewWriter(window time.Duration, flush func(value string)) *Writer {
	if window <= 0 {
		window = 600 * time.Millisecond
	}
	return &Writer{window: window, flush: flush}
}

// Submit records a new value and restarts the quiet window.
func (w *Writer) Submit(value string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = value
	w.has = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.fire)
}

func (w *Writer) fire() {
	w.mu.Lock()
	if !w.has {
		w.mu.Unlock()
		return
	}
	value := w.pending
	w.has = false
	w.mu.Unlock()
	w.flush(value)
}

// Flush writes any pending value immediately, cancelling the timer. Used on
// teardown so an in-window edit is not lost on a clean shutdown.
func (w *Writer) Flush() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fire()
}
