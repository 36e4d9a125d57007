package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []string
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

func TestTrailingEdgeKeepsOnlyLastValue(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(50*time.Millisecond, rec.record)

	w.Submit("h")
	w.Submit("he")
	w.Submit("hel")
	w.Submit("hello")

	time.Sleep(200 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("expected single flush of final value, got %v", got)
	}
}

func TestSubmitRestartsWindow(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(80*time.Millisecond, rec.record)

	w.Submit("first")
	time.Sleep(40 * time.Millisecond)
	w.Submit("second")
	time.Sleep(40 * time.Millisecond)

	// Window restarted by the second submit; nothing flushed yet.
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("flush fired inside the window: %v", got)
	}

	time.Sleep(150 * time.Millisecond)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("expected second value after quiet window, got %v", got)
	}
}

func TestFlushImmediate(t *testing.T) {
	rec := &recorder{}
	w := NewWriter(time.Hour, rec.record)

	w.Submit("pending")
	w.Flush()

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "pending" {
		t.Fatalf("expected immediate flush, got %v", got)
	}

	// Nothing left; a second flush is a no-op.
	w.Flush()
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("empty flush should not re-fire, got %v", got)
	}
}
