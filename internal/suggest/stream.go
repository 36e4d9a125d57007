package suggest

import (
	"context"
	"sync"

	"github.com/yungbote/letterloop-backend/internal/types"
)

// Stream is a finite, non-restartable sequence of ideas delivered
// incrementally. Receive from C until it closes, then check Err for how the
// stream ended. Consuming it twice requires a fresh generation.
type Stream struct {
	C <-chan types.Idea

	ch   chan types.Idea
	mu   sync.Mutex
	err  error
	done bool
}

// NewStream returns a stream and the producer side stays with the caller via
// Emit and Finish.
func NewStream(buffer int) *Stream {
	ch := make(chan types.Idea, buffer)
	return &Stream{C: ch, ch: ch}
}

// Emit delivers one idea. Returns false when the consumer's context is gone;
// the producer may keep generating, the items are simply dropped from the
// stream (the coordinator still caches the full result).
func (s *Stream) Emit(ctx context.Context, idea types.Idea) bool {
	select {
	case s.ch <- idea:
		return true
	case <-ctx.Done():
		return false
	}
}

// TryEmit delivers one idea without blocking. Returns false when the
// buffer is full; the item is dropped for this consumer only.
func (s *Stream) TryEmit(idea types.Idea) bool {
	select {
	case s.ch <- idea:
		return true
	default:
		return false
	}
}

// Finish closes the stream, recording how it ended. Safe to call once.
func (s *Stream) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	s.err = err
	close(s.ch)
}

// Err reports how the stream ended. Only meaningful after C is closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Drain consumes the stream to completion and returns everything it
// delivered. Callers that want "wait for full result" use this instead of
// polling.
func (s *Stream) Drain(ctx context.Context) ([]types.Idea, error) {
	var out []types.Idea
	for {
		select {
		case idea, ok := <-s.C:
			if !ok {
				return out, s.Err()
			}
			out = append(out, idea)
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}
