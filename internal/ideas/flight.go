package ideas

import (
	"context"
	"sync"

	"github.com/yungbote/letterloop-backend/internal/suggest"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// flight is the shared pending-computation handle for one cache key. Every
// caller that arrives while the generation runs subscribes to it: late
// subscribers are replayed the items already delivered, then follow along
// live. One flight exists per key at a time.
type flight struct {
	mu        sync.Mutex
	delivered []types.Idea
	subs      []*subscriber
	done      bool
}

type subscriber struct {
	ctx    context.Context
	stream *suggest.Stream
}

func newFlight() *flight {
	return &flight{}
}

func (f *flight) subscribe(ctx context.Context) *suggest.Stream {
	f.mu.Lock()
	defer f.mu.Unlock()
	stream := suggest.NewStream(types.AlphabetSize + len(f.delivered))
	for _, idea := range f.delivered {
		stream.TryEmit(idea)
	}
	if f.done {
		stream.Finish(nil)
		return stream
	}
	f.subs = append(f.subs, &subscriber{ctx: ctx, stream: stream})
	return stream
}

func (f *flight) deliver(idea types.Idea) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.delivered = append(f.delivered, idea)
	for _, sub := range f.subs {
		// Non-blocking: a stalled subscriber must not hold up the flight.
		sub.stream.TryEmit(idea)
	}
}

// finish closes every subscriber stream and returns the full delivered list.
func (f *flight) finish() []types.Idea {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return f.delivered
	}
	f.done = true
	for _, sub := range f.subs {
		sub.stream.Finish(nil)
	}
	f.subs = nil
	return f.delivered
}
