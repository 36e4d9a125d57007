package suggest

import (
	"context"
	"testing"

	"github.com/yungbote/letterloop-backend/internal/types"
)

func TestStreamDrain(t *testing.T) {
	s := NewStream(2)
	s.Emit(context.Background(), types.Idea{ID: "1", Title: "a"})
	s.Emit(context.Background(), types.Idea{ID: "2", Title: "b"})
	s.Finish(nil)

	out, err := s.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" {
		t.Fatalf("unexpected drain result: %+v", out)
	}
}

func TestStreamFinishIdempotent(t *testing.T) {
	s := NewStream(1)
	s.Finish(nil)
	s.Finish(nil)
	if _, ok := <-s.C; ok {
		t.Fatalf("channel should be closed")
	}
}

func TestTryEmitFullBufferDrops(t *testing.T) {
	s := NewStream(1)
	if !s.TryEmit(types.Idea{Title: "fits"}) {
		t.Fatalf("first emit should fit")
	}
	if s.TryEmit(types.Idea{Title: "dropped"}) {
		t.Fatalf("full buffer should drop without blocking")
	}
}
