package ideas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/suggest"
	"github.com/yungbote/letterloop-backend/internal/types"
)

type fakePrefsStore struct {
	mu       sync.Mutex
	prefs    map[string]*types.UserPreferences // envID|member
	profiles map[string]*types.AIProfile
	saves    int
}

func newFakePrefsStore() *fakePrefsStore {
	return &fakePrefsStore{
		prefs:    make(map[string]*types.UserPreferences),
		profiles: make(map[string]*types.AIProfile),
	}
}

func (f *fakePrefsStore) GetPreferences(ctx context.Context, envID, member string) (*types.UserPreferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.prefs[envID+"|"+member]; ok {
		clone := *p
		return &clone, nil
	}
	return &types.UserPreferences{}, nil
}

func (f *fakePrefsStore) SavePreferences(ctx context.Context, envID, member string, prefs *types.UserPreferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *prefs
	f.prefs[envID+"|"+member] = &clone
	f.saves++
	return nil
}

func (f *fakePrefsStore) GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[envID]; ok {
		return p, nil
	}
	return &types.AIProfile{}, nil
}

// fakeGen produces a fixed list, optionally held at a gate so tests can race
// multiple viewers against one generation.
type fakeGen struct {
	mu    sync.Mutex
	calls int
	ideas []types.Idea
	fail  bool
	gate  chan struct{}
}

func (g *fakeGen) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGen) Generate(ctx context.Context, req suggest.Request) (*suggest.Stream, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.fail {
		return nil, errors.New("generator down")
	}
	stream := suggest.NewStream(len(g.ideas))
	go func() {
		if g.gate != nil {
			<-g.gate
		}
		for _, idea := range g.ideas {
			stream.Emit(ctx, idea)
		}
		stream.Finish(nil)
	}()
	return stream, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestIdeasCacheMissGeneratesAndCaches(t *testing.T) {
	fs := newFakePrefsStore()
	gen := &fakeGen{ideas: []types.Idea{{ID: "1", Title: "Axe throwing"}, {ID: "2", Title: "Archery"}}}
	coord := NewCoordinator(fs, gen, testLogger(t))
	ctx := context.Background()

	list, err := coord.WaitForIdeas(ctx, "env1", "alice@example.com", "A", Options{})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 ideas, got %d", len(list))
	}
	if gen.callCount() != 1 {
		t.Fatalf("expected one generation, got %d", gen.callCount())
	}

	// Cache write may land just after the stream closes.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if cached, ok := coord.Cached(ctx, "env1", "alice@example.com", "A"); ok && len(cached) == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("result never cached")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestIdeasCacheHitSkipsGeneration(t *testing.T) {
	fs := newFakePrefsStore()
	prefs := &types.UserPreferences{}
	prefs.PutIdeas("A", []types.Idea{{ID: "1", Title: "Axe throwing"}})
	fs.prefs["env1|alice@example.com"] = prefs

	gen := &fakeGen{ideas: []types.Idea{{ID: "x", Title: "Should not appear"}}}
	coord := NewCoordinator(fs, gen, testLogger(t))

	list, err := coord.WaitForIdeas(context.Background(), "env1", "alice@example.com", "A", Options{})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Axe throwing" {
		t.Fatalf("expected the cached idea, got %+v", list)
	}
	if gen.callCount() != 0 {
		t.Fatalf("cache hit must not call the generator, calls=%d", gen.callCount())
	}
}

func TestConcurrentViewersShareOneGeneration(t *testing.T) {
	fs := newFakePrefsStore()
	gen := &fakeGen{
		ideas: []types.Idea{{ID: "1", Title: "Bowling"}},
		gate:  make(chan struct{}),
	}
	coord := NewCoordinator(fs, gen, testLogger(t))
	ctx := context.Background()

	const viewers = 5
	results := make(chan []types.Idea, viewers)
	errs := make(chan error, viewers)
	var started sync.WaitGroup
	for i := 0; i < viewers; i++ {
		started.Add(1)
		go func() {
			stream, err := coord.Ideas(ctx, "env1", "alice@example.com", "B", Options{})
			started.Done()
			if err != nil {
				errs <- err
				return
			}
			list, err := stream.Drain(ctx)
			if err != nil {
				errs <- err
				return
			}
			results <- list
		}()
	}
	started.Wait()
	close(gen.gate)

	for i := 0; i < viewers; i++ {
		select {
		case err := <-errs:
			t.Fatalf("viewer error: %v", err)
		case list := <-results:
			if len(list) != 1 || list[0].Title != "Bowling" {
				t.Fatalf("viewer got %+v", list)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("viewer %d timed out", i)
		}
	}
	if gen.callCount() != 1 {
		t.Fatalf("racing viewers should share one generation, calls=%d", gen.callCount())
	}
}

func TestForceJoinsInFlightGeneration(t *testing.T) {
	fs := newFakePrefsStore()
	gen := &fakeGen{
		ideas: []types.Idea{{ID: "1", Title: "Climbing"}},
		gate:  make(chan struct{}),
	}
	coord := NewCoordinator(fs, gen, testLogger(t))
	ctx := context.Background()

	// Background prefetch-style call holds the flight open.
	first, err := coord.Ideas(ctx, "env1", "alice@example.com", "C", Options{})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	// Explicit regenerate while the flight runs: joins, no second call.
	second, err := coord.Ideas(ctx, "env1", "alice@example.com", "C", Options{Force: true})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	close(gen.gate)

	a, err := first.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	b, err := second.Drain(ctx)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(a) != 1 || len(b) != 1 || a[0].ID != b[0].ID {
		t.Fatalf("viewers diverged: %+v vs %+v", a, b)
	}
	if gen.callCount() != 1 {
		t.Fatalf("force during flight should join it, calls=%d", gen.callCount())
	}
}

func TestForceBypassesCache(t *testing.T) {
	fs := newFakePrefsStore()
	prefs := &types.UserPreferences{}
	prefs.PutIdeas("D", []types.Idea{{ID: "old", Title: "Stale"}})
	fs.prefs["env1|alice@example.com"] = prefs

	gen := &fakeGen{ideas: []types.Idea{{ID: "new", Title: "Fresh"}}}
	coord := NewCoordinator(fs, gen, testLogger(t))

	list, err := coord.WaitForIdeas(context.Background(), "env1", "alice@example.com", "D", Options{Force: true})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if len(list) != 1 || list[0].ID != "new" {
		t.Fatalf("force should regenerate, got %+v", list)
	}
	if gen.callCount() != 1 {
		t.Fatalf("expected one generation, got %d", gen.callCount())
	}
}

func TestGeneratorFailureYieldsZeroIdeas(t *testing.T) {
	fs := newFakePrefsStore()
	gen := &fakeGen{fail: true}
	coord := NewCoordinator(fs, gen, testLogger(t))
	ctx := context.Background()

	list, err := coord.WaitForIdeas(ctx, "env1", "alice@example.com", "E", Options{})
	if err != nil {
		t.Fatalf("failure must degrade silently, got %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected zero ideas, got %+v", list)
	}
	if _, ok := coord.Cached(ctx, "env1", "alice@example.com", "E"); ok {
		t.Fatalf("failed generation must not cache")
	}
	if fs.saves != 0 {
		t.Fatalf("failed generation must not write preferences, saves=%d", fs.saves)
	}
}

func TestInvalidInputs(t *testing.T) {
	coord := NewCoordinator(newFakePrefsStore(), &fakeGen{}, testLogger(t))
	if _, err := coord.Ideas(context.Background(), "", "a@x.com", "A", Options{}); err == nil {
		t.Fatalf("missing env should error")
	}
	if _, err := coord.Ideas(context.Background(), "env1", "a@x.com", "1", Options{}); err == nil {
		t.Fatalf("invalid letter should error")
	}
}
