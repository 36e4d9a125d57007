// Package ideas caches generated suggestions per (environment, proposer,
// letter) and coordinates prefetching so the expensive generator is called at
// most once per key at a time. Concurrent viewers of the same key, including
// an explicit "generate" racing a background prefetch, share one in-flight
// generation and observe the same final cached result.
package ideas

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/suggest"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// RoundStore is the slice of the round store the coordinator needs.
type RoundStore interface {
	GetPreferences(ctx context.Context, envID, member string) (*types.UserPreferences, error)
	SavePreferences(ctx context.Context, envID, member string, prefs *types.UserPreferences) error
	GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error)
}

type Coordinator struct {
	store RoundStore
	gen   suggest.Generator
	log   *logger.Logger

	mu      sync.Mutex
	flights map[string]*flight
}

func NewCoordinator(store RoundStore, gen suggest.Generator, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:   store,
		gen:     gen,
		log:     log.With("service", "IdeaCoordinator"),
		flights: make(map[string]*flight),
	}
}

// Options tunes a single Ideas call.
type Options struct {
	// Force skips the cache check: an explicit regenerate. A generation
	// already in flight for the key is still joined, never duplicated.
	Force bool
	// LocalityHint and ProposalText are passed through to the generator.
	LocalityHint string
	ProposalText string
	// Count caps the number of ideas; 0 means the generator default.
	Count int
}

// Cached returns the proposer's cached ideas for letter without ever
// triggering generation.
func (c *Coordinator) Cached(ctx context.Context, envID, proposer, letter string) ([]types.Idea, bool) {
	prefs, err := c.store.GetPreferences(ctx, envID, proposer)
	if err != nil {
		return nil, false
	}
	cached := prefs.CachedIdeas(letter)
	return cached, cached != nil
}

// Ideas returns a stream of suggestions for (envID, proposer, letter).
//
// Cache hit: the stream is already complete, pre-filled with the cached
// list; no generation call occurs. Cache miss (or Force): the caller joins
// the single in-flight generation for the key, receiving items already
// delivered plus everything still to come. On completion the full list is
// written back to the proposer's preferences cache; generator failure
// degrades to an empty, error-free stream.
func (c *Coordinator) Ideas(ctx context.Context, envID, proposer, letter string, opts Options) (*suggest.Stream, error) {
	if envID == "" || !types.IsLetter(letter) {
		return nil, errors.New("env id and letter required")
	}
	proposer = types.NormalizeMember(proposer)

	if !opts.Force {
		if cached, ok := c.Cached(ctx, envID, proposer, letter); ok {
			return completedStream(cached), nil
		}
	}

	key := envID + "|" + proposer + "|" + letter
	c.mu.Lock()
	f := c.flights[key]
	created := f == nil
	if created {
		f = newFlight()
		c.flights[key] = f
	}
	c.mu.Unlock()

	if created {
		// Generation is detached from the viewer's context: abandoning the
		// view stops delivery but the result is still cached.
		go c.run(context.WithoutCancel(ctx), key, envID, proposer, letter, opts, f)
	}
	return f.subscribe(ctx), nil
}

// WaitForIdeas is the "generate and wait" form: it drains the stream and
// returns the full list.
func (c *Coordinator) WaitForIdeas(ctx context.Context, envID, proposer, letter string, opts Options) ([]types.Idea, error) {
	stream, err := c.Ideas(ctx, envID, proposer, letter, opts)
	if err != nil {
		return nil, err
	}
	return stream.Drain(ctx)
}

// Prefetch warms the cache for several letters in the background, a couple
// of generations at a time. Cache hits are free; failures are already
// swallowed by the generation path.
func (c *Coordinator) Prefetch(ctx context.Context, envID, proposer string, letters []string) {
	go func() {
		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		g.SetLimit(2)
		for _, letter := range letters {
			letter := letter
			g.Go(func() error {
				_, err := c.WaitForIdeas(gctx, envID, proposer, letter, Options{})
				return err
			})
		}
		if err := g.Wait(); err != nil {
			c.log.Warn("Idea prefetch incomplete", "env_id", envID, "error", err)
		}
	}()
}

func (c *Coordinator) run(ctx context.Context, key, envID, proposer, letter string, opts Options, f *flight) {
	defer func() {
		c.mu.Lock()
		delete(c.flights, key)
		c.mu.Unlock()
	}()

	prefs, err := c.store.GetPreferences(ctx, envID, proposer)
	if err != nil {
		c.log.Warn("Preferences load failed before generation", "env_id", envID, "error", err)
		prefs = &types.UserPreferences{}
	}
	profile, err := c.store.GetAIProfile(ctx, envID)
	if err != nil {
		profile = nil
	}

	stream, err := c.gen.Generate(ctx, suggest.Request{
		EnvID:        envID,
		Letter:       letter,
		Proposer:     proposer,
		Preferences:  prefs,
		Profile:      profile,
		LocalityHint: opts.LocalityHint,
		ProposalText: opts.ProposalText,
		Count:        opts.Count,
	})
	if err != nil {
		// Zero ideas produced, not an error the viewer sees.
		c.log.Warn("Idea generation failed to start", "env_id", envID, "letter", letter, "error", err)
		f.finish()
		return
	}

	for idea := range stream.C {
		f.deliver(idea)
	}
	if err := stream.Err(); err != nil {
		c.log.Warn("Idea generation ended with error", "env_id", envID, "letter", letter, "error", err)
		f.finish()
		return
	}

	result := f.finish()
	prefs.PutIdeas(letter, result)
	if err := c.store.SavePreferences(ctx, envID, proposer, prefs); err != nil {
		c.log.Warn("Idea cache write failed", "env_id", envID, "letter", letter, "error", err)
	}
}

func completedStream(ideas []types.Idea) *suggest.Stream {
	s := suggest.NewStream(len(ideas))
	for _, idea := range ideas {
		s.Emit(context.Background(), idea)
	}
	s.Finish(nil)
	return s
}
