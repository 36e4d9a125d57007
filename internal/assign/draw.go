package assign

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// RoundStore is the slice of the round store the draw engine needs.
type RoundStore interface {
	GetSettings(ctx context.Context, envID string) (*types.Settings, error)
	SaveSettings(ctx context.Context, envID string, settings *types.Settings) error
	GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error)
	SaveRound(ctx context.Context, envID string, round types.LetterRound) error
}

// Drawer reveals letters one at a time in random mode.
type Drawer struct {
	store RoundStore
	log   *logger.Logger

	// intn is swapped in tests for a deterministic pick.
	intn func(n int) int
}

func NewDrawer(store RoundStore, log *logger.Logger) *Drawer {
	return &Drawer{
		store: store,
		log:   log.With("service", "Drawer"),
		intn:  rand.Intn,
	}
}

// CanDraw reports whether another letter may be drawn: letters must remain,
// and the most recently drawn round must have reached planned or done. The
// very first draw is always permitted. Pure; used by CanDrawNext and by the
// draw itself.
func CanDraw(settings *types.Settings, rounds []types.LetterRound) bool {
	if settings == nil {
		return false
	}
	if len(settings.DrawnOrder) >= types.AlphabetSize {
		return false
	}
	last := settings.LastDrawnLetter()
	if last == "" {
		return true
	}
	for _, r := range rounds {
		if r.Letter != last {
			continue
		}
		return r.Status == types.StatusPlanned || r.Status == types.StatusDone
	}
	// Last drawn round missing entirely: treat as not yet planned.
	return false
}

// CanDrawNext loads the environment state and evaluates the fairness gate.
func (d *Drawer) CanDrawNext(ctx context.Context, envID string) (bool, error) {
	if envID == "" {
		return false, errors.New("env id required")
	}
	settings, err := d.store.GetSettings(ctx, envID)
	if err != nil {
		return false, err
	}
	rounds, err := d.store.GetRounds(ctx, envID)
	if err != nil {
		return false, err
	}
	return CanDraw(settings, rounds), nil
}

// DrawNextLetter draws a uniformly random undrawn letter, binds its proposer
// by draw position, resets the round, and appends the letter to the draw
// history. A refused draw (exhausted alphabet or fairness gate) returns
// (nil, nil); callers check for the nil sentinel.
//
// The round write is sequenced before the draw-history write; the settings
// write is the commit point. A failure between the two leaves a reset round
// that the next draw attempt will simply re-reset.
func (d *Drawer) DrawNextLetter(ctx context.Context, envID string) (*types.LetterRound, error) {
	if envID == "" {
		return nil, errors.New("env id required")
	}
	settings, err := d.store.GetSettings(ctx, envID)
	if err != nil {
		return nil, err
	}
	rounds, err := d.store.GetRounds(ctx, envID)
	if err != nil {
		return nil, err
	}
	if !CanDraw(settings, rounds) {
		return nil, nil
	}

	remaining := settings.RemainingLetters()
	letter := remaining[d.intn(len(remaining))]

	order := settings.RotationOrder()
	if len(order) == 0 {
		return nil, errors.New("no rotation order configured")
	}
	proposer := order[len(settings.DrawnOrder)%len(order)]

	now := time.Now()
	round := types.LetterRound{
		Letter:    letter,
		Proposer:  proposer,
		Status:    types.StatusNotStarted,
		CreatedAt: roundCreatedAt(rounds, letter, now),
		UpdatedAt: now,
	}
	if err := d.store.SaveRound(ctx, envID, round); err != nil {
		return nil, err
	}

	settings.DrawnOrder = append(settings.DrawnOrder, letter)
	if err := d.store.SaveSettings(ctx, envID, settings); err != nil {
		return nil, err
	}

	d.log.Info("Letter drawn",
		"env_id", envID,
		"letter", letter,
		"proposer", proposer,
		"drawn_count", len(settings.DrawnOrder),
	)
	return &round, nil
}

func roundCreatedAt(rounds []types.LetterRound, letter string, fallback time.Time) time.Time {
	for _, r := range rounds {
		if r.Letter == letter && !r.CreatedAt.IsZero() {
			return r.CreatedAt
		}
	}
	return fallback
}
