// Package lifecycle validates and applies round status transitions:
// notStarted -> draft -> planned -> done, plus the reset transition back to
// notStarted from any state. Refused operations return a nil round, not an
// error; errors are reserved for programmer misuse and store failures.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// RoundStore is the slice of the round store the state machine needs.
type RoundStore interface {
	GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error)
	SaveRound(ctx context.Context, envID string, round types.LetterRound) error
	GetSettings(ctx context.Context, envID string) (*types.Settings, error)
}

type Service struct {
	store RoundStore
	log   *logger.Logger
	now   func() time.Time
}

func NewService(store RoundStore, log *logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With("service", "RoundLifecycle"),
		now:   time.Now,
	}
}

// SetProposal updates the proposal text. A non-empty proposal moves a
// notStarted round to draft; clearing it moves a draft back to notStarted.
// Only the current proposer may edit, and a done round is immutable.
func (s *Service) SetProposal(ctx context.Context, envID, letter, actor, text string) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) {
			return false
		}
		if round.Status == types.StatusDone {
			return false
		}
		round.Proposal = text
		switch {
		case text != "" && round.Status == types.StatusNotStarted:
			round.Status = types.StatusDraft
		case text == "" && round.Status == types.StatusDraft:
			round.Status = types.StatusNotStarted
		}
		return true
	})
}

// SetDate sets or clears the target date. Proposer only; no status change.
func (s *Service) SetDate(ctx context.Context, envID, letter, actor string, date *time.Time) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) || round.Status == types.StatusDone {
			return false
		}
		round.Date = date
		return true
	})
}

// SetNotes updates the free-text notes. Proposer only.
func (s *Service) SetNotes(ctx context.Context, envID, letter, actor, notes string) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) {
			return false
		}
		round.Notes = notes
		return true
	})
}

// SetRetrospective records the post-completion retrospective. Proposer only,
// and only once the round is done.
func (s *Service) SetRetrospective(ctx context.Context, envID, letter, actor, text string) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) || round.Status != types.StatusDone {
			return false
		}
		round.Retrospective = text
		return true
	})
}

// AddImage appends an image reference. Proposer only.
func (s *Service) AddImage(ctx context.Context, envID, letter, actor, ref string) (*types.LetterRound, error) {
	if ref == "" {
		return nil, errors.New("image ref required")
	}
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) {
			return false
		}
		round.ImageRefs = append(round.ImageRefs, ref)
		return true
	})
}

// FinalizePlanning moves a round with a proposal and a date into planned.
// Finalizing an already-planned round is a no-op that returns the round
// unchanged rather than a refusal.
func (s *Service) FinalizePlanning(ctx context.Context, envID, letter, actor string) (*types.LetterRound, error) {
	round, err := s.findRound(ctx, envID, letter)
	if err != nil || round == nil {
		return nil, err
	}
	if round.Status == types.StatusPlanned {
		return round, nil
	}
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) {
			return false
		}
		if round.Status != types.StatusNotStarted && round.Status != types.StatusDraft {
			return false
		}
		if round.Proposal == "" || round.Date == nil {
			return false
		}
		round.Status = types.StatusPlanned
		return true
	})
}

// MarkComplete moves a planned round to done. Proposer only.
func (s *Service) MarkComplete(ctx context.Context, envID, letter, actor string) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if !isProposer(round, actor) || round.Status != types.StatusPlanned {
			return false
		}
		round.Status = types.StatusDone
		return true
	})
}

// ResetRound clears all round fields and returns the round to notStarted.
// The proposer may undo their own round, but once a done round has been
// rated by other participants the undo requires the administrator.
func (s *Service) ResetRound(ctx context.Context, envID, letter, actor string) (*types.LetterRound, error) {
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, settings *types.Settings) bool {
		if !canReset(round, settings, actor) {
			return false
		}
		proposer := round.Proposer
		createdAt := round.CreatedAt
		*round = types.LetterRound{
			Letter:    round.Letter,
			Proposer:  proposer,
			Status:    types.StatusNotStarted,
			CreatedAt: createdAt,
		}
		return true
	})
}

// SubmitRating records a participant's 1-5 rating for a done round and
// recomputes the aggregate from the full ratings map. Resubmitting
// overwrites the participant's prior rating.
func (s *Service) SubmitRating(ctx context.Context, envID, letter, actor string, rating int) (*types.LetterRound, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.New("rating must be between 1 and 5")
	}
	return s.mutate(ctx, envID, letter, func(round *types.LetterRound, _ *types.Settings) bool {
		if round.Status != types.StatusDone {
			return false
		}
		member := types.NormalizeMember(actor)
		if member == "" {
			return false
		}
		if round.Ratings == nil {
			round.Ratings = make(map[string]int)
		}
		round.Ratings[member] = rating
		round.RecomputeRating()
		return true
	})
}

func isProposer(round *types.LetterRound, actor string) bool {
	return types.NormalizeMember(actor) != "" &&
		types.NormalizeMember(actor) == types.NormalizeMember(round.Proposer)
}

func canReset(round *types.LetterRound, settings *types.Settings, actor string) bool {
	member := types.NormalizeMember(actor)
	if member == "" {
		return false
	}
	admin := ""
	if settings != nil {
		admin = types.NormalizeMember(settings.AdminEmail)
	}
	if round.Status != types.StatusDone {
		return isProposer(round, actor) || member == admin
	}
	// A done round confirmed by other participants' ratings needs elevated
	// privilege to undo.
	confirmedByOthers := false
	for rater := range round.Ratings {
		if rater != types.NormalizeMember(round.Proposer) {
			confirmedByOthers = true
			break
		}
	}
	if confirmedByOthers {
		return member == admin
	}
	return isProposer(round, actor) || member == admin
}

func (s *Service) findRound(ctx context.Context, envID, letter string) (*types.LetterRound, error) {
	if envID == "" {
		return nil, errors.New("env id required")
	}
	if !types.IsLetter(letter) {
		return nil, errors.New("invalid letter")
	}
	rounds, err := s.store.GetRounds(ctx, envID)
	if err != nil {
		return nil, err
	}
	for i := range rounds {
		if rounds[i].Letter == letter {
			return &rounds[i], nil
		}
	}
	return nil, nil
}

// mutate loads the round, applies fn, and persists the result when fn
// accepts the transition. A refused transition returns (nil, nil).
func (s *Service) mutate(ctx context.Context, envID, letter string, fn func(*types.LetterRound, *types.Settings) bool) (*types.LetterRound, error) {
	round, err := s.findRound(ctx, envID, letter)
	if err != nil || round == nil {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx, envID)
	if err != nil {
		return nil, err
	}
	if !fn(round, settings) {
		return nil, nil
	}
	round.UpdatedAt = s.now()
	if err := s.store.SaveRound(ctx, envID, *round); err != nil {
		return nil, err
	}
	return round, nil
}
