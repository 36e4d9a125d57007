package assign

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// RotationStore is the slice of the round store rotation changes need.
type RotationStore interface {
	GetSettings(ctx context.Context, envID string) (*types.Settings, error)
	SaveSettings(ctx context.Context, envID string, settings *types.Settings) error
	GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error)
	SaveRounds(ctx context.Context, envID string, rounds []types.LetterRound) error
}

// Rotation applies group-level assignment changes: a new member order or a
// mode switch.
type Rotation struct {
	store RotationStore
	log   *logger.Logger
}

func NewRotation(store RotationStore, log *logger.Logger) *Rotation {
	return &Rotation{store: store, log: log.With("service", "Rotation")}
}

// UpdateMemberOrder stores the new rotation order and reassigns proposers
// for rounds still in notStarted. Returns how many rounds changed proposer.
func (r *Rotation) UpdateMemberOrder(ctx context.Context, envID string, order []string) (int, error) {
	if envID == "" {
		return 0, errors.New("env id required")
	}
	if len(order) == 0 {
		return 0, errors.New("member order required")
	}
	normalized := make([]string, 0, len(order))
	for _, m := range order {
		normalized = append(normalized, types.NormalizeMember(m))
	}

	settings, err := r.store.GetSettings(ctx, envID)
	if err != nil {
		return 0, err
	}
	if settings == nil {
		return 0, errors.New("environment not initialized")
	}
	settings.MemberOrder = normalized
	if err := r.store.SaveSettings(ctx, envID, settings); err != nil {
		return 0, err
	}

	rounds, err := r.store.GetRounds(ctx, envID)
	if err != nil {
		return 0, err
	}
	rounds, changed := ReassignUpcoming(rounds, normalized, time.Now())
	if changed > 0 {
		if err := r.store.SaveRounds(ctx, envID, rounds); err != nil {
			return 0, err
		}
	}
	r.log.Info("Member order updated", "env_id", envID, "reassigned", changed)
	return changed, nil
}

// SetMode switches between sequential and random assignment.
func (r *Rotation) SetMode(ctx context.Context, envID string, mode types.Mode) error {
	if mode != types.ModeSequential && mode != types.ModeRandom {
		return errors.New("invalid mode")
	}
	settings, err := r.store.GetSettings(ctx, envID)
	if err != nil {
		return err
	}
	if settings == nil {
		return errors.New("environment not initialized")
	}
	settings.Mode = mode
	return r.store.SaveSettings(ctx, envID, settings)
}
