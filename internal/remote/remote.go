// Package remote is the durable document tier: per-environment sub-resources
// for rounds, settings, preferences, AI profile and saved ideas. It may fail
// or be slow; the store package decides how failures degrade.
package remote

import (
	"context"

	"github.com/yungbote/letterloop-backend/internal/types"
)

// Store is the boundary contract for the remote document store. Absent
// documents are returned as nil (or an empty slice) with a nil error; errors
// mean the remote tier itself was unreachable or misbehaved.
type Store interface {
	GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error)
	SetRound(ctx context.Context, envID string, round types.LetterRound) error
	// SetRoundsBatch writes all rounds as one atomic multi-document batch.
	SetRoundsBatch(ctx context.Context, envID string, rounds []types.LetterRound) error

	GetSettings(ctx context.Context, envID string) (*types.Settings, error)
	SetSettings(ctx context.Context, envID string, settings *types.Settings) error

	GetPreferences(ctx context.Context, envID, memberKey string) (*types.UserPreferences, error)
	SetPreferences(ctx context.Context, envID, memberKey string, prefs *types.UserPreferences) error

	GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error)
	SetAIProfile(ctx context.Context, envID string, profile *types.AIProfile) error

	ListSavedIdeas(ctx context.Context, envID string) ([]types.SavedIdea, error)
	SetSavedIdea(ctx context.Context, envID string, idea types.SavedIdea) error

	// EnvironmentsByMember lists environment ids whose member list contains
	// the given email. Only the invitation/membership flow uses this.
	EnvironmentsByMember(ctx context.Context, email string) ([]string, error)
}
