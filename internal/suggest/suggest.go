// Package suggest wraps the external suggestion generator: an expensive,
// latency-heavy service that produces activity ideas for a letter as a lazy,
// finite, non-restartable stream.
package suggest

import (
	"context"

	"github.com/yungbote/letterloop-backend/internal/types"
)

// Request carries everything the generator may use to bias its suggestions.
// All fields except EnvID and Letter are optional.
type Request struct {
	EnvID        string
	Letter       string
	Proposer     string
	Preferences  *types.UserPreferences
	Profile      *types.AIProfile
	LocalityHint string
	// ProposalText is the proposer's in-progress draft, if any, so ideas
	// can riff on it instead of ignoring it.
	ProposalText string
	// Count caps the number of ideas; 0 means the generator's default.
	Count int
}

// Generator produces idea streams. A returned error means generation could
// not start; the coordinator treats that as zero ideas produced.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Stream, error)
}
