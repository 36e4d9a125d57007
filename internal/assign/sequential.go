// Package assign decides which participant proposes which letter, in fixed
// rotation (sequential) or fairness-gated random draw modes.
package assign

import (
	"time"

	"github.com/yungbote/letterloop-backend/internal/types"
)

// DefaultOrder builds the rotation order used when none was supplied
// explicitly: the starting member first, then the remaining members in their
// listed order.
func DefaultOrder(members []string, startingMember string) []string {
	starting := types.NormalizeMember(startingMember)
	order := make([]string, 0, len(members))
	if starting != "" {
		order = append(order, starting)
	}
	for _, m := range members {
		if types.NormalizeMember(m) == starting {
			continue
		}
		order = append(order, types.NormalizeMember(m))
	}
	return order
}

// ProposerFor returns the proposer for the given letter index under a fixed
// rotation. Pure: re-running with the same inputs yields the same assignment.
func ProposerFor(letterIndex int, order []string) string {
	if letterIndex < 0 || len(order) == 0 {
		return ""
	}
	return order[letterIndex%len(order)]
}

// GenerateRounds creates the full set of 26 rounds with sequential proposer
// assignment. Every round starts in notStarted with no proposal or date.
func GenerateRounds(members []string, startingMember string, order []string, now time.Time) []types.LetterRound {
	if len(order) == 0 {
		order = DefaultOrder(members, startingMember)
	}
	rounds := make([]types.LetterRound, 0, types.AlphabetSize)
	for i, letter := range types.Letters() {
		rounds = append(rounds, types.LetterRound{
			Letter:    letter,
			Proposer:  ProposerFor(i, order),
			Status:    types.StatusNotStarted,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return rounds
}

// ReassignUpcoming recomputes proposer assignment against a new rotation
// order, touching only rounds still in notStarted. In-flight and completed
// rounds keep their proposer: assignment changes never rewrite history.
// Returns the updated slice and the number of rounds whose proposer changed.
func ReassignUpcoming(rounds []types.LetterRound, order []string, now time.Time) ([]types.LetterRound, int) {
	if len(order) == 0 {
		return rounds, 0
	}
	changed := 0
	for i := range rounds {
		if rounds[i].Status != types.StatusNotStarted {
			continue
		}
		proposer := ProposerFor(types.LetterIndex(rounds[i].Letter), order)
		if proposer == "" || proposer == rounds[i].Proposer {
			continue
		}
		rounds[i].Proposer = proposer
		rounds[i].UpdatedAt = now
		changed++
	}
	return rounds, changed
}
