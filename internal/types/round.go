package types

import (
	"sort"
	"time"
)

// LetterRound is one round of the loop: the unit of work for a single letter
// within an environment. All 26 are created together when the environment is
// initialized and the (letter -> round) identity persists for its lifetime.
type LetterRound struct {
	Letter        string         `json:"letter"`
	Proposer      string         `json:"proposer"`
	Proposal      string         `json:"proposal,omitempty"`
	Date          *time.Time     `json:"date,omitempty"`
	Status        Status         `json:"status"`
	Notes         string         `json:"notes,omitempty"`
	Retrospective string         `json:"retrospective,omitempty"`
	ImageRefs     []string       `json:"image_refs,omitempty"`
	Ratings       map[string]int `json:"ratings,omitempty"`
	Rating        float64        `json:"rating,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// RecomputeRating recomputes the aggregate rating as the arithmetic mean of
// all individual ratings. Full recompute from the map, so the result does not
// depend on submission order and resubmitting the same rating is idempotent.
func (r *LetterRound) RecomputeRating() {
	if len(r.Ratings) == 0 {
		r.Rating = 0
		return
	}
	sum := 0
	for _, v := range r.Ratings {
		sum += v
	}
	r.Rating = float64(sum) / float64(len(r.Ratings))
}

// SortRounds orders rounds by letter in place.
func SortRounds(rounds []LetterRound) {
	sort.Slice(rounds, func(i, j int) bool {
		return rounds[i].Letter < rounds[j].Letter
	})
}
