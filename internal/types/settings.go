package types

import (
	"strings"
	"time"
)

// Mode selects how letters are bound to proposers.
type Mode string

const (
	// ModeSequential pre-assigns every letter by rotation index.
	ModeSequential Mode = "sequential"
	// ModeRandom reveals letters one at a time via fairness-gated draws.
	ModeRandom Mode = "random"
)

// Settings is the shared workspace record for one group of participants.
type Settings struct {
	EnvID       string            `json:"env_id"`
	Name        string            `json:"name,omitempty"`
	Members     []string          `json:"members"`
	MemberNames map[string]string `json:"member_names,omitempty"`
	// MemberOrder is the proposer rotation order. It may differ from the
	// arbitrary order of Members.
	MemberOrder []string `json:"member_order,omitempty"`
	AdminEmail  string   `json:"admin_email,omitempty"`
	Mode        Mode     `json:"mode"`
	// DrawnOrder lists the letters already drawn in random mode, in draw
	// order. Each letter appears at most once.
	DrawnOrder []string  `json:"drawn_order,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizeMember canonicalizes a member identifier (email) for map keys and
// comparisons.
func NormalizeMember(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RotationOrder returns the effective proposer rotation: the explicit
// MemberOrder when set, otherwise the member list.
func (s *Settings) RotationOrder() []string {
	if len(s.MemberOrder) > 0 {
		return s.MemberOrder
	}
	return s.Members
}

// RemainingLetters returns the alphabet minus DrawnOrder.
func (s *Settings) RemainingLetters() []string {
	drawn := make(map[string]bool, len(s.DrawnOrder))
	for _, l := range s.DrawnOrder {
		drawn[l] = true
	}
	out := make([]string, 0, AlphabetSize-len(drawn))
	for _, l := range Letters() {
		if !drawn[l] {
			out = append(out, l)
		}
	}
	return out
}

// LastDrawnLetter returns the most recently drawn letter, or "" when nothing
// has been drawn yet.
func (s *Settings) LastDrawnLetter() string {
	if len(s.DrawnOrder) == 0 {
		return ""
	}
	return s.DrawnOrder[len(s.DrawnOrder)-1]
}
