package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yungbote/letterloop-backend/internal/types"
)

// Memory is an in-process Store used in tests. Documents are stored as JSON
// so reads see the same shapes the postgres store would return.
type Memory struct {
	mu          sync.RWMutex
	rounds      map[string]map[string][]byte // envID -> letter -> doc
	settings    map[string][]byte
	preferences map[string]map[string][]byte // envID -> memberKey -> doc
	profiles    map[string][]byte
	savedIdeas  map[string]map[string][]byte // envID -> ideaID -> doc
	savedOrder  map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		rounds:      make(map[string]map[string][]byte),
		settings:    make(map[string][]byte),
		preferences: make(map[string]map[string][]byte),
		profiles:    make(map[string][]byte),
		savedIdeas:  make(map[string]map[string][]byte),
		savedOrder:  make(map[string][]string),
	}
}

func (m *Memory) GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byLetter := m.rounds[envID]
	rounds := make([]types.LetterRound, 0, len(byLetter))
	for _, raw := range byLetter {
		var r types.LetterRound
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	types.SortRounds(rounds)
	return rounds, nil
}

func (m *Memory) SetRound(ctx context.Context, envID string, round types.LetterRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRoundLocked(envID, round)
}

func (m *Memory) SetRoundsBatch(ctx context.Context, envID string, rounds []types.LetterRound) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rounds {
		if err := m.putRoundLocked(envID, r); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) putRoundLocked(envID string, round types.LetterRound) error {
	if !types.IsLetter(round.Letter) {
		return fmt.Errorf("invalid round letter %q", round.Letter)
	}
	raw, err := json.Marshal(round)
	if err != nil {
		return err
	}
	if m.rounds[envID] == nil {
		m.rounds[envID] = make(map[string][]byte)
	}
	m.rounds[envID][round.Letter] = raw
	return nil
}

func (m *Memory) GetSettings(ctx context.Context, envID string) (*types.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.settings[envID]
	if !ok {
		return nil, nil
	}
	var settings types.Settings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (m *Memory) SetSettings(ctx context.Context, envID string, settings *types.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[envID] = raw
	return nil
}

func (m *Memory) GetPreferences(ctx context.Context, envID, memberKey string) (*types.UserPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.preferences[envID][memberKey]
	if !ok {
		return nil, nil
	}
	var prefs types.UserPreferences
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (m *Memory) SetPreferences(ctx context.Context, envID, memberKey string, prefs *types.UserPreferences) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.preferences[envID] == nil {
		m.preferences[envID] = make(map[string][]byte)
	}
	m.preferences[envID][memberKey] = raw
	return nil
}

func (m *Memory) GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.profiles[envID]
	if !ok {
		return nil, nil
	}
	var profile types.AIProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (m *Memory) SetAIProfile(ctx context.Context, envID string, profile *types.AIProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[envID] = raw
	return nil
}

func (m *Memory) ListSavedIdeas(ctx context.Context, envID string) ([]types.SavedIdea, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ideas := make([]types.SavedIdea, 0, len(m.savedOrder[envID]))
	for _, id := range m.savedOrder[envID] {
		raw, ok := m.savedIdeas[envID][id]
		if !ok {
			continue
		}
		var idea types.SavedIdea
		if err := json.Unmarshal(raw, &idea); err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, nil
}

func (m *Memory) SetSavedIdea(ctx context.Context, envID string, idea types.SavedIdea) error {
	if idea.ID == "" {
		return fmt.Errorf("saved idea id required")
	}
	raw, err := json.Marshal(idea)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savedIdeas[envID] == nil {
		m.savedIdeas[envID] = make(map[string][]byte)
	}
	if _, exists := m.savedIdeas[envID][idea.ID]; !exists {
		m.savedOrder[envID] = append(m.savedOrder[envID], idea.ID)
	}
	m.savedIdeas[envID][idea.ID] = raw
	return nil
}

func (m *Memory) EnvironmentsByMember(ctx context.Context, email string) ([]string, error) {
	member := types.NormalizeMember(email)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var envIDs []string
	for envID, raw := range m.settings {
		var settings types.Settings
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, err
		}
		for _, e := range settings.Members {
			if types.NormalizeMember(e) == member {
				envIDs = append(envIDs, envID)
				break
			}
		}
	}
	return envIDs, nil
}
