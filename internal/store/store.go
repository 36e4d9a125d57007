// Package store is the single point of truth reconciling the local cache and
// the remote document store for rounds, settings, preferences, the AI profile
// and saved ideas. Connectivity failures are hidden from callers: reads fall
// back to the cache, writes stand in the cache and sync later.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/yungbote/letterloop-backend/internal/assign"
	"github.com/yungbote/letterloop-backend/internal/cache"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/remote"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// ErrEnvRequired is returned for programmer misuse: every store operation is
// environment-scoped.
var ErrEnvRequired = errors.New("env id required")

// Store owns the cache exclusively; every other component goes through it.
type Store struct {
	cache  cache.Adapter
	remote remote.Store
	log    *logger.Logger
	now    func() time.Time
}

func New(cacheAdapter cache.Adapter, remoteStore remote.Store, log *logger.Logger) *Store {
	return &Store{
		cache:  cacheAdapter,
		remote: remoteStore,
		log:    log.With("service", "RoundStore"),
		now:    time.Now,
	}
}

func roundsKey(envID string) string   { return "rounds:" + envID }
func settingsKey(envID string) string { return "settings:" + envID }
func prefsKey(envID, memberKey string) string {
	return "prefs:" + envID + ":" + memberKey
}
func aiProfileKey(envID string) string  { return "aiprofile:" + envID }
func savedIdeasKey(envID string) string { return "savedideas:" + envID }

// GetRounds attempts a remote fetch; on success the result is normalized
// (legacy statuses migrated forward), cached, and returned sorted by letter.
// On remote failure the last cached value is returned, an empty slice when
// nothing was ever cached. Connectivity failures are logged, never returned.
func (s *Store) GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	rounds, err := s.remote.GetRounds(ctx, envID)
	if err != nil {
		s.log.Warn("Remote rounds fetch failed, serving cache", "env_id", envID, "error", err)
		return s.cachedRounds(ctx, envID), nil
	}
	for i := range rounds {
		rounds[i].Status = types.NormalizeStatus(string(rounds[i].Status))
	}
	types.SortRounds(rounds)
	s.writeCache(ctx, roundsKey(envID), rounds)
	return rounds, nil
}

// SaveRounds writes the rounds to the cache synchronously, making them
// authoritative for subsequent local reads, then attempts an all-or-nothing
// batch write to the remote store. A failed batch leaves the cache write
// standing; the next successful SaveRounds reconciles the remote tier.
func (s *Store) SaveRounds(ctx context.Context, envID string, rounds []types.LetterRound) error {
	if envID == "" {
		return ErrEnvRequired
	}
	types.SortRounds(rounds)
	if err := s.writeCache(ctx, roundsKey(envID), rounds); err != nil {
		return err
	}
	if err := s.remote.SetRoundsBatch(ctx, envID, rounds); err != nil {
		s.log.Warn("Remote rounds batch write failed, cache write stands", "env_id", envID, "error", err)
	}
	return nil
}

// SaveRound updates a single round, merging it into the cached full set
// before the remote single-document write. Used by the state machine and the
// draw engine so one edited letter does not rewrite its 25 siblings remotely.
func (s *Store) SaveRound(ctx context.Context, envID string, round types.LetterRound) error {
	if envID == "" {
		return ErrEnvRequired
	}
	rounds, err := s.GetRounds(ctx, envID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range rounds {
		if rounds[i].Letter == round.Letter {
			rounds[i] = round
			replaced = true
			break
		}
	}
	if !replaced {
		rounds = append(rounds, round)
		types.SortRounds(rounds)
	}
	if err := s.writeCache(ctx, roundsKey(envID), rounds); err != nil {
		return err
	}
	if err := s.remote.SetRound(ctx, envID, round); err != nil {
		s.log.Warn("Remote round write failed, cache write stands",
			"env_id", envID, "letter", round.Letter, "error", err)
	}
	return nil
}

// GetSettings reads through to the remote settings document, falling back to
// the cached copy. Returns nil when the environment has never been set up.
func (s *Store) GetSettings(ctx context.Context, envID string) (*types.Settings, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	settings, err := s.remote.GetSettings(ctx, envID)
	if err != nil {
		s.log.Warn("Remote settings fetch failed, serving cache", "env_id", envID, "error", err)
		var cached types.Settings
		if s.readCache(ctx, settingsKey(envID), &cached) {
			return &cached, nil
		}
		return nil, nil
	}
	if settings != nil {
		s.writeCache(ctx, settingsKey(envID), settings)
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, envID string, settings *types.Settings) error {
	if envID == "" {
		return ErrEnvRequired
	}
	if settings == nil {
		return errors.New("settings required")
	}
	if err := s.writeCache(ctx, settingsKey(envID), settings); err != nil {
		return err
	}
	if err := s.remote.SetSettings(ctx, envID, settings); err != nil {
		s.log.Warn("Remote settings write failed, cache write stands", "env_id", envID, "error", err)
	}
	return nil
}

// GetPreferences reads a participant's preferences; member defaults to the
// sentinel "main" key when no identity is given. Returns an empty document
// (never nil) so callers can use it directly.
func (s *Store) GetPreferences(ctx context.Context, envID, member string) (*types.UserPreferences, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	key := memberKey(member)
	prefs, err := s.remote.GetPreferences(ctx, envID, key)
	if err != nil {
		s.log.Warn("Remote preferences fetch failed, serving cache",
			"env_id", envID, "member", member, "error", err)
		var cached types.UserPreferences
		if s.readCache(ctx, prefsKey(envID, key), &cached) {
			return &cached, nil
		}
		return &types.UserPreferences{}, nil
	}
	if prefs == nil {
		return &types.UserPreferences{}, nil
	}
	s.writeCache(ctx, prefsKey(envID, key), prefs)
	return prefs, nil
}

func (s *Store) SavePreferences(ctx context.Context, envID, member string, prefs *types.UserPreferences) error {
	if envID == "" {
		return ErrEnvRequired
	}
	if prefs == nil {
		return errors.New("preferences required")
	}
	key := memberKey(member)
	if err := s.writeCache(ctx, prefsKey(envID, key), prefs); err != nil {
		return err
	}
	if err := s.remote.SetPreferences(ctx, envID, key, prefs); err != nil {
		s.log.Warn("Remote preferences write failed, cache write stands",
			"env_id", envID, "member", member, "error", err)
	}
	return nil
}

func (s *Store) GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	profile, err := s.remote.GetAIProfile(ctx, envID)
	if err != nil {
		s.log.Warn("Remote AI profile fetch failed, serving cache", "env_id", envID, "error", err)
		var cached types.AIProfile
		if s.readCache(ctx, aiProfileKey(envID), &cached) {
			return &cached, nil
		}
		return &types.AIProfile{}, nil
	}
	if profile == nil {
		return &types.AIProfile{}, nil
	}
	s.writeCache(ctx, aiProfileKey(envID), profile)
	return profile, nil
}

func (s *Store) SaveAIProfile(ctx context.Context, envID string, profile *types.AIProfile) error {
	if envID == "" {
		return ErrEnvRequired
	}
	if profile == nil {
		return errors.New("profile required")
	}
	if err := s.writeCache(ctx, aiProfileKey(envID), profile); err != nil {
		return err
	}
	if err := s.remote.SetAIProfile(ctx, envID, profile); err != nil {
		s.log.Warn("Remote AI profile write failed, cache write stands", "env_id", envID, "error", err)
	}
	return nil
}

func (s *Store) ListSavedIdeas(ctx context.Context, envID string) ([]types.SavedIdea, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	ideas, err := s.remote.ListSavedIdeas(ctx, envID)
	if err != nil {
		s.log.Warn("Remote saved ideas fetch failed, serving cache", "env_id", envID, "error", err)
		var cached []types.SavedIdea
		if s.readCache(ctx, savedIdeasKey(envID), &cached) {
			return cached, nil
		}
		return []types.SavedIdea{}, nil
	}
	s.writeCache(ctx, savedIdeasKey(envID), ideas)
	return ideas, nil
}

func (s *Store) SaveSavedIdea(ctx context.Context, envID string, idea types.SavedIdea) error {
	if envID == "" {
		return ErrEnvRequired
	}
	ideas, err := s.ListSavedIdeas(ctx, envID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range ideas {
		if ideas[i].ID == idea.ID {
			ideas[i] = idea
			replaced = true
			break
		}
	}
	if !replaced {
		ideas = append(ideas, idea)
	}
	if err := s.writeCache(ctx, savedIdeasKey(envID), ideas); err != nil {
		return err
	}
	if err := s.remote.SetSavedIdea(ctx, envID, idea); err != nil {
		s.log.Warn("Remote saved idea write failed, cache write stands",
			"env_id", envID, "idea_id", idea.ID, "error", err)
	}
	return nil
}

// EnvironmentsByMember passes the membership query through to the remote
// store. Used only by the invitation flow; no cache tier.
func (s *Store) EnvironmentsByMember(ctx context.Context, email string) ([]string, error) {
	return s.remote.EnvironmentsByMember(ctx, email)
}

// InitializeEnvironment derives initial settings with the starting member as
// first-letter proposer and administrator, generates all 26 rounds in
// sequential mode, and persists both. Calling it again overwrites every
// round; callers must guard against re-invocation.
func (s *Store) InitializeEnvironment(ctx context.Context, envID string, members []string, startingMember string, order []string) (*types.Settings, error) {
	if envID == "" {
		return nil, ErrEnvRequired
	}
	if len(members) == 0 {
		return nil, errors.New("members required")
	}

	normalized := make([]string, 0, len(members))
	for _, m := range members {
		normalized = append(normalized, types.NormalizeMember(m))
	}
	if len(order) == 0 {
		order = assign.DefaultOrder(normalized, startingMember)
	}

	now := s.now()
	settings := &types.Settings{
		EnvID:       envID,
		Members:     normalized,
		MemberOrder: order,
		AdminEmail:  types.NormalizeMember(startingMember),
		Mode:        types.ModeSequential,
		CreatedAt:   now,
	}
	rounds := assign.GenerateRounds(normalized, startingMember, order, now)

	if err := s.SaveSettings(ctx, envID, settings); err != nil {
		return nil, err
	}
	if err := s.SaveRounds(ctx, envID, rounds); err != nil {
		return nil, err
	}
	s.log.Info("Environment initialized", "env_id", envID, "member_count", len(normalized))
	return settings, nil
}

// ResetRounds regenerates all 26 rounds from scratch, discarding all prior
// round state. The draw history is cleared with it so random mode starts
// over as well.
func (s *Store) ResetRounds(ctx context.Context, envID string, members []string, startingMember string, order []string) error {
	if envID == "" {
		return ErrEnvRequired
	}
	normalized := make([]string, 0, len(members))
	for _, m := range members {
		normalized = append(normalized, types.NormalizeMember(m))
	}
	if len(order) == 0 {
		order = assign.DefaultOrder(normalized, startingMember)
	}
	rounds := assign.GenerateRounds(normalized, startingMember, order, s.now())
	if err := s.SaveRounds(ctx, envID, rounds); err != nil {
		return err
	}
	settings, err := s.GetSettings(ctx, envID)
	if err != nil {
		return err
	}
	if settings != nil && len(settings.DrawnOrder) > 0 {
		settings.DrawnOrder = nil
		if err := s.SaveSettings(ctx, envID, settings); err != nil {
			return err
		}
	}
	s.log.Info("Rounds reset", "env_id", envID)
	return nil
}

func memberKey(member string) string {
	normalized := types.NormalizeMember(member)
	if normalized == "" {
		return types.PreferencesMainKey
	}
	return normalized
}

func (s *Store) cachedRounds(ctx context.Context, envID string) []types.LetterRound {
	var cached []types.LetterRound
	if !s.readCache(ctx, roundsKey(envID), &cached) {
		return []types.LetterRound{}
	}
	for i := range cached {
		cached[i].Status = types.NormalizeStatus(string(cached[i].Status))
	}
	types.SortRounds(cached)
	return cached
}

func (s *Store) readCache(ctx context.Context, key string, out any) bool {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("Cache entry decode failed", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) writeCache(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, key, raw); err != nil {
		s.log.Warn("Cache write failed", "key", key, "error", err)
		return err
	}
	return nil
}
