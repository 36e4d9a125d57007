package store

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/letterloop-backend/internal/cache"
	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/remote"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// downRemote simulates an unreachable remote tier: every call fails.
type downRemote struct{}

var errDown = errors.New("remote unreachable")

func (downRemote) GetRounds(ctx context.Context, envID string) ([]types.LetterRound, error) {
	return nil, errDown
}
func (downRemote) SetRound(ctx context.Context, envID string, round types.LetterRound) error {
	return errDown
}
func (downRemote) SetRoundsBatch(ctx context.Context, envID string, rounds []types.LetterRound) error {
	return errDown
}
func (downRemote) GetSettings(ctx context.Context, envID string) (*types.Settings, error) {
	return nil, errDown
}
func (downRemote) SetSettings(ctx context.Context, envID string, settings *types.Settings) error {
	return errDown
}
func (downRemote) GetPreferences(ctx context.Context, envID, memberKey string) (*types.UserPreferences, error) {
	return nil, errDown
}
func (downRemote) SetPreferences(ctx context.Context, envID, memberKey string, prefs *types.UserPreferences) error {
	return errDown
}
func (downRemote) GetAIProfile(ctx context.Context, envID string) (*types.AIProfile, error) {
	return nil, errDown
}
func (downRemote) SetAIProfile(ctx context.Context, envID string, profile *types.AIProfile) error {
	return errDown
}
func (downRemote) ListSavedIdeas(ctx context.Context, envID string) ([]types.SavedIdea, error) {
	return nil, errDown
}
func (downRemote) SetSavedIdea(ctx context.Context, envID string, idea types.SavedIdea) error {
	return errDown
}
func (downRemote) EnvironmentsByMember(ctx context.Context, email string) ([]string, error) {
	return nil, errDown
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newStore(t *testing.T, rs remote.Store) *Store {
	t.Helper()
	return New(cache.NewMemory(), rs, testLogger(t))
}

func TestInitializeEnvironment(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()
	members := []string{"Alice@Example.com", "bob@example.com"}

	settings, err := st.InitializeEnvironment(ctx, "env1", members, "alice@example.com", nil)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if settings.AdminEmail != "alice@example.com" {
		t.Fatalf("starting member should be admin, got %q", settings.AdminEmail)
	}
	if settings.Mode != types.ModeSequential {
		t.Fatalf("initial mode should be sequential, got %q", settings.Mode)
	}
	if settings.Members[0] != "alice@example.com" {
		t.Fatalf("members should be normalized, got %v", settings.Members)
	}

	rounds, err := st.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if len(rounds) != types.AlphabetSize {
		t.Fatalf("expected 26 rounds, got %d", len(rounds))
	}
	if rounds[0].Letter != "A" || rounds[0].Proposer != "alice@example.com" {
		t.Fatalf("A should go to the starting member, got %+v", rounds[0])
	}
}

func TestGetRoundsSortedAndNormalized(t *testing.T) {
	rm := remote.NewMemory()
	ctx := context.Background()
	// Legacy status names written directly into the remote tier.
	if err := rm.SetRound(ctx, "env1", types.LetterRound{Letter: "B", Status: "suggested"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := rm.SetRound(ctx, "env1", types.LetterRound{Letter: "A", Status: "completed"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	st := newStore(t, rm)
	rounds, err := st.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Letter != "A" || rounds[1].Letter != "B" {
		t.Fatalf("expected sorted A,B, got %+v", rounds)
	}
	if rounds[0].Status != types.StatusDone {
		t.Fatalf("completed should migrate to done, got %q", rounds[0].Status)
	}
	if rounds[1].Status != types.StatusDraft {
		t.Fatalf("suggested should migrate to draft, got %q", rounds[1].Status)
	}
}

func TestRemoteFailureFallsBackToCache(t *testing.T) {
	ca := cache.NewMemory()
	log := testLogger(t)
	ctx := context.Background()

	// Healthy store populates the cache.
	healthy := New(ca, remote.NewMemory(), log)
	if _, err := healthy.InitializeEnvironment(ctx, "env1", []string{"a@x.com"}, "a@x.com", nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Same cache, dead remote: reads keep working.
	degraded := New(ca, downRemote{}, log)
	rounds, err := degraded.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("degraded read should not error: %v", err)
	}
	if len(rounds) != types.AlphabetSize {
		t.Fatalf("expected cached rounds, got %d", len(rounds))
	}

	settings, err := degraded.GetSettings(ctx, "env1")
	if err != nil || settings == nil {
		t.Fatalf("degraded settings read failed: %v %v", settings, err)
	}
}

func TestRemoteFailureWriteStandsLocally(t *testing.T) {
	st := newStore(t, downRemote{})
	ctx := context.Background()

	round := types.LetterRound{Letter: "A", Proposer: "a@x.com", Status: types.StatusDraft, Proposal: "Axe throwing"}
	if err := st.SaveRounds(ctx, "env1", []types.LetterRound{round}); err != nil {
		t.Fatalf("save with dead remote should not error: %v", err)
	}

	rounds, err := st.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rounds) != 1 || rounds[0].Proposal != "Axe throwing" {
		t.Fatalf("cache write should be authoritative, got %+v", rounds)
	}
}

func TestRemoteFailureNeverCachedEmpty(t *testing.T) {
	st := newStore(t, downRemote{})
	rounds, err := st.GetRounds(context.Background(), "env-unknown")
	if err != nil {
		t.Fatalf("expected silent degradation, got %v", err)
	}
	if len(rounds) != 0 {
		t.Fatalf("expected empty slice, got %d", len(rounds))
	}
}

func TestSaveRoundMergesIntoSet(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()
	if _, err := st.InitializeEnvironment(ctx, "env1", []string{"a@x.com"}, "a@x.com", nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	edited := types.LetterRound{Letter: "C", Proposer: "a@x.com", Status: types.StatusDraft, Proposal: "Cooking class"}
	if err := st.SaveRound(ctx, "env1", edited); err != nil {
		t.Fatalf("save round: %v", err)
	}

	rounds, err := st.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if len(rounds) != types.AlphabetSize {
		t.Fatalf("single-round save must not shrink the set: %d", len(rounds))
	}
	for _, r := range rounds {
		if r.Letter == "C" && r.Proposal != "Cooking class" {
			t.Fatalf("edit lost: %+v", r)
		}
	}
}

func TestPreferencesDefaultKeyAndRoundTrip(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()

	prefs, err := st.GetPreferences(ctx, "env1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if prefs == nil {
		t.Fatalf("preferences must never be nil")
	}

	prefs.BudgetTier = "low"
	prefs.PutIdeas("A", []types.Idea{{ID: "1", Title: "Axe throwing"}})
	if err := st.SavePreferences(ctx, "env1", "", prefs); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := st.GetPreferences(ctx, "env1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if back.BudgetTier != "low" || len(back.CachedIdeas("A")) != 1 {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestResetRoundsClearsDrawHistory(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()
	members := []string{"a@x.com", "b@x.com"}
	if _, err := st.InitializeEnvironment(ctx, "env1", members, "a@x.com", nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	settings, err := st.GetSettings(ctx, "env1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	settings.DrawnOrder = []string{"Q", "A"}
	if err := st.SaveSettings(ctx, "env1", settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	if err := st.ResetRounds(ctx, "env1", members, "b@x.com", nil); err != nil {
		t.Fatalf("reset: %v", err)
	}

	settings, err = st.GetSettings(ctx, "env1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if len(settings.DrawnOrder) != 0 {
		t.Fatalf("reset should clear draw history, got %v", settings.DrawnOrder)
	}
	rounds, err := st.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("rounds: %v", err)
	}
	if rounds[0].Proposer != "b@x.com" {
		t.Fatalf("reset should restart rotation at the new starting member, got %q", rounds[0].Proposer)
	}
}

func TestSavedIdeasRoundTrip(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()

	idea := types.SavedIdea{
		ID:      "s1",
		EnvID:   "env1",
		SavedBy: "a@x.com",
		Idea:    types.Idea{ID: "i1", Title: "Kayaking"},
		Letter:  "K",
	}
	if err := st.SaveSavedIdea(ctx, "env1", idea); err != nil {
		t.Fatalf("save: %v", err)
	}

	ideas, err := st.ListSavedIdeas(ctx, "env1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ideas) != 1 || ideas[0].Idea.Title != "Kayaking" {
		t.Fatalf("round trip failed: %+v", ideas)
	}
}

func TestEnvironmentsByMember(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	ctx := context.Background()
	if _, err := st.InitializeEnvironment(ctx, "env1", []string{"a@x.com", "b@x.com"}, "a@x.com", nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, err := st.InitializeEnvironment(ctx, "env2", []string{"b@x.com"}, "b@x.com", nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	envs, err := st.EnvironmentsByMember(ctx, "B@X.com")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(envs) != 2 {
		t.Fatalf("expected both environments, got %v", envs)
	}
	envs, err = st.EnvironmentsByMember(ctx, "a@x.com")
	if err != nil || len(envs) != 1 {
		t.Fatalf("expected one environment for a@x.com, got %v %v", envs, err)
	}
}

func TestEnvRequired(t *testing.T) {
	st := newStore(t, remote.NewMemory())
	if _, err := st.GetRounds(context.Background(), ""); !errors.Is(err, ErrEnvRequired) {
		t.Fatalf("expected ErrEnvRequired, got %v", err)
	}
}
