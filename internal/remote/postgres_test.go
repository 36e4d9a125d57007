package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/letterloop-backend/internal/platform/logger"
	"github.com/yungbote/letterloop-backend/internal/types"
)

// The document store runs against sqlite in tests; the jsonb containment
// query used by EnvironmentsByMember is postgres-only and not covered here.
func newSqliteStore(t *testing.T) *Postgres {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "remote.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pg, err := NewPostgresWithDB(db, log)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return pg
}

func TestRoundDocUpsert(t *testing.T) {
	pg := newSqliteStore(t)
	ctx := context.Background()

	round := types.LetterRound{Letter: "A", Proposer: "a@x.com", Status: types.StatusNotStarted, CreatedAt: time.Now()}
	if err := pg.SetRound(ctx, "env1", round); err != nil {
		t.Fatalf("set: %v", err)
	}
	round.Proposal = "Axe throwing"
	round.Status = types.StatusDraft
	if err := pg.SetRound(ctx, "env1", round); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rounds, err := pg.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("upsert duplicated the row: %d", len(rounds))
	}
	if rounds[0].Proposal != "Axe throwing" || rounds[0].Status != types.StatusDraft {
		t.Fatalf("second write lost: %+v", rounds[0])
	}
}

func TestRoundsBatchWrite(t *testing.T) {
	pg := newSqliteStore(t)
	ctx := context.Background()

	batch := []types.LetterRound{
		{Letter: "B", Proposer: "b@x.com", Status: types.StatusNotStarted},
		{Letter: "A", Proposer: "a@x.com", Status: types.StatusNotStarted},
	}
	if err := pg.SetRoundsBatch(ctx, "env1", batch); err != nil {
		t.Fatalf("batch: %v", err)
	}
	rounds, err := pg.GetRounds(ctx, "env1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rounds) != 2 || rounds[0].Letter != "A" {
		t.Fatalf("expected 2 rounds ordered by letter, got %+v", rounds)
	}
}

func TestRoundsBatchRejectsInvalidLetter(t *testing.T) {
	pg := newSqliteStore(t)
	err := pg.SetRoundsBatch(context.Background(), "env1", []types.LetterRound{
		{Letter: "A", Status: types.StatusNotStarted},
		{Letter: "AA", Status: types.StatusNotStarted},
	})
	if err == nil {
		t.Fatalf("invalid letter should fail the whole batch")
	}
	rounds, getErr := pg.GetRounds(context.Background(), "env1")
	if getErr != nil {
		t.Fatalf("get: %v", getErr)
	}
	if len(rounds) != 0 {
		t.Fatalf("failed batch must not partially apply, got %d rows", len(rounds))
	}
}

func TestSettingsDocRoundTrip(t *testing.T) {
	pg := newSqliteStore(t)
	ctx := context.Background()

	got, err := pg.GetSettings(ctx, "env1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("absent settings should be nil, got %+v", got)
	}

	settings := &types.Settings{
		EnvID:      "env1",
		Members:    []string{"a@x.com", "b@x.com"},
		AdminEmail: "a@x.com",
		Mode:       types.ModeRandom,
		DrawnOrder: []string{"Q"},
	}
	if err := pg.SetSettings(ctx, "env1", settings); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err = pg.GetSettings(ctx, "env1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.Mode != types.ModeRandom || len(got.DrawnOrder) != 1 {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestPreferencesDocPerMemberKey(t *testing.T) {
	pg := newSqliteStore(t)
	ctx := context.Background()

	a := &types.UserPreferences{BudgetTier: "low"}
	b := &types.UserPreferences{BudgetTier: "high"}
	if err := pg.SetPreferences(ctx, "env1", "a@x.com", a); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := pg.SetPreferences(ctx, "env1", "b@x.com", b); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := pg.GetPreferences(ctx, "env1", "a@x.com")
	if err != nil || got == nil || got.BudgetTier != "low" {
		t.Fatalf("per-member isolation broken: %+v %v", got, err)
	}
}
