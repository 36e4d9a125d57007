package assign

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/letterloop-backend/internal/types"
)

type fakeRotationStore struct {
	fakeRoundStore
	batches int
}

func (f *fakeRotationStore) SaveRounds(ctx context.Context, envID string, rounds []types.LetterRound) error {
	f.batches++
	f.rounds = rounds
	return nil
}

func TestUpdateMemberOrderReassignsUpcoming(t *testing.T) {
	members := []string{"alice@example.com", "bob@example.com"}
	now := time.Now()
	fs := &fakeRotationStore{}
	fs.settings = &types.Settings{EnvID: "env1", Members: members, MemberOrder: members}
	fs.rounds = GenerateRounds(members, "alice@example.com", members, now)
	fs.rounds[0].Status = types.StatusPlanned

	rot := NewRotation(fs, testLogger(t))
	changed, err := rot.UpdateMemberOrder(context.Background(), "env1", []string{"Bob@Example.com", "alice@example.com"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if changed == 0 {
		t.Fatalf("expected reassignments")
	}
	if fs.settings.MemberOrder[0] != "bob@example.com" {
		t.Fatalf("order should be normalized and stored, got %v", fs.settings.MemberOrder)
	}
	if fs.rounds[0].Proposer != "alice@example.com" {
		t.Fatalf("in-flight round must keep its proposer, got %q", fs.rounds[0].Proposer)
	}
	if fs.rounds[1].Proposer != "alice@example.com" {
		t.Fatalf("notStarted B should follow the new order, got %q", fs.rounds[1].Proposer)
	}
	if fs.batches != 1 {
		t.Fatalf("expected one batch write, got %d", fs.batches)
	}
}

func TestUpdateMemberOrderRequiresInitializedEnv(t *testing.T) {
	fs := &fakeRotationStore{}
	rot := NewRotation(fs, testLogger(t))
	if _, err := rot.UpdateMemberOrder(context.Background(), "env1", []string{"a@x.com"}); err == nil {
		t.Fatalf("uninitialized environment should error")
	}
}

func TestSetMode(t *testing.T) {
	fs := &fakeRotationStore{}
	fs.settings = &types.Settings{EnvID: "env1", Mode: types.ModeSequential}
	rot := NewRotation(fs, testLogger(t))

	if err := rot.SetMode(context.Background(), "env1", types.ModeRandom); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if fs.settings.Mode != types.ModeRandom {
		t.Fatalf("mode not stored, got %q", fs.settings.Mode)
	}
	if err := rot.SetMode(context.Background(), "env1", types.Mode("chaotic")); err == nil {
		t.Fatalf("invalid mode should error")
	}
}
