package settlement

import (
	"testing"
	"time"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/domain/ticket"
	"github.com/lottostack/draw-engine/internal/infrastructure/docstore/memory"
)

func TestClaimWindowFreshKey(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)

	outcome, err := store.ClaimWindow(t.Context(), draw.Claim{
		WindowKey:  "2026-8-31-10-15",
		Owner:      "proc-a",
		Now:        now,
		StaleAfter: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateClaimed {
		t.Fatalf("expected claimed, got %s", outcome.State)
	}
}

func TestClaimWindowContendedWhileFresh(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)
	claim := draw.Claim{
		WindowKey:  "2026-8-31-10-15",
		Owner:      "proc-a",
		Now:        now,
		StaleAfter: 30 * time.Second,
	}

	if _, err := store.ClaimWindow(ctx, claim); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	claim.Owner = "proc-b"
	claim.Now = now.Add(5 * time.Second)
	outcome, err := store.ClaimWindow(ctx, claim)
	if err != nil {
		t.Fatalf("second claim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateContended {
		t.Fatalf("expected contended, got %s", outcome.State)
	}
}

func TestClaimWindowReclaimsStaleLock(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)
	claim := draw.Claim{
		WindowKey:  "2026-8-31-10-15",
		Owner:      "proc-a",
		Now:        now,
		StaleAfter: 30 * time.Second,
	}

	if _, err := store.ClaimWindow(ctx, claim); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}

	claim.Owner = "proc-b"
	claim.Now = now.Add(45 * time.Second)
	outcome, err := store.ClaimWindow(ctx, claim)
	if err != nil {
		t.Fatalf("reclaim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateClaimed {
		t.Fatalf("expected stale lock reclaimed, got %s", outcome.State)
	}
}

func TestClaimWindowAlreadySettledByLock(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)
	claim := draw.Claim{
		WindowKey:  "2026-8-31-10-15",
		Owner:      "proc-a",
		Now:        now,
		StaleAfter: 30 * time.Second,
	}

	if _, err := store.ClaimWindow(ctx, claim); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.CompleteLock(ctx, claim.WindowKey, "1771776000000", now.Add(time.Second)); err != nil {
		t.Fatalf("complete lock failed: %v", err)
	}

	claim.Owner = "proc-b"
	claim.Now = now.Add(2 * time.Minute)
	outcome, err := store.ClaimWindow(ctx, claim)
	if err != nil {
		t.Fatalf("late claim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateAlreadySettled {
		t.Fatalf("expected already settled, got %s", outcome.State)
	}
	if outcome.ResultID != "1771776000000" {
		t.Fatalf("expected result id from completed lock, got %q", outcome.ResultID)
	}
}

func TestClaimWindowAlreadySettledByResult(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)

	result := draw.Result{
		ID:        "1771776000000",
		WindowKey: "2026-8-31-10-15",
		Winning:   []string{"1", "2", "3", "4"},
		CreatedAt: now,
	}
	if err := store.SaveResult(ctx, result); err != nil {
		t.Fatalf("save result failed: %v", err)
	}

	outcome, err := store.ClaimWindow(ctx, draw.Claim{
		WindowKey:  result.WindowKey,
		Owner:      "proc-b",
		Now:        now.Add(10 * time.Second),
		StaleAfter: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateAlreadySettled {
		t.Fatalf("expected already settled, got %s", outcome.State)
	}
	if outcome.ResultID != result.ID {
		t.Fatalf("expected result id %s, got %s", result.ID, outcome.ResultID)
	}
}

func TestTicketRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	created := time.Date(2026, 8, 31, 10, 14, 30, 123456789, time.UTC)

	entry := ticket.Ticket{
		ID:           "tkt-1",
		Numbers:      []string{"3", "14", "7", "21"},
		UserID:       "user-42",
		CreatedAt:    created,
		IsFreeTicket: true,
		WonFrom:      "tkt-0",
	}
	if err := store.CreateTicket(ctx, entry); err != nil {
		t.Fatalf("create ticket failed: %v", err)
	}

	got, found, err := store.GetByID(ctx, "tkt-1")
	if err != nil {
		t.Fatalf("get ticket failed: %v", err)
	}
	if !found {
		t.Fatal("ticket not found after create")
	}
	if got.UserID != entry.UserID || !got.CreatedAt.Equal(created) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.IsFreeTicket || got.WonFrom != "tkt-0" {
		t.Fatalf("free ticket provenance lost: %+v", got)
	}
	if len(got.Numbers) != 4 || got.Numbers[1] != "14" {
		t.Fatalf("numbers mismatch: %v", got.Numbers)
	}
}

func TestCreateTicketRequiresID(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	if err := store.CreateTicket(t.Context(), ticket.Ticket{Numbers: []string{"1", "2", "3", "4"}}); err == nil {
		t.Fatal("expected error for missing ticket id")
	}
}

func TestResultRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)

	saved := draw.Result{
		ID:        "1771776000000",
		WindowKey: "2026-8-31-10-15",
		Winning:   []string{"3", "14", "7", "21"},
		CreatedAt: now,
		FreePrize: []draw.TicketRef{{
			ID:        "tkt-9",
			Numbers:   []string{"14", "3", "21", "25"},
			UserID:    "user-42",
			CreatedAt: now.Add(-time.Minute),
		}},
	}
	if err := store.SaveResult(ctx, saved); err != nil {
		t.Fatalf("save result failed: %v", err)
	}

	got, found, err := store.FindResultByWindow(ctx, saved.WindowKey)
	if err != nil {
		t.Fatalf("find result failed: %v", err)
	}
	if !found {
		t.Fatal("result not found by window key")
	}
	if got.ID != saved.ID || got.WindowKey != saved.WindowKey {
		t.Fatalf("result identity mismatch: %+v", got)
	}
	if len(got.FreePrize) != 1 || got.FreePrize[0].UserID != "user-42" {
		t.Fatalf("free prize refs mismatch: %+v", got.FreePrize)
	}
	if !got.FreePrize[0].CreatedAt.Equal(now.Add(-time.Minute)) {
		t.Fatalf("ref timestamp mismatch: %v", got.FreePrize[0].CreatedAt)
	}
}

func TestGameStateRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()

	if _, found, err := store.GetGameState(ctx); err != nil || found {
		t.Fatalf("expected no game state yet, found=%t err=%v", found, err)
	}

	next := time.Date(2026, 8, 31, 10, 16, 0, 0, time.UTC)
	state := draw.GameState{
		Winning:       []string{"3", "14", "7", "21"},
		NextDrawTime:  next,
		LastProcessID: "proc-a",
	}
	if err := store.SaveGameState(ctx, state); err != nil {
		t.Fatalf("save game state failed: %v", err)
	}

	got, found, err := store.GetGameState(ctx)
	if err != nil {
		t.Fatalf("get game state failed: %v", err)
	}
	if !found {
		t.Fatal("game state missing after save")
	}
	if got.LastProcessID != "proc-a" || !got.NextDrawTime.Equal(next) {
		t.Fatalf("game state mismatch: %+v", got)
	}
}

func TestFailLockKeepsWindowReclaimable(t *testing.T) {
	t.Parallel()

	store := NewStore(memory.NewStore())
	ctx := t.Context()
	now := time.Date(2026, 8, 31, 10, 15, 3, 0, time.UTC)
	claim := draw.Claim{
		WindowKey:  "2026-8-31-10-15",
		Owner:      "proc-a",
		Now:        now,
		StaleAfter: 30 * time.Second,
	}

	if _, err := store.ClaimWindow(ctx, claim); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if err := store.FailLock(ctx, claim.WindowKey, "symbol generation failed", now.Add(time.Second)); err != nil {
		t.Fatalf("fail lock failed: %v", err)
	}

	// A failed lock is no longer in progress, so a retry within the same
	// window claims immediately.
	claim.Owner = "proc-b"
	claim.Now = now.Add(2 * time.Second)
	outcome, err := store.ClaimWindow(ctx, claim)
	if err != nil {
		t.Fatalf("retry claim failed: %v", err)
	}
	if outcome.State != draw.ClaimStateClaimed {
		t.Fatalf("expected retry to claim, got %s", outcome.State)
	}
}
