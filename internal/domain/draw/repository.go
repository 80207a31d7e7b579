package draw

import (
	"context"
	"time"

	"github.com/lottostack/draw-engine/internal/domain/ticket"
)

// ClaimState is the verdict of an atomic window claim.
type ClaimState string

const (
	// ClaimStateClaimed means this caller now owns the window lock and must
	// run the settlement.
	ClaimStateClaimed ClaimState = "claimed"
	// ClaimStateAlreadySettled means a result already exists for the window.
	ClaimStateAlreadySettled ClaimState = "already_settled"
	// ClaimStateContended means another process holds a fresh in-progress
	// lock; the caller must stop without writing anything.
	ClaimStateContended ClaimState = "contended"
)

// Claim is the input to an atomic window-lock acquisition.
type Claim struct {
	WindowKey string
	Owner     string
	Now       time.Time
	// StaleAfter is the contention threshold: an in-progress lock older
	// than this is treated as abandoned and reclaimed.
	StaleAfter time.Duration
}

// ClaimOutcome reports how the claim resolved. ResultID is set when State
// is ClaimStateAlreadySettled.
type ClaimOutcome struct {
	State    ClaimState
	ResultID string
}

// Store is the settlement engine's persistence boundary. ClaimWindow must
// perform its result check, lock read and lock write inside one atomic
// transaction; it is the sole distributed mutual-exclusion mechanism.
type Store interface {
	ClaimWindow(ctx context.Context, claim Claim) (ClaimOutcome, error)

	ListTickets(ctx context.Context) ([]ticket.Ticket, error)
	CreateTicket(ctx context.Context, t ticket.Ticket) error

	FindResultByWindow(ctx context.Context, windowKey string) (Result, bool, error)
	SaveResult(ctx context.Context, result Result) error
	SaveGameState(ctx context.Context, state GameState) error
	GetGameState(ctx context.Context) (GameState, bool, error)

	CompleteLock(ctx context.Context, windowKey, resultID string, at time.Time) error
	FailLock(ctx context.Context, windowKey, message string, at time.Time) error
}
