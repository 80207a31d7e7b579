package draw

import "time"

// Tier is the prize category a ticket classifies into.
type Tier string

const (
	TierNone   Tier = "none"
	TierFirst  Tier = "first"
	TierSecond Tier = "second"
	TierThird  Tier = "third"
	TierFree   Tier = "free"
)

// OutcomeCode tags the result of one settlement attempt. Callers branch on
// the code, never on booleans.
type OutcomeCode string

const (
	OutcomeSettled        OutcomeCode = "settled"
	OutcomeAlreadySettled OutcomeCode = "already_settled"
	OutcomeContended      OutcomeCode = "contended"
	OutcomeFailed         OutcomeCode = "failed"
)

// Outcome is what a settlement attempt reports back to its trigger.
type Outcome struct {
	Code              OutcomeCode    `json:"code"`
	WindowKey         string         `json:"window_key"`
	ResultID          string         `json:"result_id,omitempty"`
	Message           string         `json:"message,omitempty"`
	TierCounts        map[Tier]int   `json:"tier_counts,omitempty"`
	TicketsScored     int            `json:"tickets_scored,omitempty"`
	TicketsSkipped    int            `json:"tickets_skipped,omitempty"`
	FreeTicketsIssued int            `json:"free_tickets_issued,omitempty"`
}

// TicketRef is the per-tier winner entry embedded in a settlement result.
type TicketRef struct {
	ID        string
	Numbers   []string
	UserID    string
	CreatedAt time.Time
}

// Result is the published outcome of one window. Immutable once written.
type Result struct {
	ID          string
	WindowKey   string
	Winning     []string
	CreatedAt   time.Time
	FirstPrize  []TicketRef
	SecondPrize []TicketRef
	ThirdPrize  []TicketRef
	FreePrize   []TicketRef
}

// Lock is the per-window settlement lock document. For a given window key at
// most one lock ever reaches completed; in-progress locks older than the
// contention threshold are reclaimable.
type Lock struct {
	WindowKey   string
	InProgress  bool
	Completed   bool
	Owner       string
	StartedAt   time.Time
	CompletedAt time.Time
	ResultID    string
	Error       string
}

// GameState is the denormalized "current" view for display readers. It is
// overwritten by every successful settlement and carries no correctness
// weight.
type GameState struct {
	Winning       []string
	NextDrawTime  time.Time
	LastProcessID string
}
