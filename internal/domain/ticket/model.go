package ticket

import (
	"strings"
	"time"
)

// Owner sentinels for entries submitted before a wallet/identity is linked.
const (
	AnonymousUser = "anonymous"
	PendingUser   = "pending"
)

// Ticket is one player entry. Tickets are immutable after creation; the
// settlement engine only reads them, except for free-tier follow-ons it
// creates itself.
type Ticket struct {
	ID           string
	Numbers      []string
	UserID       string
	CreatedAt    time.Time
	IsFreeTicket bool
	// WonFrom references the ticket whose free-prize classification issued
	// this one.
	WonFrom string
}

// HasRealOwner reports whether the ticket belongs to an identified user, as
// opposed to an anonymous or pending sentinel owner.
func (t Ticket) HasRealOwner() bool {
	return IsRealUser(t.UserID)
}

// IsRealUser reports whether userID identifies an actual user rather than a
// sentinel.
func IsRealUser(userID string) bool {
	owner := strings.TrimSpace(userID)
	return owner != "" && owner != AnonymousUser && owner != PendingUser
}
