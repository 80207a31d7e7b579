package ticket

import "context"

// Repository exposes ticket persistence. ListAll returns the full live
// ticket set; settlement scores all outstanding tickets each window.
type Repository interface {
	ListAll(ctx context.Context) ([]Ticket, error)
	GetByID(ctx context.Context, id string) (Ticket, bool, error)
	Create(ctx context.Context, t Ticket) error
}
