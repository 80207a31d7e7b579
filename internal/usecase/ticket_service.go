package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/domain/ticket"
	idgen "github.com/lottostack/draw-engine/internal/platform/id"
	"github.com/lottostack/draw-engine/internal/platform/logging"
)

// TicketService handles player entry submission. Tickets are immutable once
// stored; settlement only reads them.
type TicketService struct {
	tickets ticket.Repository
	ids     idgen.Generator
	logger  *logging.Logger
	now     func() time.Time
}

type SubmitTicketInput struct {
	UserID  string
	Numbers []string
}

func NewTicketService(tickets ticket.Repository, ids idgen.Generator, logger *logging.Logger) *TicketService {
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &TicketService{
		tickets: tickets,
		ids:     ids,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *TicketService) Submit(ctx context.Context, input SubmitTicketInput) (ticket.Ticket, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TicketService.Submit")
	defer span.End()

	if len(input.Numbers) != draw.SymbolCount {
		return ticket.Ticket{}, fmt.Errorf("%w: expected %d symbols, got %d",
			ErrInvalidInput, draw.SymbolCount, len(input.Numbers))
	}
	for _, symbol := range input.Numbers {
		if !draw.InAlphabet(symbol) {
			return ticket.Ticket{}, fmt.Errorf("%w: symbol %q is not in the draw alphabet", ErrInvalidInput, symbol)
		}
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = ticket.AnonymousUser
	}

	id, err := s.ids.NewID()
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("mint ticket id: %w", err)
	}

	entry := ticket.Ticket{
		ID:        id,
		Numbers:   append([]string(nil), input.Numbers...),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tickets.Create(ctx, entry); err != nil {
		return ticket.Ticket{}, fmt.Errorf("store ticket: %w", err)
	}

	s.logger.InfoContext(ctx, "ticket submitted",
		"ticket_id", entry.ID,
		"user_id", entry.UserID,
	)
	return entry, nil
}

func (s *TicketService) GetByID(ctx context.Context, id string) (ticket.Ticket, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TicketService.GetByID")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return ticket.Ticket{}, fmt.Errorf("%w: ticket id is required", ErrInvalidInput)
	}

	entry, exists, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	if !exists {
		return ticket.Ticket{}, fmt.Errorf("%w: ticket=%s", ErrNotFound, id)
	}
	return entry, nil
}
