package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/domain/ticket"
	idgen "github.com/lottostack/draw-engine/internal/platform/id"
	"github.com/lottostack/draw-engine/internal/platform/logging"
	"github.com/lottostack/draw-engine/internal/platform/resilience"
)

const (
	defaultDrawCadence  = time.Minute
	defaultStaleAfter   = 30 * time.Second
	defaultScoreWorkers = 8
)

type SettlementConfig struct {
	// Cadence is the draw interval; window keys round down to its boundary.
	Cadence time.Duration
	// StaleAfter is the contention threshold: an in-progress lock younger
	// than this belongs to a live competitor, an older one is reclaimable.
	StaleAfter   time.Duration
	ScoreWorkers int
}

type SettleInput struct {
	// InvocationID identifies the triggering call; used only for logging.
	InvocationID string
	Manual       bool
}

// SettlementService coordinates one settlement attempt per call: claim the
// window lock, generate winning symbols, score every outstanding ticket,
// persist the result, issue free-tier follow-ons, complete the lock.
// Instances in separate processes coordinate solely through the store's
// transactional claim; the local singleflight only spares redundant store
// round trips inside one process.
type SettlementService struct {
	store  draw.Store
	ids    idgen.Generator
	cfg    SettlementConfig
	logger *logging.Logger
	now    func() time.Time
	flight resilience.SingleFlight
}

func NewSettlementService(
	store draw.Store,
	ids idgen.Generator,
	cfg SettlementConfig,
	logger *logging.Logger,
) *SettlementService {
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Cadence <= 0 {
		cfg.Cadence = defaultDrawCadence
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	if cfg.ScoreWorkers <= 0 {
		cfg.ScoreWorkers = defaultScoreWorkers
	}

	return &SettlementService{
		store:  store,
		ids:    ids,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Settle runs one settlement attempt for the window containing the current
// wall-clock time. The window key depends only on time, never on the
// caller, so concurrent triggers within one window compete for one lock.
func (s *SettlementService) Settle(ctx context.Context, input SettleInput) (draw.Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.Settle")
	defer span.End()

	now := s.now().UTC()
	windowKey := draw.WindowKey(now, s.cfg.Cadence)

	value, err, shared := s.flight.Do(windowKey, func() (any, error) {
		outcome, runErr := s.settleWindow(ctx, input, now, windowKey)
		return outcome, runErr
	})
	outcome, _ := value.(draw.Outcome)
	if shared {
		s.logger.DebugContext(ctx, "settle call coalesced with in-flight attempt",
			"window_key", windowKey,
			"invocation_id", input.InvocationID,
		)
	}
	return outcome, err
}

func (s *SettlementService) settleWindow(ctx context.Context, input SettleInput, now time.Time, windowKey string) (draw.Outcome, error) {
	owner, err := s.ids.NewID()
	if err != nil {
		return draw.Outcome{
			Code:      draw.OutcomeFailed,
			WindowKey: windowKey,
			Message:   err.Error(),
		}, fmt.Errorf("mint settlement owner id: %w", err)
	}

	claim, err := s.store.ClaimWindow(ctx, draw.Claim{
		WindowKey:  windowKey,
		Owner:      owner,
		Now:        now,
		StaleAfter: s.cfg.StaleAfter,
	})
	if err != nil {
		return draw.Outcome{
			Code:      draw.OutcomeFailed,
			WindowKey: windowKey,
			Message:   err.Error(),
		}, fmt.Errorf("claim window %s: %w", windowKey, err)
	}

	switch claim.State {
	case draw.ClaimStateAlreadySettled:
		s.logger.InfoContext(ctx, "window already settled",
			"window_key", windowKey,
			"result_id", claim.ResultID,
			"invocation_id", input.InvocationID,
		)
		return draw.Outcome{
			Code:      draw.OutcomeAlreadySettled,
			WindowKey: windowKey,
			ResultID:  claim.ResultID,
		}, nil
	case draw.ClaimStateContended:
		s.logger.InfoContext(ctx, "window settlement in progress elsewhere",
			"window_key", windowKey,
			"invocation_id", input.InvocationID,
		)
		return draw.Outcome{
			Code:      draw.OutcomeContended,
			WindowKey: windowKey,
		}, nil
	}

	outcome, err := s.runSettlement(ctx, input, owner, now, windowKey)
	if err != nil {
		// Best effort: a lock we cannot even mark failed stays in-progress
		// and will be reclaimed once it goes stale.
		if failErr := s.store.FailLock(ctx, windowKey, err.Error(), s.now().UTC()); failErr != nil {
			s.logger.ErrorContext(ctx, "mark window lock failed",
				"window_key", windowKey,
				"error", failErr,
			)
		}
		return draw.Outcome{
			Code:      draw.OutcomeFailed,
			WindowKey: windowKey,
			Message:   err.Error(),
		}, err
	}
	return outcome, nil
}

func (s *SettlementService) runSettlement(ctx context.Context, input SettleInput, owner string, now time.Time, windowKey string) (draw.Outcome, error) {
	winning, err := draw.GenerateSymbols(draw.SymbolCount)
	if err != nil {
		return draw.Outcome{}, fmt.Errorf("generate winning symbols: %w", err)
	}

	tickets, err := s.store.ListTickets(ctx)
	if err != nil {
		return draw.Outcome{}, fmt.Errorf("load outstanding tickets: %w", err)
	}

	buckets, skipped := s.scoreTickets(ctx, tickets, winning)

	windowStart := draw.WindowStart(now, s.cfg.Cadence)
	result := draw.Result{
		ID:          draw.ResultID(now, s.cfg.Cadence),
		WindowKey:   windowKey,
		Winning:     winning,
		CreatedAt:   now,
		FirstPrize:  buckets[draw.TierFirst],
		SecondPrize: buckets[draw.TierSecond],
		ThirdPrize:  buckets[draw.TierThird],
		FreePrize:   buckets[draw.TierFree],
	}
	if err := s.store.SaveResult(ctx, result); err != nil {
		return draw.Outcome{}, fmt.Errorf("persist settlement result: %w", err)
	}

	if err := s.store.SaveGameState(ctx, draw.GameState{
		Winning:       winning,
		NextDrawTime:  windowStart.Add(s.cfg.Cadence),
		LastProcessID: owner,
	}); err != nil {
		return draw.Outcome{}, fmt.Errorf("update game state: %w", err)
	}

	issued := s.issueFollowOns(ctx, result.FreePrize, now)

	if err := s.store.CompleteLock(ctx, windowKey, result.ID, s.now().UTC()); err != nil {
		return draw.Outcome{}, fmt.Errorf("complete window lock: %w", err)
	}

	s.logger.InfoContext(ctx, "window settled",
		"window_key", windowKey,
		"result_id", result.ID,
		"owner", owner,
		"invocation_id", input.InvocationID,
		"manual", input.Manual,
		"tickets_scored", len(tickets)-skipped,
		"tickets_skipped", skipped,
		"first_prize", len(result.FirstPrize),
		"second_prize", len(result.SecondPrize),
		"third_prize", len(result.ThirdPrize),
		"free_prize", len(result.FreePrize),
		"free_tickets_issued", issued,
	)

	return draw.Outcome{
		Code:      draw.OutcomeSettled,
		WindowKey: windowKey,
		ResultID:  result.ID,
		TierCounts: map[draw.Tier]int{
			draw.TierFirst:  len(result.FirstPrize),
			draw.TierSecond: len(result.SecondPrize),
			draw.TierThird:  len(result.ThirdPrize),
			draw.TierFree:   len(result.FreePrize),
		},
		TicketsScored:     len(tickets) - skipped,
		TicketsSkipped:    skipped,
		FreeTicketsIssued: issued,
	}, nil
}

// scoreTickets classifies the full ticket set against the winning sequence.
// Classification fans out over a worker pool; tier assignment is collected
// index-aligned so bucket order stays deterministic. Tickets without a
// usable symbol sequence are skipped, never fatal.
func (s *SettlementService) scoreTickets(ctx context.Context, tickets []ticket.Ticket, winning []string) (map[draw.Tier][]draw.TicketRef, int) {
	tiers := make([]draw.Tier, len(tickets))

	pool, err := ants.NewPool(s.cfg.ScoreWorkers)
	if err != nil {
		s.logger.WarnContext(ctx, "score worker pool unavailable, classifying serially", "error", err)
		for i := range tickets {
			tiers[i] = draw.Classify(tickets[i].Numbers, winning)
		}
	} else {
		var wg sync.WaitGroup
		for i := range tickets {
			i := i
			wg.Add(1)
			task := func() {
				defer wg.Done()
				tiers[i] = draw.Classify(tickets[i].Numbers, winning)
			}
			if submitErr := pool.Submit(task); submitErr != nil {
				task()
			}
		}
		wg.Wait()
		pool.Release()
	}

	buckets := make(map[draw.Tier][]draw.TicketRef)
	skipped := 0
	for i, t := range tickets {
		if len(t.Numbers) < draw.SymbolCount {
			skipped++
			s.logger.DebugContext(ctx, "ticket skipped: unusable symbol sequence",
				"ticket_id", t.ID,
				"symbol_count", len(t.Numbers),
			)
			continue
		}
		if tiers[i] == draw.TierNone {
			continue
		}
		buckets[tiers[i]] = append(buckets[tiers[i]], draw.TicketRef{
			ID:        t.ID,
			Numbers:   t.Numbers,
			UserID:    t.UserID,
			CreatedAt: t.CreatedAt,
		})
	}
	return buckets, skipped
}

// issueFollowOns creates one free ticket per free-prize winner with a real
// owner. Failures are isolated per ticket; the settlement result is already
// persisted and is never rolled back from here.
func (s *SettlementService) issueFollowOns(ctx context.Context, winners []draw.TicketRef, now time.Time) int {
	issued := 0
	for _, ref := range winners {
		if !ticket.IsRealUser(ref.UserID) {
			continue
		}

		newID, err := s.ids.NewID()
		if err != nil {
			s.logger.WarnContext(ctx, "free ticket issuance failed: id generation",
				"won_from", ref.ID,
				"user_id", ref.UserID,
				"error", err,
			)
			continue
		}
		numbers, err := draw.GenerateSymbols(draw.SymbolCount)
		if err != nil {
			s.logger.WarnContext(ctx, "free ticket issuance failed: symbol generation",
				"won_from", ref.ID,
				"user_id", ref.UserID,
				"error", err,
			)
			continue
		}

		if err := s.store.CreateTicket(ctx, ticket.Ticket{
			ID:           newID,
			Numbers:      numbers,
			UserID:       ref.UserID,
			CreatedAt:    now,
			IsFreeTicket: true,
			WonFrom:      ref.ID,
		}); err != nil {
			s.logger.WarnContext(ctx, "free ticket issuance failed: store write",
				"won_from", ref.ID,
				"user_id", ref.UserID,
				"error", err,
			)
			continue
		}
		issued++
	}
	return issued
}

// CurrentState returns the denormalized display view written by the last
// successful settlement.
func (s *SettlementService) CurrentState(ctx context.Context) (draw.GameState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.CurrentState")
	defer span.End()

	state, exists, err := s.store.GetGameState(ctx)
	if err != nil {
		return draw.GameState{}, fmt.Errorf("get game state: %w", err)
	}
	if !exists {
		return draw.GameState{}, fmt.Errorf("%w: no settlement has run yet", ErrNotFound)
	}
	return state, nil
}

// ResultByWindow looks up the published settlement result for one window key.
func (s *SettlementService) ResultByWindow(ctx context.Context, windowKey string) (draw.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.ResultByWindow")
	defer span.End()

	result, exists, err := s.store.FindResultByWindow(ctx, windowKey)
	if err != nil {
		return draw.Result{}, fmt.Errorf("find result by window: %w", err)
	}
	if !exists {
		return draw.Result{}, fmt.Errorf("%w: window=%s", ErrNotFound, windowKey)
	}
	return result, nil
}
