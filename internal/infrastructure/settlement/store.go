package settlement

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/domain/ticket"
	"github.com/lottostack/draw-engine/internal/platform/docstore"
)

// Collection and field names are the persisted contract other collaborators
// (UI readers, ticket submission) rely on. Do not rename.
const (
	collectionTickets   = "tickets"
	collectionResults   = "game_results"
	collectionLocks     = "draw_control"
	collectionGameState = "game_state"

	gameStateKey = "current"

	fieldNumbers        = "numbers"
	fieldTimestamp      = "timestamp"
	fieldUserID         = "userId"
	fieldIsFreeTicket   = "isFreeTicket"
	fieldWonFrom        = "wonFrom"
	fieldWinningNumbers = "winningNumbers"
	fieldMinuteKey      = "minuteKey"
	fieldFirstPrize     = "firstPrize"
	fieldSecondPrize    = "secondPrize"
	fieldThirdPrize     = "thirdPrize"
	fieldFreePrize      = "freePrize"
	fieldRefID          = "id"
	fieldInProgress     = "inProgress"
	fieldCompleted      = "completed"
	fieldOwner          = "owner"
	fieldStartedAt      = "startedAt"
	fieldCompletedAt    = "completedAt"
	fieldResultID       = "resultId"
	fieldError          = "error"
	fieldNextDrawTime   = "nextDrawTime"
	fieldLastProcessID  = "lastProcessId"
)

// Store adapts the generic document store to the settlement engine's typed
// boundary. All decoding happens here; malformed documents degrade to zero
// values instead of faulting the batch.
type Store struct {
	doc docstore.Store
}

func NewStore(doc docstore.Store) *Store {
	return &Store{doc: doc}
}

// ClaimWindow resolves one window claim inside a single transaction:
// result-by-window check, lock read, lock write. At most one concurrent
// caller per key observes ClaimStateClaimed.
func (s *Store) ClaimWindow(ctx context.Context, claim draw.Claim) (draw.ClaimOutcome, error) {
	var out draw.ClaimOutcome
	err := s.doc.RunTransaction(ctx, func(tx docstore.Tx) error {
		existing, err := tx.QueryByField(collectionResults, fieldMinuteKey, claim.WindowKey, 1)
		if err != nil {
			return crerr.Wrapf(err, "query result for window %s", claim.WindowKey)
		}
		if len(existing) > 0 {
			out = draw.ClaimOutcome{State: draw.ClaimStateAlreadySettled, ResultID: existing[0].Key}
			return nil
		}

		lockDoc, err := tx.Get(collectionLocks, claim.WindowKey)
		if err != nil && !crerr.Is(err, docstore.ErrNotFound) {
			return crerr.Wrapf(err, "read lock for window %s", claim.WindowKey)
		}
		if err == nil {
			lock := decodeLock(claim.WindowKey, lockDoc)
			if lock.Completed {
				out = draw.ClaimOutcome{State: draw.ClaimStateAlreadySettled, ResultID: lock.ResultID}
				return nil
			}
			if lock.InProgress && claim.Now.Sub(lock.StartedAt) < claim.StaleAfter {
				out = draw.ClaimOutcome{State: draw.ClaimStateContended}
				return nil
			}
		}

		out = draw.ClaimOutcome{State: draw.ClaimStateClaimed}
		return tx.Set(collectionLocks, claim.WindowKey, docstore.Document{
			fieldInProgress: true,
			fieldCompleted:  false,
			fieldOwner:      claim.Owner,
			fieldStartedAt:  encodeTime(claim.Now),
			fieldError:      "",
		}, false)
	})
	if err != nil {
		return draw.ClaimOutcome{}, err
	}
	return out, nil
}

func (s *Store) ListTickets(ctx context.Context) ([]ticket.Ticket, error) {
	docs, err := s.doc.ListAll(ctx, collectionTickets)
	if err != nil {
		return nil, crerr.Wrap(err, "list tickets")
	}

	out := make([]ticket.Ticket, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeTicket(d.Key, d.Fields))
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (ticket.Ticket, bool, error) {
	doc, err := s.doc.GetDocument(ctx, collectionTickets, id)
	if err != nil {
		if crerr.Is(err, docstore.ErrNotFound) {
			return ticket.Ticket{}, false, nil
		}
		return ticket.Ticket{}, false, crerr.Wrapf(err, "get ticket %s", id)
	}
	return decodeTicket(id, doc), true, nil
}

// ListAll implements ticket.Repository.
func (s *Store) ListAll(ctx context.Context) ([]ticket.Ticket, error) {
	return s.ListTickets(ctx)
}

// Create implements ticket.Repository; the caller assigns the ID.
func (s *Store) Create(ctx context.Context, t ticket.Ticket) error {
	return s.CreateTicket(ctx, t)
}

func (s *Store) CreateTicket(ctx context.Context, t ticket.Ticket) error {
	if t.ID == "" {
		return crerr.New("ticket id is required")
	}

	fields := docstore.Document{
		fieldNumbers:   toAnySlice(t.Numbers),
		fieldTimestamp: encodeTime(t.CreatedAt),
		fieldUserID:    t.UserID,
	}
	if t.IsFreeTicket {
		fields[fieldIsFreeTicket] = true
	}
	if t.WonFrom != "" {
		fields[fieldWonFrom] = t.WonFrom
	}

	if err := s.doc.SetDocument(ctx, collectionTickets, t.ID, fields, false); err != nil {
		return crerr.Wrapf(err, "create ticket %s", t.ID)
	}
	return nil
}

func (s *Store) FindResultByWindow(ctx context.Context, windowKey string) (draw.Result, bool, error) {
	docs, err := s.doc.QueryByField(ctx, collectionResults, fieldMinuteKey, windowKey, 1)
	if err != nil {
		return draw.Result{}, false, crerr.Wrapf(err, "find result for window %s", windowKey)
	}
	if len(docs) == 0 {
		return draw.Result{}, false, nil
	}
	return decodeResult(docs[0].Key, docs[0].Fields), true, nil
}

func (s *Store) SaveResult(ctx context.Context, result draw.Result) error {
	fields := docstore.Document{
		fieldWinningNumbers: toAnySlice(result.Winning),
		fieldTimestamp:      encodeTime(result.CreatedAt),
		fieldMinuteKey:      result.WindowKey,
		fieldFirstPrize:     encodeRefs(result.FirstPrize),
		fieldSecondPrize:    encodeRefs(result.SecondPrize),
		fieldThirdPrize:     encodeRefs(result.ThirdPrize),
		fieldFreePrize:      encodeRefs(result.FreePrize),
	}
	if err := s.doc.SetDocument(ctx, collectionResults, result.ID, fields, false); err != nil {
		return crerr.Wrapf(err, "save result %s", result.ID)
	}
	return nil
}

func (s *Store) SaveGameState(ctx context.Context, state draw.GameState) error {
	fields := docstore.Document{
		fieldWinningNumbers: toAnySlice(state.Winning),
		fieldNextDrawTime:   encodeTime(state.NextDrawTime),
		fieldLastProcessID:  state.LastProcessID,
	}
	if err := s.doc.SetDocument(ctx, collectionGameState, gameStateKey, fields, false); err != nil {
		return crerr.Wrap(err, "save game state")
	}
	return nil
}

func (s *Store) GetGameState(ctx context.Context) (draw.GameState, bool, error) {
	doc, err := s.doc.GetDocument(ctx, collectionGameState, gameStateKey)
	if err != nil {
		if crerr.Is(err, docstore.ErrNotFound) {
			return draw.GameState{}, false, nil
		}
		return draw.GameState{}, false, crerr.Wrap(err, "get game state")
	}
	return draw.GameState{
		Winning:       toStringSlice(doc[fieldWinningNumbers]),
		NextDrawTime:  toTime(doc[fieldNextDrawTime]),
		LastProcessID: toString(doc[fieldLastProcessID]),
	}, true, nil
}

func (s *Store) CompleteLock(ctx context.Context, windowKey, resultID string, at time.Time) error {
	fields := docstore.Document{
		fieldInProgress:  false,
		fieldCompleted:   true,
		fieldResultID:    resultID,
		fieldCompletedAt: encodeTime(at),
	}
	if err := s.doc.SetDocument(ctx, collectionLocks, windowKey, fields, true); err != nil {
		return crerr.Wrapf(err, "complete lock for window %s", windowKey)
	}
	return nil
}

func (s *Store) FailLock(ctx context.Context, windowKey, message string, at time.Time) error {
	fields := docstore.Document{
		fieldInProgress:  false,
		fieldCompleted:   false,
		fieldError:       message,
		fieldCompletedAt: encodeTime(at),
	}
	if err := s.doc.SetDocument(ctx, collectionLocks, windowKey, fields, true); err != nil {
		return crerr.Wrapf(err, "mark lock failed for window %s", windowKey)
	}
	return nil
}

func decodeTicket(key string, doc docstore.Document) ticket.Ticket {
	return ticket.Ticket{
		ID:           key,
		Numbers:      toStringSlice(doc[fieldNumbers]),
		UserID:       toString(doc[fieldUserID]),
		CreatedAt:    toTime(doc[fieldTimestamp]),
		IsFreeTicket: toBool(doc[fieldIsFreeTicket]),
		WonFrom:      toString(doc[fieldWonFrom]),
	}
}

func decodeLock(windowKey string, doc docstore.Document) draw.Lock {
	return draw.Lock{
		WindowKey:   windowKey,
		InProgress:  toBool(doc[fieldInProgress]),
		Completed:   toBool(doc[fieldCompleted]),
		Owner:       toString(doc[fieldOwner]),
		StartedAt:   toTime(doc[fieldStartedAt]),
		CompletedAt: toTime(doc[fieldCompletedAt]),
		ResultID:    toString(doc[fieldResultID]),
		Error:       toString(doc[fieldError]),
	}
}

func decodeResult(key string, doc docstore.Document) draw.Result {
	return draw.Result{
		ID:          key,
		WindowKey:   toString(doc[fieldMinuteKey]),
		Winning:     toStringSlice(doc[fieldWinningNumbers]),
		CreatedAt:   toTime(doc[fieldTimestamp]),
		FirstPrize:  decodeRefs(doc[fieldFirstPrize]),
		SecondPrize: decodeRefs(doc[fieldSecondPrize]),
		ThirdPrize:  decodeRefs(doc[fieldThirdPrize]),
		FreePrize:   decodeRefs(doc[fieldFreePrize]),
	}
}

func encodeRefs(refs []draw.TicketRef) []any {
	out := make([]any, 0, len(refs))
	for _, ref := range refs {
		out = append(out, map[string]any{
			fieldRefID:     ref.ID,
			fieldNumbers:   toAnySlice(ref.Numbers),
			fieldTimestamp: encodeTime(ref.CreatedAt),
			fieldUserID:    ref.UserID,
		})
	}
	return out
}

func decodeRefs(value any) []draw.TicketRef {
	items, ok := value.([]any)
	if !ok {
		return nil
	}

	out := make([]draw.TicketRef, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, draw.TicketRef{
			ID:        toString(fields[fieldRefID]),
			Numbers:   toStringSlice(fields[fieldNumbers]),
			UserID:    toString(fields[fieldUserID]),
			CreatedAt: toTime(fields[fieldTimestamp]),
		})
	}
	return out
}

// Timestamps persist as RFC3339Nano strings so memory- and jsonb-backed
// stores round-trip identically.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func toTime(value any) time.Time {
	switch v := value.(type) {
	case time.Time:
		return v.UTC()
	case string:
		if v == "" {
			return time.Time{}
		}
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return parsed.UTC()
	default:
		return time.Time{}
	}
}

func toString(value any) string {
	s, _ := value.(string)
	return s
}

func toBool(value any) bool {
	b, _ := value.(bool)
	return b
}

func toStringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil
			}
			out = append(out, s)
		}
		return out
	default:
		return nil
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
