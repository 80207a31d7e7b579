package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	"github.com/lottostack/draw-engine/internal/platform/logging"
	"github.com/lottostack/draw-engine/internal/usecase"
)

type countingSettler struct {
	calls atomic.Int64
}

func (s *countingSettler) Settle(context.Context, usecase.SettleInput) (draw.Outcome, error) {
	s.calls.Add(1)
	return draw.Outcome{Code: draw.OutcomeSettled, WindowKey: "w"}, nil
}

func TestCadenceTriggerFiresAndStops(t *testing.T) {
	t.Parallel()

	settler := &countingSettler{}
	trigger := NewCadenceTrigger(settler, nil, CadenceConfig{Cadence: 20 * time.Millisecond}, logging.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := trigger.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if settler.calls.Load() == 0 {
		t.Fatal("trigger never fired")
	}
}

func TestUntilNextFiringAlignsToBoundary(t *testing.T) {
	t.Parallel()

	trigger := NewCadenceTrigger(&countingSettler{}, nil, CadenceConfig{
		Cadence:   time.Minute,
		FireDelay: 2 * time.Second,
	}, logging.NewNop())
	trigger.now = func() time.Time {
		return time.Date(2026, 8, 31, 10, 15, 30, 0, time.UTC)
	}

	// 30s to the 10:16 boundary, plus the 2s fire delay.
	if got, want := trigger.untilNextFiring(), 32*time.Second; got != want {
		t.Fatalf("untilNextFiring = %s, want %s", got, want)
	}
}

func TestUntilNextFiringNeverNonPositive(t *testing.T) {
	t.Parallel()

	trigger := NewCadenceTrigger(&countingSettler{}, nil, CadenceConfig{Cadence: time.Minute}, logging.NewNop())
	trigger.now = func() time.Time {
		// Exactly on a boundary with no fire delay.
		return time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC)
	}

	if got := trigger.untilNextFiring(); got <= 0 {
		t.Fatalf("untilNextFiring = %s, want > 0", got)
	}
}
