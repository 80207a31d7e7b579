package trigger

import (
	"context"
	"time"

	"github.com/lottostack/draw-engine/internal/domain/draw"
	idgen "github.com/lottostack/draw-engine/internal/platform/id"
	"github.com/lottostack/draw-engine/internal/platform/logging"
	"github.com/lottostack/draw-engine/internal/usecase"
)

// Settler runs one settlement attempt for the current window.
type Settler interface {
	Settle(ctx context.Context, input usecase.SettleInput) (draw.Outcome, error)
}

type CadenceConfig struct {
	// Cadence is the draw period. Firings align to period boundaries so
	// every replica targets the same window.
	Cadence time.Duration
	// FireDelay pushes each firing slightly past the boundary so tickets
	// submitted at the boundary instant land in a settled window.
	FireDelay time.Duration
}

func (c *CadenceConfig) applyDefaults() {
	if c.Cadence <= 0 {
		c.Cadence = time.Minute
	}
	if c.FireDelay < 0 {
		c.FireDelay = 0
	}
}

// CadenceTrigger invokes the settler once per draw period. It is safe to run
// one trigger per replica; window claiming keeps settlement exactly-once.
type CadenceTrigger struct {
	settler Settler
	ids     idgen.Generator
	cfg     CadenceConfig
	logger  *logging.Logger
	now     func() time.Time
}

func NewCadenceTrigger(settler Settler, ids idgen.Generator, cfg CadenceConfig, logger *logging.Logger) *CadenceTrigger {
	cfg.applyDefaults()
	if ids == nil {
		ids = idgen.NewRandomGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &CadenceTrigger{
		settler: settler,
		ids:     ids,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled, firing a settlement attempt after each
// period boundary.
func (t *CadenceTrigger) Run(ctx context.Context) error {
	t.logger.InfoContext(ctx, "cadence trigger starting",
		"cadence", t.cfg.Cadence.String(),
		"fire_delay", t.cfg.FireDelay.String(),
	)

	timer := time.NewTimer(t.untilNextFiring())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("cadence trigger stopped")
			return ctx.Err()
		case <-timer.C:
			t.fire(ctx)
			timer.Reset(t.untilNextFiring())
		}
	}
}

func (t *CadenceTrigger) fire(ctx context.Context) {
	invocationID, err := t.ids.NewID()
	if err != nil {
		invocationID = "cadence"
	}

	outcome, err := t.settler.Settle(ctx, usecase.SettleInput{InvocationID: invocationID})
	if err != nil {
		t.logger.ErrorContext(ctx, "scheduled settlement failed",
			"invocation_id", invocationID,
			"window_key", outcome.WindowKey,
			"error", err,
		)
		return
	}

	t.logger.InfoContext(ctx, "scheduled settlement finished",
		"invocation_id", invocationID,
		"window_key", outcome.WindowKey,
		"outcome", string(outcome.Code),
		"result_id", outcome.ResultID,
	)
}

func (t *CadenceTrigger) untilNextFiring() time.Duration {
	now := t.now().UTC()
	next := draw.WindowStart(now, t.cfg.Cadence).Add(t.cfg.Cadence).Add(t.cfg.FireDelay)
	wait := next.Sub(now)
	if wait <= 0 {
		wait = t.cfg.Cadence
	}

	return wait
}
