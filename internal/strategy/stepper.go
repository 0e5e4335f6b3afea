// Package strategy contains the step-ladder intent strategy. It consumes
// gap snapshots and fill acknowledgements and emits order intents; it never
// reads the tick stream, places orders, or applies risk rules.
package strategy

import (
	"sort"

	"github.com/google/uuid"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

// Config holds the stepper's static parameters.
type Config struct {
	StrategyID         string
	AutoAdvance        bool
	FlipTimeoutSeconds int
}

// Stepper is a state machine over three logical states: idle (no active
// symbol), armed (published intent awaiting fill) and deactivated
// (terminal, entered on session end). It selects the symbol with the
// smallest absolute gap, publishes one dual-sided intent per step, and
// advances the 1-based step index on each matching fill.
type Stepper struct {
	bus     *bus.Bus
	log     *logger.Logger
	store   drepo.DerivedStore
	metrics drepo.Metrics
	clk     clock.Clock
	cfg     Config

	activeSymbol   string
	stepIndex      int
	activeIntentID string
	active         bool
}

// NewStepper creates the strategy and wires it to gap snapshots, order
// fills and session ends.
func NewStepper(b *bus.Bus, log *logger.Logger, store drepo.DerivedStore, metrics drepo.Metrics, clk clock.Clock, cfg Config) *Stepper {
	if cfg.StrategyID == "" {
		cfg.StrategyID = "STEPPER"
	}
	if cfg.FlipTimeoutSeconds <= 0 {
		cfg.FlipTimeoutSeconds = 60
	}
	s := &Stepper{
		bus:     b,
		log:     log,
		store:   store,
		metrics: metrics,
		clk:     clk,
		cfg:     cfg,
		active:  true,
	}
	b.Subscribe(bus.EventGapSnapshot, s.onGapSnapshot)
	b.Subscribe(bus.EventOrderFill, s.onOrderFill)
	b.Subscribe(bus.EventSessionEnded, s.onSessionEnded)
	log.Info("stepper strategy initialized", logger.String("strategy_id", cfg.StrategyID))
	return s
}

func (s *Stepper) onGapSnapshot(e bus.Event) {
	if !s.active {
		s.log.Info("gap snapshot ignored; strategy deactivated")
		return
	}
	snap := e.(events.GapsComputed).Snapshot
	if len(snap.Gaps) == 0 {
		s.log.Info("gap snapshot empty; no symbol selected")
		return
	}

	chosen := selectSymbol(snap.Gaps)
	s.activeSymbol = chosen
	s.stepIndex = 1
	s.publishIntent(s.buildIntent(chosen, s.stepIndex))
}

// selectSymbol picks the minimum absolute gap. Ties break by lexicographic
// symbol order so the choice never depends on map iteration order.
func selectSymbol(gaps map[string]models.GapEntry) string {
	symbols := make([]string, 0, len(gaps))
	for sym := range gaps {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	best := symbols[0]
	for _, sym := range symbols[1:] {
		if gaps[sym].GapPctAbs < gaps[best].GapPctAbs {
			best = sym
		}
	}
	return best
}

func (s *Stepper) onOrderFill(e bus.Event) {
	if !s.active || s.activeIntentID == "" {
		return
	}
	fill := e.(events.OrderFilled).Fill
	if fill.IntentID == "" {
		s.log.Warn("fill without intent_id rejected",
			logger.String("order_id", fill.OrderID))
		return
	}
	if fill.IntentID != s.activeIntentID {
		return
	}

	if !s.cfg.AutoAdvance {
		s.log.Info("fill matched active intent; auto-advance disabled, progression halted",
			logger.String("intent_id", fill.IntentID))
		return
	}

	s.stepIndex++
	s.publishIntent(s.buildIntent(s.activeSymbol, s.stepIndex))
}

func (s *Stepper) onSessionEnded(e bus.Event) {
	// terminal: a new strategy instance is required per session
	s.active = false
	prev := s.activeSymbol
	s.activeSymbol = ""
	s.activeIntentID = ""
	s.log.Info("session ended; strategy deactivated",
		logger.String("previous_symbol", prev))
}

func (s *Stepper) buildIntent(symbol string, stepIndex int) models.IntentEvent {
	triggers := []models.TriggerSpec{
		{Side: models.SideLong, StepIndex: stepIndex, TimeoutSeconds: s.cfg.FlipTimeoutSeconds},
		{Side: models.SideShort, StepIndex: stepIndex, TimeoutSeconds: s.cfg.FlipTimeoutSeconds},
	}
	return models.IntentEvent{
		IntentID:    uuid.NewString(),
		StrategyID:  s.cfg.StrategyID,
		Symbol:      symbol,
		Triggers:    triggers,
		AutoAdvance: s.cfg.AutoAdvance,
		CreatedAt:   s.clk.Now(),
	}
}

// publishIntent records the intent as active before publishing: dispatch is
// synchronous, so a subscriber may acknowledge a fill within the Publish
// call itself.
func (s *Stepper) publishIntent(intent models.IntentEvent) {
	s.activeIntentID = intent.IntentID
	s.metrics.RecordIntent(intent.StrategyID, intent.Symbol)
	s.log.Info("intent published",
		logger.String("intent_id", intent.IntentID),
		logger.String("symbol", intent.Symbol),
		logger.Int("step_index", intent.Triggers[0].StepIndex),
	)
	s.bus.Publish(events.IntentPublished{Intent: intent})
}
