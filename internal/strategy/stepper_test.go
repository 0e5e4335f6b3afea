package strategy

import (
	"testing"
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	internalrepo "PivotPipe/internal/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordTick(string)             {}
func (nopMetrics) RecordCandleClosed(string)     {}
func (nopMetrics) RecordSession(string)          {}
func (nopMetrics) RecordIntent(string, string)   {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordGap(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64) {}

type fixture struct {
	bus     *bus.Bus
	stepper *Stepper
	intents []models.IntentEvent
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{bus: bus.New()}
	clk := clock.NewReplay(time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC))
	f.stepper = New(f.bus, logger.Nop(), internalrepo.NewMemoryStore(), nopMetrics{}, clk, cfg)
	f.bus.Subscribe(bus.EventIntent, func(e bus.Event) {
		f.intents = append(f.intents, e.(events.IntentPublished).Intent)
	})
	return f
}

func gapsEvent(entries map[string]float64) events.GapsComputed {
	gaps := make(map[string]models.GapEntry, len(entries))
	for sym, pct := range entries {
		abs := pct
		if abs < 0 {
			abs = -abs
		}
		gaps[sym] = models.GapEntry{GapPct: pct, GapPctAbs: abs}
	}
	return events.GapsComputed{Snapshot: &models.GapSnapshot{Gaps: gaps}}
}

func TestStepperSelectsSmallestAbsoluteGap(t *testing.T) {
	f := newFixture(t, Config{StrategyID: "S1", AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"WIDE": 1.5, "NARROW": -0.5}))

	if len(f.intents) != 1 {
		t.Fatalf("expected one intent, got %d", len(f.intents))
	}
	in := f.intents[0]
	if in.Symbol != "NARROW" {
		t.Fatalf("expected the smallest absolute gap, got %q", in.Symbol)
	}
	if len(in.Triggers) != 2 {
		t.Fatalf("intent must carry both sides: %+v", in.Triggers)
	}
	if in.Triggers[0].Side == in.Triggers[1].Side {
		t.Fatalf("trigger sides must differ: %+v", in.Triggers)
	}
	if in.Triggers[0].StepIndex != 1 || in.Triggers[1].StepIndex != 1 {
		t.Fatalf("initial step must be 1: %+v", in.Triggers)
	}
	if in.IntentID == "" {
		t.Fatal("intent needs an id")
	}
}

func TestStepperTieBreaksLexicographically(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"ZEBRA": 0.5, "ALPHA": -0.5}))

	if f.intents[0].Symbol != "ALPHA" {
		t.Fatalf("equal gaps must break ties by symbol order, got %q", f.intents[0].Symbol)
	}
}

func TestStepperAdvancesOnMatchingFill(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"RELIANCE": 0.5}))
	first := f.intents[0]

	f.bus.Publish(events.OrderFilled{Fill: models.OrderFill{IntentID: first.IntentID}})

	if len(f.intents) != 2 {
		t.Fatalf("matching fill must publish the next step, got %d intents", len(f.intents))
	}
	second := f.intents[1]
	if second.Symbol != "RELIANCE" {
		t.Fatalf("progression must stay on the active symbol: %q", second.Symbol)
	}
	if second.Triggers[0].StepIndex != 2 {
		t.Fatalf("expected step 2, got %d", second.Triggers[0].StepIndex)
	}
	if second.IntentID == first.IntentID {
		t.Fatal("each step is a fresh intent, never a mutation")
	}
}

func TestStepperIgnoresNonMatchingFill(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"RELIANCE": 0.5}))
	f.bus.Publish(events.OrderFilled{Fill: models.OrderFill{IntentID: "someone-else"}})

	if len(f.intents) != 1 {
		t.Fatalf("foreign fill must not advance the ladder, got %d intents", len(f.intents))
	}
}

func TestStepperHaltsWithoutAutoAdvance(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: false})

	f.bus.Publish(gapsEvent(map[string]float64{"RELIANCE": 0.5}))
	f.bus.Publish(events.OrderFilled{Fill: models.OrderFill{IntentID: f.intents[0].IntentID}})

	if len(f.intents) != 1 {
		t.Fatalf("auto-advance off must halt progression, got %d intents", len(f.intents))
	}
}

func TestStepperDeactivatesOnSessionEnd(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"RELIANCE": 0.5}))
	active := f.intents[0].IntentID

	f.bus.Publish(events.SessionEnded{Context: models.SessionContext{SessionDate: "2026-01-02"}})

	// deactivation is terminal: neither fills nor new snapshots revive it
	f.bus.Publish(events.OrderFilled{Fill: models.OrderFill{IntentID: active}})
	f.bus.Publish(gapsEvent(map[string]float64{"RELIANCE": 0.5}))

	if len(f.intents) != 1 {
		t.Fatalf("deactivated strategy must stay silent, got %d intents", len(f.intents))
	}
}

func TestStepperRearmsOnNewSnapshotWhileActive(t *testing.T) {
	f := newFixture(t, Config{AutoAdvance: true})

	f.bus.Publish(gapsEvent(map[string]float64{"AAA": 0.5}))
	f.bus.Publish(events.OrderFilled{Fill: models.OrderFill{IntentID: f.intents[0].IntentID}})
	// a fresh snapshot re-arms at step 1, possibly on a new symbol
	f.bus.Publish(gapsEvent(map[string]float64{"BBB": 0.1, "AAA": 0.5}))

	last := f.intents[len(f.intents)-1]
	if last.Symbol != "BBB" || last.Triggers[0].StepIndex != 1 {
		t.Fatalf("expected re-arm at step 1 on BBB, got %+v", last)
	}
}

func TestSelectSymbolIsDeterministic(t *testing.T) {
	gaps := map[string]models.GapEntry{
		"C": {GapPctAbs: 0.3},
		"A": {GapPctAbs: 0.3},
		"B": {GapPctAbs: 0.9},
	}
	for i := 0; i < 50; i++ {
		if got := selectSymbol(gaps); got != "A" {
			t.Fatalf("selection must not depend on map iteration order, got %q", got)
		}
	}
}
