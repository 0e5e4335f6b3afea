// Package events defines the concrete payloads routed through the bus.
// One struct per EventKind; payloads are snapshots and must not be mutated
// by consumers.
package events

import (
	"time"

	"PivotPipe/internal/domain/models"
	"PivotPipe/pkg/bus"
)

// TickReceived carries one raw tick into the pipeline.
type TickReceived struct {
	Tick models.Tick
}

func (TickReceived) Kind() bus.EventKind { return bus.EventTick }

// CandleUpdated fires on every tick, after the open candle absorbed it.
type CandleUpdated struct {
	Candle *models.Candle
}

func (CandleUpdated) Kind() bus.EventKind { return bus.EventCandleUpdated }

// CandleClosed fires exactly once per candle, the instant its window
// elapses. The candle is immutable from this point on.
type CandleClosed struct {
	Candle *models.Candle
}

func (CandleClosed) Kind() bus.EventKind { return bus.EventCandleClosed }

// SessionStarted fires once at each session open with a frozen context.
type SessionStarted struct {
	Timestamp time.Time
	Context   models.SessionContext
}

func (SessionStarted) Kind() bus.EventKind { return bus.EventSessionStarted }

// SessionEnded fires once at each session close. The attached context has
// its end timestamp and finalized previous-day OHLC filled in.
type SessionEnded struct {
	Timestamp time.Time
	Context   models.SessionContext
}

func (SessionEnded) Kind() bus.EventKind { return bus.EventSessionEnded }

// UniverseComputed carries the result of a pre-market run.
type UniverseComputed struct {
	Snapshot *models.UniverseSnapshot
}

func (UniverseComputed) Kind() bus.EventKind { return bus.EventUniverseSnapshot }

// GapsComputed carries the session-open gap snapshot for the tradable set.
type GapsComputed struct {
	Snapshot *models.GapSnapshot
}

func (GapsComputed) Kind() bus.EventKind { return bus.EventGapSnapshot }

// IntentPublished carries one immutable strategy intent.
type IntentPublished struct {
	Intent models.IntentEvent
}

func (IntentPublished) Kind() bus.EventKind { return bus.EventIntent }

// IntentApproved, IntentRejected and IntentExpired are the downstream risk
// layer's lifecycle responses. The core produces the intent contract and
// consumes fills; these kinds exist so that layer can share the bus.
type IntentApproved struct {
	Intent     models.IntentEvent
	ApprovedBy string
	ApprovedAt time.Time
}

func (IntentApproved) Kind() bus.EventKind { return bus.EventIntentApproved }

type IntentRejected struct {
	Intent     models.IntentEvent
	Reason     string
	RejectedAt time.Time
}

func (IntentRejected) Kind() bus.EventKind { return bus.EventIntentRejected }

type IntentExpired struct {
	Intent    models.IntentEvent
	Reason    string
	ExpiredAt time.Time
}

func (IntentExpired) Kind() bus.EventKind { return bus.EventIntentExpired }

// OrderFilled is the canonical fill acknowledgement event.
type OrderFilled struct {
	Fill models.OrderFill
}

func (OrderFilled) Kind() bus.EventKind { return bus.EventOrderFill }
