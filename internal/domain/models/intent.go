package models

import "time"

// Side of a trigger, explicit rather than a signed step index.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

// TriggerSpec is a single conditional trigger inside an intent.
type TriggerSpec struct {
	Side           Side       `json:"side"`
	StepIndex      int        `json:"step_index"` // 1-based
	TimeoutSeconds int        `json:"timeout_seconds"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	Priority       int        `json:"priority"`
}

// IntentEvent is a strategy's declared intention to trigger on either side
// of the price ladder. Immutable once published; advancing a step creates
// a new intent, it never mutates the previous one.
type IntentEvent struct {
	IntentID    string        `json:"intent_id"`
	StrategyID  string        `json:"strategy_id"`
	Symbol      string        `json:"symbol"`
	Triggers    []TriggerSpec `json:"triggers"` // always both sides for a step
	AutoAdvance bool          `json:"auto_advance"`
	CreatedAt   time.Time     `json:"created_at"`
	SessionDate string        `json:"session_date,omitempty"`
}

// OrderFill is the canonical fill acknowledgement shape. IntentID is
// required; fills without one are rejected rather than shape-probed.
type OrderFill struct {
	IntentID  string    `json:"intent_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	Side      Side      `json:"side,omitempty"`
	Qty       float64   `json:"qty,omitempty"`
	Price     float64   `json:"price,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
