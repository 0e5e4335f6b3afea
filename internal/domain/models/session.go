package models

import "time"

// SessionContext is an immutable snapshot of one trading session.
// A new instance is created at every session transition; the detector fills
// in SessionEnd on its working copy and freezes it before the end signal
// fires. Consumers never mutate a received context.
type SessionContext struct {
	SessionDate  string     `json:"session_date"` // YYYY-MM-DD
	SessionStart time.Time  `json:"session_start_ts"`
	SessionEnd   *time.Time `json:"session_end_ts,omitempty"` // nil until the session ends

	TodayOpen float64 `json:"today_open"`

	// Previous session's finalized OHLC, carried forward from the rolling
	// accumulator of the session that just ended.
	PrevDayOpen  float64 `json:"prev_day_open"`
	PrevDayHigh  float64 `json:"prev_day_high"`
	PrevDayLow   float64 `json:"prev_day_low"`
	PrevDayClose float64 `json:"prev_day_close"`
}
