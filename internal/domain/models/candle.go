package models

import (
	"time"

	"PivotPipe/pkg/util"
)

// Candle is a fixed-interval OHLCV bar. The aggregator mutates it in place
// while its window is open; once emitted as closed it must be treated as
// immutable by every consumer.
type Candle struct {
	Symbol      string    `json:"symbol"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
}

// SessionDate returns the calendar date the candle belongs to,
// derived from its window start.
func (c *Candle) SessionDate() string {
	return util.SessionDate(c.WindowStart)
}
