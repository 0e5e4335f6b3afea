package models

import "time"

// Tick is a single trade print for one instrument. Ticks must arrive
// non-decreasing in timestamp per symbol; the pipeline does not defend
// against out-of-order input.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}
