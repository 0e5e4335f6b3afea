package models

import "time"

// PrevDayOHLC is one row of the previous-day table supplied by the
// upstream end-of-day feed.
type PrevDayOHLC struct {
	High  float64 `json:"high" yaml:"high"`
	Low   float64 `json:"low" yaml:"low"`
	Close float64 `json:"close" yaml:"close"`
}

// DerivedSymbolData holds the per-symbol, per-session derived levels.
// Created once per pre-market run; never mutated afterwards. The next run
// supersedes the record wholesale, it is never merged.
type DerivedSymbolData struct {
	Symbol    string  `json:"symbol"`
	PrevHigh  float64 `json:"prev_high"`
	PrevLow   float64 `json:"prev_low"`
	PrevClose float64 `json:"prev_close"`

	Pivot       float64 `json:"pivot"`
	BC          float64 `json:"bc"`
	TC          float64 `json:"tc"`
	CPRWidthPct float64 `json:"cpr_width_pct"`

	// Ladders are absolute prices, 0-based; step 0 is prev_close itself.
	TargetRangePos []float64 `json:"target_range_pos"`
	TargetRangeNeg []float64 `json:"target_range_neg"`
	FlipRangePos   []float64 `json:"flip_range_pos"`
	FlipRangeNeg   []float64 `json:"flip_range_neg"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// TargetAt returns the target price at the given ladder step.
func (d *DerivedSymbolData) TargetAt(step int, side Side) (float64, bool) {
	return ladderAt(d.TargetRangePos, d.TargetRangeNeg, step, side)
}

// FlipAt returns the flip price at the given ladder step.
func (d *DerivedSymbolData) FlipAt(step int, side Side) (float64, bool) {
	return ladderAt(d.FlipRangePos, d.FlipRangeNeg, step, side)
}

// StopAt returns the stop paired with the target at the given step: the
// same percentage offset from prev_close, mirrored to the opposite sign.
func (d *DerivedSymbolData) StopAt(step int, side Side) (float64, bool) {
	return ladderAt(d.TargetRangePos, d.TargetRangeNeg, step, side.Opposite())
}

func ladderAt(pos, neg []float64, step int, side Side) (float64, bool) {
	arr := pos
	if side == SideShort {
		arr = neg
	}
	if step < 0 || step >= len(arr) {
		return 0, false
	}
	return arr[step], true
}

// UniverseSnapshot is the result of one pre-market run. History is
// append-only; snapshots are never edited in place.
type UniverseSnapshot struct {
	Timestamp time.Time `json:"timestamp"`

	EffectiveUniverse []string `json:"effective_universe"`
	// FilteredSymbols is ascending by CPR width; TradableSymbols is its
	// top-N prefix and preserves that order.
	FilteredSymbols    []string `json:"filtered_symbols"`
	TradableSymbols    []string `json:"tradable_symbols"`
	MissingPrevDayOHLC []string `json:"symbols_missing_prev_day_ohlc"`
}

// GapEntry holds the open-versus-previous-close gap for one symbol.
type GapEntry struct {
	PrevClose float64 `json:"prev_close"`
	TodayOpen float64 `json:"today_open"`
	GapPct    float64 `json:"gap_pct"`
	GapPctAbs float64 `json:"gap_pct_abs"`
}

// GapSnapshot is emitted once per session open, covering the tradable set.
// An empty Gaps map is a valid snapshot and is still emitted.
type GapSnapshot struct {
	Timestamp time.Time           `json:"timestamp"`
	Gaps      map[string]GapEntry `json:"gaps"`
}
