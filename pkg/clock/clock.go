// Package clock abstracts the time source so live and replay ingestion
// share identical pipeline code. Every timestamp a component attaches to
// its output comes from a Clock, never from the wall clock directly.
package clock

import "time"

// Clock supplies the current pipeline time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock. Used for live ingestion.
type Real struct{}

// NewReal creates a system-clock source.
func NewReal() *Real { return &Real{} }

func (*Real) Now() time.Time { return time.Now() }

// Replay is a controlled clock for backtesting. Time advances only when
// explicitly set or advanced, typically from recorded tick timestamps.
type Replay struct {
	current time.Time
}

// NewReplay creates a replay clock starting at the given instant.
func NewReplay(start time.Time) *Replay {
	return &Replay{current: start}
}

func (r *Replay) Now() time.Time { return r.current }

// Set jumps the clock to the given instant.
func (r *Replay) Set(t time.Time) { r.current = t }

// Advance moves the clock forward by d.
func (r *Replay) Advance(d time.Duration) { r.current = r.current.Add(d) }
