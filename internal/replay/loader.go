// Package replay feeds recorded or synthetic ticks into the pipeline.
// Replay drives the clock from recorded timestamps, so every downstream
// computation sees exactly the time it would have seen live.
package replay

import (
	"bufio"
	"encoding/json"
	"io"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

// Loader replays a tick archive (one JSON tick per line) into the bus.
type Loader struct {
	scanner *bufio.Scanner
	bus     *bus.Bus
	clk     *clock.Replay
	log     *logger.Logger
	count   int
}

// NewLoader creates a loader over a JSON-lines tick archive.
func NewLoader(r io.Reader, b *bus.Bus, clk *clock.Replay, log *logger.Logger) *Loader {
	return &Loader{
		scanner: bufio.NewScanner(r),
		bus:     b,
		clk:     clk,
		log:     log,
	}
}

// Next replays one tick. Returns false when the archive is exhausted.
// Malformed lines are logged and skipped.
func (l *Loader) Next() bool {
	for l.scanner.Scan() {
		line := l.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var tick models.Tick
		if err := json.Unmarshal(line, &tick); err != nil {
			l.log.Warn("malformed replay line skipped", logger.Error(err))
			continue
		}

		// the recorded timestamp drives the clock before anything reacts
		l.clk.Set(tick.Timestamp)
		l.bus.Publish(events.TickReceived{Tick: tick})
		l.count++
		return true
	}
	l.log.Info("replay finished", logger.Int("ticks", l.count))
	return false
}

// Run replays the whole archive and returns the tick count.
func (l *Loader) Run() int {
	for l.Next() {
	}
	return l.count
}
