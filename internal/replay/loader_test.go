package replay

import (
	"strings"
	"testing"
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

func TestLoaderReplaysArchiveAndDrivesClock(t *testing.T) {
	archive := strings.Join([]string{
		`{"symbol":"RELIANCE","price":100,"volume":1,"timestamp":"2026-01-02T09:15:10Z"}`,
		`not valid json`,
		``,
		`{"symbol":"RELIANCE","price":101,"volume":2,"timestamp":"2026-01-02T09:15:40Z"}`,
	}, "\n")

	b := bus.New()
	clk := clock.NewReplay(time.Time{})
	var prices []float64
	b.Subscribe(bus.EventTick, func(e bus.Event) {
		tick := e.(events.TickReceived).Tick
		prices = append(prices, tick.Price)
		// the clock is already at the tick's timestamp when handlers run
		if !clk.Now().Equal(tick.Timestamp) {
			t.Fatalf("clock %v does not match tick %v", clk.Now(), tick.Timestamp)
		}
	})

	l := NewLoader(strings.NewReader(archive), b, clk, logger.Nop())
	if n := l.Run(); n != 2 {
		t.Fatalf("expected 2 replayed ticks, got %d", n)
	}
	if len(prices) != 2 || prices[0] != 100 || prices[1] != 101 {
		t.Fatalf("unexpected tick sequence %v", prices)
	}

	want := time.Date(2026, 1, 2, 9, 15, 40, 0, time.UTC)
	if !clk.Now().Equal(want) {
		t.Fatalf("clock should rest at the last tick, got %v", clk.Now())
	}
}

func TestLoaderNextStopsAtEOF(t *testing.T) {
	b := bus.New()
	l := NewLoader(strings.NewReader(""), b, clock.NewReplay(time.Time{}), logger.Nop())
	if l.Next() {
		t.Fatal("empty archive should report exhaustion")
	}
}
