package usecase

import (
	"encoding/json"
	"testing"
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

func closedCandle(sym string, start time.Time, o, h, l, c float64) *models.Candle {
	return &models.Candle{
		Symbol:      sym,
		WindowStart: start,
		WindowEnd:   start.Add(time.Minute),
		Open:        o,
		High:        h,
		Low:         l,
		Close:       c,
		Volume:      1,
	}
}

func runSessionSequence(t *testing.T) []bus.Event {
	t.Helper()
	b := bus.New()
	NewSessionDetector(b, logger.Nop(), nopMetrics{}, "")
	rec := record(b, bus.EventSessionStarted, bus.EventSessionEnded)

	day1 := time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)
	day2 := time.Date(2026, 1, 3, 9, 15, 0, 0, time.UTC)

	b.Publish(events.CandleClosed{Candle: closedCandle("NIFTY", day1, 100, 102, 99, 101)})
	b.Publish(events.CandleClosed{Candle: closedCandle("NIFTY", day1.Add(time.Minute), 101, 105, 101, 104)})
	b.Publish(events.CandleClosed{Candle: closedCandle("NIFTY", day2, 106, 107, 105, 106)})
	return rec.events
}

func TestSessionBoundaries(t *testing.T) {
	got := runSessionSequence(t)

	if len(got) != 3 {
		t.Fatalf("expected started, ended, started; got %d events", len(got))
	}

	first, ok := got[0].(events.SessionStarted)
	if !ok {
		t.Fatalf("event 0: %T", got[0])
	}
	if first.Context.SessionDate != "2026-01-02" {
		t.Fatalf("wrong first session date %q", first.Context.SessionDate)
	}
	// bootstrap seeds prev-day from the first candle itself
	if first.Context.PrevDayHigh != 102 || first.Context.PrevDayLow != 99 {
		t.Fatalf("bootstrap prev-day wrong: %+v", first.Context)
	}

	ended, ok := got[1].(events.SessionEnded)
	if !ok {
		t.Fatalf("event 1: %T", got[1])
	}
	if ended.Context.SessionEnd == nil {
		t.Fatal("ended session must carry its end timestamp")
	}
	day1last := time.Date(2026, 1, 2, 9, 16, 0, 0, time.UTC)
	if !ended.Context.SessionEnd.Equal(day1last) {
		t.Fatalf("session end should be the last candle's window start, got %v", ended.Context.SessionEnd)
	}

	second, ok := got[2].(events.SessionStarted)
	if !ok {
		t.Fatalf("event 2: %T", got[2])
	}
	if second.Context.SessionDate != "2026-01-03" {
		t.Fatalf("wrong second session date %q", second.Context.SessionDate)
	}
	// prev-day OHLC is the finalized rolling accumulation of day one
	if second.Context.PrevDayOpen != 100 || second.Context.PrevDayHigh != 105 ||
		second.Context.PrevDayLow != 99 || second.Context.PrevDayClose != 104 {
		t.Fatalf("finalized prev-day wrong: %+v", second.Context)
	}
	if second.Context.TodayOpen != 106 {
		t.Fatalf("today open wrong: %v", second.Context.TodayOpen)
	}
}

func TestSessionDetectionIsDeterministic(t *testing.T) {
	a, err := json.Marshal(runSessionSequence(t))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(runSessionSequence(t))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("identical candle sequences must produce identical signal sequences")
	}
}

func TestSessionDriverSymbolFilter(t *testing.T) {
	b := bus.New()
	NewSessionDetector(b, logger.Nop(), nopMetrics{}, "NIFTY")
	rec := record(b, bus.EventSessionStarted)

	day1 := time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)
	b.Publish(events.CandleClosed{Candle: closedCandle("OTHER", day1, 1, 1, 1, 1)})
	if len(rec.events) != 0 {
		t.Fatal("non-driver candle must not open a session")
	}
	b.Publish(events.CandleClosed{Candle: closedCandle("NIFTY", day1, 100, 102, 99, 101)})
	if len(rec.events) != 1 {
		t.Fatalf("driver candle should open the session, got %d events", len(rec.events))
	}
}
