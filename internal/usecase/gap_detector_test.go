package usecase

import (
	"context"
	"testing"
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	internalrepo "PivotPipe/internal/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

func seedDerived(t *testing.T, store *internalrepo.MemoryStore, sym string, prevClose float64) {
	t.Helper()
	err := store.PersistSymbolData(context.Background(), &models.DerivedSymbolData{
		Symbol:    sym,
		PrevClose: prevClose,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGapComputation(t *testing.T) {
	b := bus.New()
	store := internalrepo.NewMemoryStore()
	NewGapDetector(b, logger.Nop(), store, nopMetrics{})
	rec := record(b, bus.EventGapSnapshot)

	seedDerived(t, store, "RELIANCE", 105)

	b.Publish(events.UniverseComputed{Snapshot: &models.UniverseSnapshot{
		TradableSymbols: []string{"RELIANCE"},
	}})

	start := time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)
	b.Publish(events.CandleUpdated{Candle: &models.Candle{
		Symbol:      "RELIANCE",
		WindowStart: start,
		Open:        110.25,
	}})
	b.Publish(events.SessionStarted{
		Timestamp: start,
		Context:   models.SessionContext{SessionDate: "2026-01-02"},
	})

	if len(rec.events) != 1 {
		t.Fatalf("expected one gap snapshot, got %d", len(rec.events))
	}
	snap := rec.events[0].(events.GapsComputed).Snapshot
	entry, ok := snap.Gaps["RELIANCE"]
	if !ok {
		t.Fatalf("missing gap entry: %+v", snap.Gaps)
	}
	if !almostEqual(entry.GapPct, 5.0) || !almostEqual(entry.GapPctAbs, 5.0) {
		t.Fatalf("gap pct wrong: %+v", entry)
	}
	if entry.PrevClose != 105 || entry.TodayOpen != 110.25 {
		t.Fatalf("gap inputs wrong: %+v", entry)
	}

	stored, err := store.LatestGapSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Gaps) != 1 {
		t.Fatalf("snapshot not persisted: %+v", stored)
	}
}

func TestGapSnapshotSuppressedWithoutTradables(t *testing.T) {
	b := bus.New()
	store := internalrepo.NewMemoryStore()
	NewGapDetector(b, logger.Nop(), store, nopMetrics{})
	rec := record(b, bus.EventGapSnapshot)

	b.Publish(events.SessionStarted{
		Timestamp: time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC),
		Context:   models.SessionContext{SessionDate: "2026-01-02"},
	})

	if len(rec.events) != 0 {
		t.Fatal("no tradables means no snapshot at all")
	}
}

func TestGapOmitsSymbolsWithoutDataButStillEmits(t *testing.T) {
	b := bus.New()
	store := internalrepo.NewMemoryStore()
	NewGapDetector(b, logger.Nop(), store, nopMetrics{})
	rec := record(b, bus.EventGapSnapshot)

	// GOOD has a derived record and an observed open; NOREC has no derived
	// record; NOOPEN has a record but no candle seen yet this session
	seedDerived(t, store, "GOOD", 100)
	seedDerived(t, store, "NOOPEN", 100)

	b.Publish(events.UniverseComputed{Snapshot: &models.UniverseSnapshot{
		TradableSymbols: []string{"GOOD", "NOREC", "NOOPEN"},
	}})
	start := time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)
	b.Publish(events.CandleUpdated{Candle: &models.Candle{
		Symbol:      "GOOD",
		WindowStart: start,
		Open:        101,
	}})
	b.Publish(events.SessionStarted{
		Timestamp: start,
		Context:   models.SessionContext{SessionDate: "2026-01-02"},
	})

	if len(rec.events) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(rec.events))
	}
	snap := rec.events[0].(events.GapsComputed).Snapshot
	if len(snap.Gaps) != 1 {
		t.Fatalf("only fully-resolved symbols belong in the snapshot: %+v", snap.Gaps)
	}
	if _, ok := snap.Gaps["GOOD"]; !ok {
		t.Fatalf("GOOD missing from snapshot: %+v", snap.Gaps)
	}
}

func TestGapUsesFirstObservedOpenPerDate(t *testing.T) {
	b := bus.New()
	store := internalrepo.NewMemoryStore()
	NewGapDetector(b, logger.Nop(), store, nopMetrics{})
	rec := record(b, bus.EventGapSnapshot)

	seedDerived(t, store, "X", 100)
	b.Publish(events.UniverseComputed{Snapshot: &models.UniverseSnapshot{
		TradableSymbols: []string{"X"},
	}})

	start := time.Date(2026, 1, 2, 9, 15, 0, 0, time.UTC)
	// two updates on the same date: the first open wins
	b.Publish(events.CandleUpdated{Candle: &models.Candle{Symbol: "X", WindowStart: start, Open: 102}})
	b.Publish(events.CandleUpdated{Candle: &models.Candle{Symbol: "X", WindowStart: start.Add(time.Minute), Open: 103}})
	b.Publish(events.SessionStarted{
		Timestamp: start,
		Context:   models.SessionContext{SessionDate: "2026-01-02"},
	})

	snap := rec.events[0].(events.GapsComputed).Snapshot
	if got := snap.Gaps["X"].TodayOpen; got != 102 {
		t.Fatalf("expected first observed open 102, got %v", got)
	}
}
