package repository

import (
	"context"
	"errors"
	"math"
	"testing"

	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
)

func testRecord() *models.DerivedSymbolData {
	// prev_close 100, 0.25% target steps, two flip steps
	return &models.DerivedSymbolData{
		Symbol:         "RELIANCE",
		PrevClose:      100,
		TargetRangePos: []float64{100, 100.25, 100.50},
		TargetRangeNeg: []float64{100, 99.75, 99.50},
		FlipRangePos:   []float64{100, 100.02},
		FlipRangeNeg:   []float64{100, 99.98},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetSymbolData(ctx, "RELIANCE"); !errors.Is(err, drepo.ErrNoSymbolData) {
		t.Fatalf("expected ErrNoSymbolData, got %v", err)
	}

	if err := s.PersistSymbolData(ctx, testRecord()); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetSymbolData(ctx, "RELIANCE")
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "RELIANCE" {
		t.Fatalf("wrong record %+v", got)
	}
}

func TestRecordsSupersedeNotMerge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.PersistSymbolData(ctx, testRecord()); err != nil {
		t.Fatal(err)
	}
	next := testRecord()
	next.PrevClose = 200
	next.FlipRangePos = nil
	if err := s.PersistSymbolData(ctx, next); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetSymbolData(ctx, "RELIANCE")
	if err != nil {
		t.Fatal(err)
	}
	if got.PrevClose != 200 || got.FlipRangePos != nil {
		t.Fatalf("record must be replaced wholesale: %+v", got)
	}
}

func TestLadderAccessors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.PersistSymbolData(ctx, testRecord()); err != nil {
		t.Fatal(err)
	}

	target, err := s.TargetByStep(ctx, "RELIANCE", 1, models.SideLong)
	if err != nil {
		t.Fatal(err)
	}
	if target != 100.25 {
		t.Fatalf("long target step 1 wrong: %v", target)
	}

	flip, err := s.FlipForStep(ctx, "RELIANCE", 1, models.SideShort)
	if err != nil {
		t.Fatal(err)
	}
	if flip != 99.98 {
		t.Fatalf("short flip step 1 wrong: %v", flip)
	}
}

func TestStopMirrorsTargetOffset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.PersistSymbolData(ctx, testRecord()); err != nil {
		t.Fatal(err)
	}

	// a long at +0.25% stops at -0.25%, and vice versa
	stopLong, err := s.StopForStep(ctx, "RELIANCE", 1, models.SideLong)
	if err != nil {
		t.Fatal(err)
	}
	if stopLong != 99.75 {
		t.Fatalf("long stop wrong: %v", stopLong)
	}
	stopShort, err := s.StopForStep(ctx, "RELIANCE", 1, models.SideShort)
	if err != nil {
		t.Fatal(err)
	}
	if stopShort != 100.25 {
		t.Fatalf("short stop wrong: %v", stopShort)
	}

	target, _ := s.TargetByStep(ctx, "RELIANCE", 1, models.SideLong)
	if math.Abs((target-100)+(stopLong-100)) > 1e-9 {
		t.Fatalf("stop must mirror the target offset: target=%v stop=%v", target, stopLong)
	}
}

func TestStepOutOfRange(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.PersistSymbolData(ctx, testRecord()); err != nil {
		t.Fatal(err)
	}

	if _, err := s.TargetByStep(ctx, "RELIANCE", 3, models.SideLong); !errors.Is(err, drepo.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange, got %v", err)
	}
	if _, err := s.FlipForStep(ctx, "RELIANCE", 2, models.SideLong); !errors.Is(err, drepo.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange for flip, got %v", err)
	}
	if _, err := s.TargetByStep(ctx, "RELIANCE", -1, models.SideLong); !errors.Is(err, drepo.ErrStepOutOfRange) {
		t.Fatalf("expected ErrStepOutOfRange for negative step, got %v", err)
	}
}

func TestSnapshotHistoryKeepsLatest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.LatestUniverseSnapshot(ctx); err == nil {
		t.Fatal("empty history must error")
	}

	first := &models.UniverseSnapshot{TradableSymbols: []string{"A"}}
	second := &models.UniverseSnapshot{TradableSymbols: []string{"B"}}
	if err := s.PersistUniverseSnapshot(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.PersistUniverseSnapshot(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.LatestUniverseSnapshot(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TradableSymbols) != 1 || got.TradableSymbols[0] != "B" {
		t.Fatalf("latest snapshot wrong: %+v", got)
	}
}
