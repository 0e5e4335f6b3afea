package repository

import (
	"context"
	"errors"

	"PivotPipe/internal/domain/models"
)

// ErrNoSymbolData is returned by store reads for symbols with no derived
// record from the current pre-market run.
var ErrNoSymbolData = errors.New("no derived data for symbol")

// ErrStepOutOfRange is returned when a ladder accessor is asked for a step
// outside the computed ladder.
var ErrStepOutOfRange = errors.New("ladder step out of range")

// DerivedStore persists derived records and snapshots and answers ladder
// lookups for the execution layer. Persist failures are logged and skipped
// by callers; they never abort a pre-market run.
type DerivedStore interface {
	PersistSymbolData(ctx context.Context, d *models.DerivedSymbolData) error
	PersistUniverseSnapshot(ctx context.Context, s *models.UniverseSnapshot) error
	PersistGapSnapshot(ctx context.Context, s *models.GapSnapshot) error

	GetSymbolData(ctx context.Context, symbol string) (*models.DerivedSymbolData, error)
	LatestUniverseSnapshot(ctx context.Context) (*models.UniverseSnapshot, error)
	LatestGapSnapshot(ctx context.Context) (*models.GapSnapshot, error)

	TargetByStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error)
	FlipForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error)
	// StopForStep returns prev_close mirrored around the target's
	// percentage offset: same magnitude, opposite sign.
	StopForStep(ctx context.Context, symbol string, step int, side models.Side) (float64, error)
}

// PrevDaySource supplies the previous-day OHLC table once per pre-market
// run. The table itself is produced outside this core (end-of-day feed).
type PrevDaySource interface {
	Load(ctx context.Context) (map[string]models.PrevDayOHLC, error)
}

// TickStream is a live market data connection.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// IntentSink forwards published intents to the downstream risk/execution
// layer.
type IntentSink interface {
	PublishIntent(ctx context.Context, intent models.IntentEvent) error
	Close() error
}

// CandleArchive stores closed candles for offline analysis and replay
// archives.
type CandleArchive interface {
	Init(ctx context.Context) error
	ArchiveCandle(ctx context.Context, c *models.Candle) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordTick(symbol string)
	RecordCandleClosed(symbol string)
	RecordSession(transition string)
	RecordIntent(strategy, symbol string)
	RecordError(kind string)
	RecordGap(symbol string, gapPct float64)
	RecordLatency(op string, seconds float64)
}
