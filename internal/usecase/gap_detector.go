package usecase

import (
	"context"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

// GapDetector computes gap-up/gap-down percentages for the tradable set at
// session open. When there are no tradables at all, nothing is emitted; a
// non-empty tradable set always yields exactly one snapshot, even when its
// gaps map ends up empty.
type GapDetector struct {
	bus     *bus.Bus
	log     *logger.Logger
	store   drepo.DerivedStore
	metrics drepo.Metrics

	tradable []string

	// first observed candle open per session date per symbol; the per-
	// symbol opening price for gap computation
	opens map[string]map[string]float64
}

// NewGapDetector creates the detector. It subscribes to universe snapshots
// (for the tradable set), candle updates (to observe each symbol's session
// open) and session starts; it must be registered after the derived
// computer so the tradable set is current when the session-start signal
// reaches it.
func NewGapDetector(b *bus.Bus, log *logger.Logger, store drepo.DerivedStore, metrics drepo.Metrics) *GapDetector {
	g := &GapDetector{
		bus:     b,
		log:     log,
		store:   store,
		metrics: metrics,
		opens:   make(map[string]map[string]float64),
	}
	b.Subscribe(bus.EventUniverseSnapshot, g.onUniverse)
	b.Subscribe(bus.EventCandleUpdated, g.onCandleUpdated)
	b.Subscribe(bus.EventSessionStarted, g.onSessionStarted)
	return g
}

func (g *GapDetector) onUniverse(e bus.Event) {
	snap := e.(events.UniverseComputed).Snapshot
	g.tradable = snap.TradableSymbols
}

func (g *GapDetector) onCandleUpdated(e bus.Event) {
	c := e.(events.CandleUpdated).Candle
	date := c.SessionDate()
	day := g.opens[date]
	if day == nil {
		day = make(map[string]float64)
		g.opens[date] = day
		g.prune(date)
	}
	if _, seen := day[c.Symbol]; !seen {
		day[c.Symbol] = c.Open
	}
}

// prune drops open tables for dates other than the current and the one
// before it, keeping the map bounded over long replays.
func (g *GapDetector) prune(current string) {
	if len(g.opens) <= 2 {
		return
	}
	prev := ""
	for d := range g.opens {
		if d < current && d > prev {
			prev = d
		}
	}
	for d := range g.opens {
		if d != current && d != prev {
			delete(g.opens, d)
		}
	}
}

func (g *GapDetector) onSessionStarted(e bus.Event) {
	ev := e.(events.SessionStarted)

	if len(g.tradable) == 0 {
		g.log.Info("no tradable symbols; gap snapshot suppressed",
			logger.String("session_date", ev.Context.SessionDate))
		return
	}

	ctx := context.Background()
	day := g.opens[ev.Context.SessionDate]
	gaps := make(map[string]models.GapEntry, len(g.tradable))

	for _, sym := range g.tradable {
		rec, err := g.store.GetSymbolData(ctx, sym)
		if err != nil {
			g.metrics.RecordError("gap_lookup")
			g.log.Warn("tradable symbol has no derived record",
				logger.String("symbol", sym), logger.Error(err))
			continue
		}
		open, ok := day[sym]
		if !ok {
			g.log.Warn("no session open observed yet for tradable symbol",
				logger.String("symbol", sym),
				logger.String("session_date", ev.Context.SessionDate))
			continue
		}

		// prev_close == 0 is an upstream data-contract violation and is
		// deliberately not defended against here
		gapPct := (open - rec.PrevClose) / rec.PrevClose * 100
		entry := models.GapEntry{
			PrevClose: rec.PrevClose,
			TodayOpen: open,
			GapPct:    gapPct,
			GapPctAbs: abs(gapPct),
		}
		gaps[sym] = entry
		g.metrics.RecordGap(sym, gapPct)
	}

	snap := &models.GapSnapshot{Timestamp: ev.Timestamp, Gaps: gaps}
	if err := g.store.PersistGapSnapshot(ctx, snap); err != nil {
		g.metrics.RecordError("persist_gap")
		g.log.Warn("gap snapshot persist failed", logger.Error(err))
	}

	g.log.Info("gap snapshot computed",
		logger.String("session_date", ev.Context.SessionDate),
		logger.Int("symbols", len(gaps)),
	)
	g.bus.Publish(events.GapsComputed{Snapshot: snap})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
