package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

// UniverseConfig is the explicit per-run configuration for a pre-market
// computation. It is passed into every run; there is no ambient
// process-wide universe state.
type UniverseConfig struct {
	// Symbols is the configured universe list. Its order is the
	// deterministic tie-break for every stable sort downstream.
	Symbols []string
	// Omitted symbols are removed from the universe before computation.
	Omitted []string

	// ThresholdPct filters by CPR width; TopN caps the tradable set.
	ThresholdPct float64
	TopN         int

	// Target ladder: uniform percentage steps up to TargetMaxPct.
	TargetStepPct float64
	TargetMaxPct  float64
	// Flip ladder: fixed, non-uniform percentage steps.
	FlipStepsPct []float64
}

// DerivedComputer turns the previous-day OHLC table into per-symbol pivot
// levels, target/flip ladders and the tradability ranking. RunPreMarket is
// idempotent: identical configuration and table produce bit-identical
// output across invocations.
type DerivedComputer struct {
	bus     *bus.Bus
	log     *logger.Logger
	store   drepo.DerivedStore
	metrics drepo.Metrics
	clk     clock.Clock
	source  drepo.PrevDaySource
	cfg     UniverseConfig
}

// NewDerivedComputer creates the computer and subscribes it to session
// starts. It must be registered before the gap detector so that synchronous
// dispatch guarantees derived records exist when gaps are computed.
func NewDerivedComputer(
	b *bus.Bus,
	log *logger.Logger,
	store drepo.DerivedStore,
	metrics drepo.Metrics,
	clk clock.Clock,
	source drepo.PrevDaySource,
	cfg UniverseConfig,
) *DerivedComputer {
	c := &DerivedComputer{
		bus:     b,
		log:     log,
		store:   store,
		metrics: metrics,
		clk:     clk,
		source:  source,
		cfg:     cfg,
	}
	b.Subscribe(bus.EventSessionStarted, c.onSessionStarted)
	return c
}

func (c *DerivedComputer) onSessionStarted(e bus.Event) {
	if c.source == nil {
		c.log.Warn("no previous-day source configured; skipping pre-market run")
		return
	}
	ctx := context.Background()
	table, err := c.source.Load(ctx)
	if err != nil {
		c.metrics.RecordError("prev_day_source")
		c.log.Error("previous-day table load failed", logger.Error(err))
		return
	}
	if _, err := c.RunPreMarket(ctx, c.cfg, table); err != nil {
		c.log.Error("pre-market run failed", logger.Error(err))
	}
}

// RunPreMarket computes derived levels for the effective universe, persists
// per-symbol records and the universe snapshot, and publishes the snapshot.
// A persistence failure is logged and skipped; it never aborts the run and
// never drops the symbol from the in-memory result.
func (c *DerivedComputer) RunPreMarket(
	ctx context.Context,
	cfg UniverseConfig,
	table map[string]models.PrevDayOHLC,
) (*models.UniverseSnapshot, error) {
	started := time.Now()

	omitted := make(map[string]struct{}, len(cfg.Omitted))
	for _, s := range cfg.Omitted {
		omitted[s] = struct{}{}
	}
	effective := make([]string, 0, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		if _, skip := omitted[s]; !skip {
			effective = append(effective, s)
		}
	}

	missing := make([]string, 0)
	records := make([]*models.DerivedSymbolData, 0, len(effective))
	for _, sym := range effective {
		ohlc, ok := table[sym]
		if !ok {
			missing = append(missing, sym)
			continue
		}
		rec := computeSymbol(sym, ohlc, cfg)
		if err := c.store.PersistSymbolData(ctx, rec); err != nil {
			c.metrics.RecordError("persist_symbol")
			c.log.Warn("derived record persist failed; keeping in-memory result",
				logger.String("symbol", sym),
				logger.Error(err),
			)
		}
		records = append(records, rec)
	}

	// ascending CPR width; stable sort keeps the effective-universe order
	// for equal widths
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CPRWidthPct < records[j].CPRWidthPct
	})

	filtered := make([]string, 0, len(records))
	for _, r := range records {
		if r.CPRWidthPct < cfg.ThresholdPct {
			filtered = append(filtered, r.Symbol)
		}
	}
	tradable := filtered
	if cfg.TopN >= 0 && len(tradable) > cfg.TopN {
		tradable = tradable[:cfg.TopN]
	}

	snap := &models.UniverseSnapshot{
		Timestamp:          c.clk.Now(),
		EffectiveUniverse:  effective,
		FilteredSymbols:    filtered,
		TradableSymbols:    tradable,
		MissingPrevDayOHLC: missing,
	}
	if err := c.store.PersistUniverseSnapshot(ctx, snap); err != nil {
		c.metrics.RecordError("persist_universe")
		c.log.Warn("universe snapshot persist failed", logger.Error(err))
	}

	c.log.Info("pre-market run complete",
		logger.Int("effective", len(effective)),
		logger.Int("filtered", len(filtered)),
		logger.Int("tradable", len(tradable)),
		logger.Int("missing_prev_day", len(missing)),
	)
	c.metrics.RecordLatency("pre_market_run", time.Since(started).Seconds())

	c.bus.Publish(events.UniverseComputed{Snapshot: snap})
	return snap, nil
}

// computeSymbol derives pivot levels and both ladders from one symbol's
// previous-day OHLC.
func computeSymbol(sym string, ohlc models.PrevDayOHLC, cfg UniverseConfig) *models.DerivedSymbolData {
	h, l, cl := ohlc.High, ohlc.Low, ohlc.Close

	p := (h + l + cl) / 3
	bc := (h + l) / 2
	tc := 2*p - bc
	width := math.Abs(tc-bc) / p * 100

	numSteps := int(math.Round(cfg.TargetMaxPct/cfg.TargetStepPct)) + 1
	targetPos := make([]float64, numSteps)
	targetNeg := make([]float64, numSteps)
	for i := 0; i < numSteps; i++ {
		k := float64(i) * cfg.TargetStepPct / 100
		targetPos[i] = cl * (1 + k)
		targetNeg[i] = cl * (1 - k)
	}

	flipPos := make([]float64, len(cfg.FlipStepsPct))
	flipNeg := make([]float64, len(cfg.FlipStepsPct))
	for i, pct := range cfg.FlipStepsPct {
		k := pct / 100
		flipPos[i] = cl * (1 + k)
		flipNeg[i] = cl * (1 - k)
	}

	return &models.DerivedSymbolData{
		Symbol:         sym,
		PrevHigh:       h,
		PrevLow:        l,
		PrevClose:      cl,
		Pivot:          p,
		BC:             bc,
		TC:             tc,
		CPRWidthPct:    width,
		TargetRangePos: targetPos,
		TargetRangeNeg: targetNeg,
		FlipRangePos:   flipPos,
		FlipRangeNeg:   flipNeg,
	}
}
