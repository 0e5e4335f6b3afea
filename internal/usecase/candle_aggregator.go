package usecase

import (
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

// CandleAggregator folds the time-ordered tick stream into fixed-width
// OHLCV candles, one open candle per symbol. Ticks must arrive
// non-decreasing in timestamp per symbol; out-of-order input is a caller
// contract violation and is not defended against.
type CandleAggregator struct {
	bus      *bus.Bus
	log      *logger.Logger
	metrics  drepo.Metrics
	interval time.Duration

	open map[string]*models.Candle
}

// NewCandleAggregator creates the aggregator and subscribes it to the tick
// stream. interval defaults to one minute.
func NewCandleAggregator(b *bus.Bus, log *logger.Logger, metrics drepo.Metrics, interval time.Duration) *CandleAggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	a := &CandleAggregator{
		bus:      b,
		log:      log,
		metrics:  metrics,
		interval: interval,
		open:     make(map[string]*models.Candle),
	}
	b.Subscribe(bus.EventTick, a.onTick)
	return a
}

// ProcessTick updates candle state for one tick. It returns the candle the
// tick landed in and, when the tick crossed a window boundary, the candle
// that just closed. The closed candle is immutable from this point on.
func (a *CandleAggregator) ProcessTick(t models.Tick) (current, closed *models.Candle) {
	start := t.Timestamp.Truncate(a.interval)
	end := start.Add(a.interval)

	cur := a.open[t.Symbol]

	// first tick for this symbol: open a candle
	if cur == nil {
		cur = a.newCandle(t, start, end)
		a.open[t.Symbol] = cur
		return cur, nil
	}

	// tick inside the open window: mutate in place
	if t.Timestamp.Before(cur.WindowEnd) {
		if t.Price > cur.High {
			cur.High = t.Price
		}
		if t.Price < cur.Low {
			cur.Low = t.Price
		}
		cur.Close = t.Price
		cur.Volume += t.Volume
		return cur, nil
	}

	// window elapsed: the open candle closes and a new one opens seeded
	// from this tick
	closed = cur
	next := a.newCandle(t, start, end)
	a.open[t.Symbol] = next
	return next, closed
}

func (a *CandleAggregator) newCandle(t models.Tick, start, end time.Time) *models.Candle {
	return &models.Candle{
		Symbol:      t.Symbol,
		WindowStart: start,
		WindowEnd:   end,
		Open:        t.Price,
		High:        t.Price,
		Low:         t.Price,
		Close:       t.Price,
		Volume:      t.Volume,
	}
}

// onTick emits "candle updated" on every tick and "candle closed" when a
// window elapsed, in that order, so consumers observe the update before
// reacting to the close.
func (a *CandleAggregator) onTick(e bus.Event) {
	tick := e.(events.TickReceived).Tick
	a.metrics.RecordTick(tick.Symbol)

	current, closed := a.ProcessTick(tick)
	a.bus.Publish(events.CandleUpdated{Candle: current})

	if closed == nil {
		return
	}
	a.metrics.RecordCandleClosed(closed.Symbol)
	a.log.Debug("candle closed",
		logger.String("symbol", closed.Symbol),
		logger.Time("window_start", closed.WindowStart),
		logger.Float64("open", closed.Open),
		logger.Float64("high", closed.High),
		logger.Float64("low", closed.Low),
		logger.Float64("close", closed.Close),
		logger.Float64("volume", closed.Volume),
	)
	a.bus.Publish(events.CandleClosed{Candle: closed})
}
