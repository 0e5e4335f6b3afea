package usecase

import (
	"time"

	"PivotPipe/internal/domain/events"
	"PivotPipe/internal/domain/models"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

// SessionDetector derives trading-session boundaries from the closed-candle
// stream, keyed purely by the candle's window-start date. Identical candle
// sequences produce identical signal sequences; nothing here reads the wall
// clock.
//
// Only one session is active at a time. A candle dated earlier than the
// active session is a caller contract violation and is not handled.
type SessionDetector struct {
	bus     *bus.Bus
	log     *logger.Logger
	metrics drepo.Metrics

	// driver restricts detection to one symbol's candles. Empty means
	// every closed candle drives the session, which is only sensible for
	// single-instrument feeds.
	driver string

	activeDate string
	active     *models.SessionContext

	// rolling previous-day OHLC accumulated over the active session
	prevOpen  float64
	prevHigh  float64
	prevLow   float64
	prevClose float64

	lastCandleTS time.Time
}

// NewSessionDetector creates the detector and subscribes it to closed
// candles.
func NewSessionDetector(b *bus.Bus, log *logger.Logger, metrics drepo.Metrics, driverSymbol string) *SessionDetector {
	d := &SessionDetector{
		bus:     b,
		log:     log,
		metrics: metrics,
		driver:  driverSymbol,
	}
	b.Subscribe(bus.EventCandleClosed, d.onCandleClosed)
	return d
}

func (d *SessionDetector) onCandleClosed(e bus.Event) {
	c := e.(events.CandleClosed).Candle
	if d.driver != "" && c.Symbol != d.driver {
		return
	}
	d.Process(c)
}

// Process runs the boundary transition logic for one closed candle.
func (d *SessionDetector) Process(c *models.Candle) {
	date := c.SessionDate()

	// bootstrap: first candle ever seeds both the session and the rolling
	// previous-day OHLC
	if d.activeDate == "" {
		d.seedRolling(c)
		d.openSession(c, date)
		d.lastCandleTS = c.WindowStart
		return
	}

	// same session: accumulate the previous-day candidate
	if date == d.activeDate {
		if c.High > d.prevHigh {
			d.prevHigh = c.High
		}
		if c.Low < d.prevLow {
			d.prevLow = c.Low
		}
		d.prevClose = c.Close
		d.lastCandleTS = c.WindowStart
		return
	}

	// date change: freeze and end the active session, then open the new
	// one with the just-finalized previous-day OHLC
	d.log.Info("session change detected",
		logger.String("from", d.activeDate),
		logger.String("to", date),
	)

	end := d.lastCandleTS
	d.active.SessionEnd = &end
	frozen := *d.active
	d.metrics.RecordSession("ended")
	d.bus.Publish(events.SessionEnded{Timestamp: end, Context: frozen})
	d.log.Info("session ended", logger.String("session_date", frozen.SessionDate))

	d.openSession(c, date)
	d.seedRolling(c)
	d.lastCandleTS = c.WindowStart
}

// openSession creates and publishes a new session context. The prev_day_*
// fields come from the current rolling accumulator, which at this point
// holds the finalized values of the session that just ended (or, on
// bootstrap, this candle's own OHLC).
func (d *SessionDetector) openSession(c *models.Candle, date string) {
	d.activeDate = date
	d.active = &models.SessionContext{
		SessionDate:  date,
		SessionStart: c.WindowStart,
		TodayOpen:    c.Open,
		PrevDayOpen:  d.prevOpen,
		PrevDayHigh:  d.prevHigh,
		PrevDayLow:   d.prevLow,
		PrevDayClose: d.prevClose,
	}
	d.metrics.RecordSession("started")
	d.bus.Publish(events.SessionStarted{Timestamp: c.WindowStart, Context: *d.active})
	d.log.Info("session started", logger.String("session_date", date))
}

func (d *SessionDetector) seedRolling(c *models.Candle) {
	d.prevOpen = c.Open
	d.prevHigh = c.High
	d.prevLow = c.Low
	d.prevClose = c.Close
}
