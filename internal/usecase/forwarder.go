package usecase

import (
	"context"

	"PivotPipe/internal/domain/events"
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/logger"
)

// Forwarder bridges bus signals to out-of-process consumers: published
// intents go to the downstream risk/execution topic, closed candles go to
// the archive. Delivery failures are logged and skipped; they never stall
// the pipeline (retry, if any, belongs to the transport layer).
type Forwarder struct {
	log     *logger.Logger
	metrics drepo.Metrics
	intents drepo.IntentSink
	archive drepo.CandleArchive
}

// NewForwarder creates the forwarder. Either sink may be nil, in which case
// the corresponding signal is not forwarded.
func NewForwarder(b *bus.Bus, log *logger.Logger, metrics drepo.Metrics, intents drepo.IntentSink, archive drepo.CandleArchive) *Forwarder {
	f := &Forwarder{log: log, metrics: metrics, intents: intents, archive: archive}
	if intents != nil {
		b.Subscribe(bus.EventIntent, f.onIntent)
	}
	if archive != nil {
		b.Subscribe(bus.EventCandleClosed, f.onCandleClosed)
	}
	return f
}

func (f *Forwarder) onIntent(e bus.Event) {
	intent := e.(events.IntentPublished).Intent
	if err := f.intents.PublishIntent(context.Background(), intent); err != nil {
		f.metrics.RecordError("intent_sink")
		f.log.Warn("intent forward failed",
			logger.String("intent_id", intent.IntentID), logger.Error(err))
	}
}

func (f *Forwarder) onCandleClosed(e bus.Event) {
	c := e.(events.CandleClosed).Candle
	if err := f.archive.ArchiveCandle(context.Background(), c); err != nil {
		f.metrics.RecordError("candle_archive")
		f.log.Warn("candle archive failed",
			logger.String("symbol", c.Symbol), logger.Error(err))
	}
}
