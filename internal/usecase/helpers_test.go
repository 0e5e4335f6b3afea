package usecase

import (
	"PivotPipe/pkg/bus"
)

// nopMetrics satisfies the metrics interface without touching the global
// Prometheus registry.
type nopMetrics struct{}

func (nopMetrics) RecordTick(string)             {}
func (nopMetrics) RecordCandleClosed(string)     {}
func (nopMetrics) RecordSession(string)          {}
func (nopMetrics) RecordIntent(string, string)   {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordGap(string, float64)     {}
func (nopMetrics) RecordLatency(string, float64) {}

// recorder collects every event of the subscribed kinds in arrival order.
type recorder struct {
	events []bus.Event
}

func record(b *bus.Bus, kinds ...bus.EventKind) *recorder {
	r := &recorder{}
	for _, k := range kinds {
		b.Subscribe(k, func(e bus.Event) { r.events = append(r.events, e) })
	}
	return r
}
