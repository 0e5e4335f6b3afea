package strategy

import (
	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/pkg/bus"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/logger"
)

// New is the project-level entrypoint for creating the strategy instance.
// Keeps the integration point in one place while alternative strategies are
// experimented with.
func New(b *bus.Bus, log *logger.Logger, store drepo.DerivedStore, metrics drepo.Metrics, clk clock.Clock, cfg Config) *Stepper {
	return NewStepper(b, log, store, metrics, clk, cfg)
}
