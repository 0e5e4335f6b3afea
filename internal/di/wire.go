//go:build wireinject
// +build wireinject

package di

import (
	"PivotPipe/pkg/config"
	"PivotPipe/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Core plumbing
		ProvideLogger,
		ProvideBus,
		ProvideIngress,
		ProvideClocks,
		ProvideMetrics,

		// Stores and sources
		ProvideStore,
		ProvidePrevDaySource,
		ProvideUniverseConfig,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCandleArchive,
		ProvideKafkaProducer,
		ProvideIntentSink,
		ProvideFillConsumer,
		ProvideTickStream,

		// Bus-subscribed stages (construction order is dispatch order)
		ProvidePipeline,

		// HTTP surface
		ProvideAPIHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
