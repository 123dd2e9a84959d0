//go:build wireinject
// +build wireinject

package di

import (
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/config"
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvidePriceStore,
		ProvideEventStore,
		ProvidePublisher,

		// Analysis services
		ProvideDetector,
		ProvideAssociator,
		ProvideQuantifier,

		// Use cases
		ProvideAnalyzer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
