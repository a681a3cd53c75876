//go:build wireinject
// +build wireinject

package di

import (
	"TrueVol/pkg/config"
	"TrueVol/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideBarStorage,
		ProvideBarStore,
		ProvideBarPublisher,
		ProvideBinanceStream,
		ProvideHistorySource,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvidePolicySet,
		ProvideResultCache,
		ProvideResultPublisher,
		ProvideAnalyzeUseCase,
		ProvideAnalyzeAllUseCase,
		ProvideBackfillUseCase,
		ProvideExportQueue,
		ProvideExportUseCase,
		ProvideCSVImport,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
