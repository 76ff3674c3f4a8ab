//go:build wireinject
// +build wireinject

package di

import (
	"CryptoPulse/pkg/config"
	"CryptoPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideRingPublisher,
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideMongoClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideSnapshotCache,

		// Repositories
		ProvideMongoStore,
		ProvideSettingsStore,
		ProvideResultStore,
		ProvideHistoryStore,
		ProvideResultPublisher,

		// Domain services
		ProvideTracker,
		ProvideThresholdCalculator,
		ProvideScorer,
		ProvideDeterminer,
		ProvideRateLimiter,
		ProvideSnapshotProviders,
		ProvideAlertSender,

		// Delivery
		ProvideDispatcher,
		ProvideHub,
		ProvideNotifier,
		ProvideAlertPipeline,
		ProvideAlertSink,

		// Use cases
		ProvideResultWriter,
		ProvideKafkaResultsHandler,
		ProvideResearchEngine,
		ProvideScheduler,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
