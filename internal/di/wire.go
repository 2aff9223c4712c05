//go:build wireinject
// +build wireinject

package di

import (
	"FraudShield/pkg/config"
	"FraudShield/pkg/server"

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
		ProvidePostgresClient,
		ProvideRedisClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideHTTPClient,

		// Repositories
		ProvideBarStore,
		ProvideBarPublisher,
		ProvideAuditPublisher,
		ProvideRegistryStore,
		ProvideFilingStore,
		ProvideHistoryStore,
		ProvideCache,

		// Scoring and analytics
		ProvideLexicalScorer,
		ProvideJudge,

		// Ingest
		ProvideMarketFeed,
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,

		// Refresh
		ProvideRegistryFetcher,
		ProvideFilingsFetcher,
		ProvideHistoryClient,
		ProvideJobPublisher,
		ProvideJobConsumer,

		// Use cases and HTTP
		ProvideVerifier,
		ProvideVerifyHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
