// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"FraudShield/pkg/config"
	"FraudShield/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	barStream := ProvideMarketFeed(cfg)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	publisher := ProvideBarPublisher(producer, cfg)
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	barStore := ProvideBarStore(client, cfg, logger)
	metrics := ProvideMetrics()
	barProcessor := ProvideBarProcessor(publisher, barStore, metrics, cfg)
	barCollector := ProvideBarCollector(barStream, barProcessor, metrics)
	consumer, err := ProvideKafkaConsumer(cfg)
	if err != nil {
		return nil, err
	}
	kafkaBarsHandler := ProvideKafkaBarsHandler(barStore, metrics, cfg)
	postgresClient, err := ProvidePostgresClient(cfg)
	if err != nil {
		return nil, err
	}
	redisClient := ProvideRedisClient(cfg)
	httpClient := ProvideHTTPClient()
	registryStore := ProvideRegistryStore(postgresClient)
	fetcher := ProvideRegistryFetcher(httpClient, registryStore, cfg, logger)
	filingStore := ProvideFilingStore(postgresClient)
	filingsFetcher := ProvideFilingsFetcher(httpClient, filingStore, cfg, logger)
	historyClient := ProvideHistoryClient(httpClient, cfg)
	redisQueue := ProvideJobConsumer(redisClient, fetcher, filingsFetcher, historyClient, barProcessor, metrics, cfg, logger)
	historyStore := ProvideHistoryStore(postgresClient)
	scorer, err := ProvideLexicalScorer(cfg, logger)
	if err != nil {
		return nil, err
	}
	credibilityJudge := ProvideJudge(cfg, scorer, logger)
	auditPublisher := ProvideAuditPublisher(producer, cfg)
	service, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	verifier := ProvideVerifier(registryStore, filingStore, historyStore, barStore, scorer, credibilityJudge, metrics, auditPublisher, service, cfg, logger)
	queueService := ProvideJobPublisher(redisClient, logger)
	verifyEchoHandler := ProvideVerifyHandler(logger, verifier, queueService)
	app := ProvideApp(cfg, barCollector, consumer, kafkaBarsHandler, client, postgresClient, redisQueue, verifyEchoHandler, producer, logger)
	return app, nil
}
