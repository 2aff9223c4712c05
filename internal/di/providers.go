package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"FraudShield/internal/domain/models"
	"FraudShield/internal/domain/repository"
	domsvc "FraudShield/internal/domain/service"
	"FraudShield/internal/handler/api"
	mid "FraudShield/internal/middleware"
	internalrepo "FraudShield/internal/repository"
	"FraudShield/internal/service/filings"
	"FraudShield/internal/service/marketfeed"
	"FraudShield/internal/service/ratelimit"
	regsvc "FraudShield/internal/service/registry"
	"FraudShield/internal/services/analytics"
	"FraudShield/internal/services/scoring"
	"FraudShield/internal/usecase"
	pkgcache "FraudShield/pkg/cache"
	pkgch "FraudShield/pkg/clickhouse"
	"FraudShield/pkg/config"
	xhttp "FraudShield/pkg/http"
	pkgkafka "FraudShield/pkg/kafka"
	applogger "FraudShield/pkg/logger"
	"FraudShield/pkg/metrics"
	"FraudShield/pkg/postgres"
	"FraudShield/pkg/queue"
	"FraudShield/pkg/server"

	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the bar
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := cfg.ClickHouse.BarsTable
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s.%s (ticker String, day Date, close Float64, volume Int64) ENGINE=ReplacingMergeTree ORDER BY (ticker, day)",
			db, table,
		),
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvidePostgresClient creates the Postgres client and migrates the
// registry, filing, and history tables.
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, error) {
	client, err := postgres.NewClient(&postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		LogQueries:      cfg.Postgres.LogQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres client: %w", err)
	}
	if err := client.Migrate(
		&models.Intermediary{},
		&models.Filing{},
		&models.VerificationRecord{},
	); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	return client, nil
}

// ProvideRedisClient creates the shared Redis client for cache and queue.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCache selects the anomaly-signal cache: a layered memory+Redis
// cache when Redis is enabled, process-local memory otherwise.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr %q: %w", cfg.Redis.Addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port %q: %w", portStr, err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewClickHouseBarStore(chClient, cfg.ClickHouse.Database+"."+cfg.ClickHouse.BarsTable)
	store.SetLogger(l)
	return store
}

// ProvideBarPublisher creates the Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.Topic)
}

// ProvideAuditPublisher creates the verification audit publisher. Nil when
// no audit topic is configured.
func ProvideAuditPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AuditPublisher {
	if cfg.Kafka.AuditTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaAuditPublisher(producer, cfg.Kafka.AuditTopic)
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.BarStore, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideMarketFeed creates the market feed WebSocket stream.
func ProvideMarketFeed(cfg *config.Config) repository.BarStream {
	return marketfeed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Tickers,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideBarProcessor creates the bar processor use case.
func ProvideBarProcessor(
	pub repository.Publisher,
	store repository.BarStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideBarCollector creates the bar collector use case with the buffered
// ingest pipeline in front of the processor.
func ProvideBarCollector(
	stream repository.BarStream,
	processor *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, processor, metrics, pipe)
}

// ProvideRegistryStore creates the SEBI registry store.
func ProvideRegistryStore(pg *postgres.Client) repository.RegistryStore {
	return internalrepo.NewGormRegistryStore(pg.DB())
}

// ProvideFilingStore creates the filings store.
func ProvideFilingStore(pg *postgres.Client) repository.FilingStore {
	return internalrepo.NewGormFilingStore(pg.DB())
}

// ProvideHistoryStore creates the verification history store.
func ProvideHistoryStore(pg *postgres.Client) repository.HistoryStore {
	return internalrepo.NewGormHistoryStore(pg.DB())
}

// ProvideLexicalScorer loads the fraud lexicon, falling back to the
// built-in one when no file is configured.
func ProvideLexicalScorer(cfg *config.Config, l *applogger.Logger) (*scoring.Scorer, error) {
	if cfg.Scoring.LexiconPath == "" {
		return scoring.NewScorer(nil), nil
	}
	lex, err := scoring.LoadLexicon(cfg.Scoring.LexiconPath)
	if err != nil {
		return nil, fmt.Errorf("lexicon: %w", err)
	}
	l.Info("lexicon loaded", applogger.String("path", cfg.Scoring.LexiconPath))
	return scoring.NewScorer(lex), nil
}

// ProvideJudge creates the credibility judge. Without an API key the judge
// runs in permanent fallback mode.
func ProvideJudge(cfg *config.Config, scorer *scoring.Scorer, l *applogger.Logger) domsvc.CredibilityJudge {
	var client scoring.ChatCompleter
	if cfg.OpenAI.APIKey != "" {
		client = openai.NewClient(cfg.OpenAI.APIKey)
	} else {
		l.Warn("openai api key missing, credibility judge degraded to lexical fallback")
	}
	opts := []scoring.JudgeOption{scoring.WithLogger(l)}
	if cfg.OpenAI.RateCapacity > 0 {
		opts = append(opts, scoring.WithRateLimit(ratelimit.New(), cfg.OpenAI.RateCapacity, cfg.OpenAI.RatePerSecond))
	}
	return scoring.NewJudge(client, cfg.OpenAI.Model, cfg.OpenAI.Timeout, scorer, opts...)
}

// ProvideVerifier assembles the verification use case.
func ProvideVerifier(
	reg repository.RegistryStore,
	fil repository.FilingStore,
	hist repository.HistoryStore,
	bars repository.BarStore,
	scorer *scoring.Scorer,
	judge domsvc.CredibilityJudge,
	m repository.Metrics,
	audit repository.AuditPublisher,
	c pkgcache.Service,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Verifier {
	v := usecase.NewVerifier(
		reg, fil, hist, bars,
		analytics.NewDetector(),
		scorer,
		judge,
		usecase.NewRiskAggregator(),
		m,
	)
	if audit != nil {
		v.SetAudit(audit)
	}
	v.SetCache(c, cfg.Refresh.AnomalyCacheTTL)
	v.SetLogger(l)
	return v
}

// ProvideHTTPClient creates the shared outbound HTTP client.
func ProvideHTTPClient() *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(30 * time.Second))
}

// ProvideRegistryFetcher creates the SEBI registry fetcher.
func ProvideRegistryFetcher(client *xhttp.Client, store repository.RegistryStore, cfg *config.Config, l *applogger.Logger) *regsvc.Fetcher {
	f := regsvc.NewFetcher(client, store, cfg.Refresh.RegistryURL)
	f.SetLogger(l)
	return f
}

// ProvideFilingsFetcher creates the exchange filings fetcher.
func ProvideFilingsFetcher(client *xhttp.Client, store repository.FilingStore, cfg *config.Config, l *applogger.Logger) *filings.Fetcher {
	f := filings.NewFetcher(client, store, cfg.Refresh.NSEFilingsURL, cfg.Refresh.BSEFilingsURL)
	f.SetLogger(l)
	return f
}

// ProvideHistoryClient creates the REST daily-bar history client.
func ProvideHistoryClient(client *xhttp.Client, cfg *config.Config) *marketfeed.HistoryClient {
	return marketfeed.NewHistoryClient(client, cfg.Feed.HistoryURL, cfg.Feed.APIKey)
}

// ProvideJobPublisher creates the refresh-queue publisher. Nil when Redis
// is disabled.
func ProvideJobPublisher(rdb *redis.Client, l *applogger.Logger) queue.QueueService {
	if rdb == nil {
		return nil
	}
	return queue.NewRedisPublisher(l, rdb, queue.WithKeyPrefix("fraudshield:queue"))
}

// ProvideJobConsumer creates the refresh-queue worker with both refresh
// jobs registered. Nil when Redis is disabled.
func ProvideJobConsumer(
	rdb *redis.Client,
	regFetcher *regsvc.Fetcher,
	filFetcher *filings.Fetcher,
	history *marketfeed.HistoryClient,
	proc *usecase.BarProcessor,
	m repository.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	jobs := []queue.Job{
		usecase.NewRegistryRefreshJob(regFetcher, m, l),
		usecase.NewMarketRefreshJob(history, proc, filFetcher, cfg.Feed.Tickers, cfg.Refresh.HistoryDays, m, l),
	}
	workers := cfg.Refresh.Workers
	if workers <= 0 {
		workers = 2
	}
	return queue.NewRedisConsumer(l, &queue.QueueConfig{Workers: workers}, rdb, jobs,
		queue.WithKeyPrefix("fraudshield:queue"))
}

// ProvideVerifyHandler creates the HTTP handler for the verification API.
func ProvideVerifyHandler(l *applogger.Logger, verifier *usecase.Verifier, jobs queue.QueueService) *api.VerifyEchoHandler {
	return api.NewVerifyEchoHandler(l, verifier, jobs)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	pg *postgres.Client,
	jobQueue *queue.RedisQueue,
	handler *api.VerifyEchoHandler,
	producer *pkgkafka.Producer,
	l *applogger.Logger,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if cfg.Kafka.LogsTopic != "" && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producerPublisher{producer},
		})
	}
	app := server.New(cfg, collector, consumer, kh, chClient, pg, jobQueue)
	app.SetHTTPHandler(handler)
	app.SetLogger(l)
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}

// producerPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type producerPublisher struct {
	p *pkgkafka.Producer
}

func (a producerPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return a.p.Publish(ctx, topic, nil, payload)
}
