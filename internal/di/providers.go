package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"CryptoPulse/internal/dispatch"
	drepo "CryptoPulse/internal/domain/repository"
	domsvc "CryptoPulse/internal/domain/service"
	"CryptoPulse/internal/handler/api"
	mid "CryptoPulse/internal/middleware"
	"CryptoPulse/internal/notify"
	internalrepo "CryptoPulse/internal/repository"
	"CryptoPulse/internal/scheduler"
	"CryptoPulse/internal/service/providers"
	"CryptoPulse/internal/service/ratelimit"
	"CryptoPulse/internal/service/telegram"
	"CryptoPulse/internal/services/scoring"
	"CryptoPulse/internal/services/signal"
	"CryptoPulse/internal/services/stats"
	"CryptoPulse/internal/services/threshold"
	"CryptoPulse/internal/usecase"
	pkgcache "CryptoPulse/pkg/cache"
	pkgch "CryptoPulse/pkg/clickhouse"
	"CryptoPulse/pkg/config"
	xhttp "CryptoPulse/pkg/http"
	pkgkafka "CryptoPulse/pkg/kafka"
	applogger "CryptoPulse/pkg/logger"
	"CryptoPulse/pkg/metrics"
	pkgmongo "CryptoPulse/pkg/mongo"
	"CryptoPulse/pkg/retry"
	"CryptoPulse/pkg/server"
)

// ProvideRingPublisher creates the in-memory log buffer served by /api/logs.
func ProvideRingPublisher() *applogger.RingPublisher {
	return applogger.NewRingPublisher(256)
}

// ProvideLogger creates the application logger with a collector feeding the
// log ring buffer.
func ProvideLogger(cfg *config.Config, ring *applogger.RingPublisher) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	log, err := applogger.New(&applogger.Config{
		Level:  level,
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	log.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   5 * time.Second,
		CountThreshold: 64,
		Topic:          "app-logs",
		Publisher:      ring,
	})
	return log, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideMongoClient connects to MongoDB.
func ProvideMongoClient(cfg *config.Config) (*pkgmongo.Client, error) {
	client, err := pkgmongo.NewClient(
		pkgmongo.WithURI(cfg.Mongo.URI),
		pkgmongo.WithDatabase(cfg.Mongo.Database),
		pkgmongo.WithPoolSize(cfg.Mongo.MinPoolSize, cfg.Mongo.MaxPoolSize),
		pkgmongo.WithConnectTimeout(cfg.Mongo.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mongo client: %w", err)
	}
	return client, nil
}

// ProvideMongoStore creates the settings and result store backed by MongoDB.
func ProvideMongoStore(client *pkgmongo.Client) (*internalrepo.MongoStore, error) {
	store := internalrepo.NewMongoStore(client.Database())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return store, nil
}

// ProvideSettingsStore exposes the Mongo store as a settings repository.
func ProvideSettingsStore(store *internalrepo.MongoStore) drepo.SettingsStore { return store }

// ProvideResultStore exposes the Mongo store as a result repository.
func ProvideResultStore(store *internalrepo.MongoStore) drepo.ResultStore { return store }

// ProvideClickHouseClient creates a ClickHouse client when history storage is
// configured, nil otherwise.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
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
	return client, nil
}

// ProvideHistoryStore creates the ClickHouse research history store.
func ProvideHistoryStore(chClient *pkgch.Client, cfg *config.Config) (drepo.HistoryStore, error) {
	if chClient == nil {
		return nil, nil
	}
	table := cfg.ClickHouse.Table
	if table == "" {
		table = cfg.ClickHouse.Database + ".research_results"
	}
	store := internalrepo.NewClickHouseHistory(chClient.DB(), table)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer for the kafka backend.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
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

// ProvideResultPublisher creates the Kafka result publisher.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) drepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the consumer that drains results into history.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
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
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideKafkaResultsHandler registers the handler for the results topic.
func ProvideKafkaResultsHandler(history drepo.HistoryStore, m drepo.Metrics, cfg *config.Config) pkgkafka.MessageHandler {
	if cfg.Backend.Type != "kafka" || history == nil {
		return nil
	}
	return usecase.NewKafkaResultsHandler(cfg.Kafka.Topic, history, m)
}

// ProvideTracker creates the rolling statistics tracker.
func ProvideTracker() *stats.Tracker {
	return stats.NewTracker()
}

// ProvideThresholdCalculator creates the dynamic threshold calculator.
func ProvideThresholdCalculator(tracker *stats.Tracker) *threshold.Calculator {
	return threshold.NewCalculator(tracker)
}

// ProvideScorer creates the confidence scorer.
func ProvideScorer() *scoring.Scorer {
	return scoring.NewScorer()
}

// ProvideDeterminer creates the signal determiner.
func ProvideDeterminer() *signal.Determiner {
	return signal.NewDeterminer()
}

// ProvideRateLimiter creates the shared upstream rate limiter.
func ProvideRateLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideSnapshotCache creates the provider snapshot cache: layered
// redis+memory when Redis is configured, memory only otherwise.
func ProvideSnapshotCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("cryptopulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideSnapshotProviders builds the data source set: Binance market data,
// CoinGecko metadata and the edge model sidecar when configured.
func ProvideSnapshotProviders(cfg *config.Config, limiter *ratelimit.Limiter, cache pkgcache.Service) []domsvc.SnapshotProvider {
	ttl := cfg.Providers.SnapshotTTL

	list := []domsvc.SnapshotProvider{
		providers.WithCache(providers.NewBinance(cfg.Providers.Binance.BaseURL, cfg.Providers.Binance.Timeout, limiter), cache, ttl),
		providers.WithCache(providers.NewCoinGecko(cfg.Providers.CoinGecko.BaseURL, cfg.Providers.CoinGecko.Timeout, limiter, cfg.Providers.CoinGecko.CoinIDs), cache, ttl),
	}
	if cfg.Providers.Model.BaseURL != "" {
		list = append(list, providers.WithCache(
			providers.NewEdgeModel(cfg.Providers.Model.BaseURL, cfg.Providers.Model.Horizon, cfg.Providers.Model.Timeout),
			cache, ttl,
		))
	}
	return list
}

// ProvideAlertSender creates the Telegram alert sender.
func ProvideAlertSender(cfg *config.Config) domsvc.AlertSender {
	return telegram.New(cfg.Telegram.APIBase, cfg.Telegram.Timeout)
}

// ProvideDispatcher creates the alert dispatcher with the retry policy.
func ProvideDispatcher(sender domsvc.AlertSender, log *applogger.Logger, m drepo.Metrics) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(sender, retry.DefaultPolicy(), log, m)
}

// ProvideHub creates the WebSocket notification hub.
func ProvideHub(log *applogger.Logger, m drepo.Metrics) *notify.Hub {
	return notify.NewHub(log, m)
}

// ProvideNotifier creates the alert delivery use case.
func ProvideNotifier(dispatcher *dispatch.Dispatcher, hub *notify.Hub, results drepo.ResultStore, log *applogger.Logger) *usecase.Notifier {
	return usecase.NewNotifier(dispatcher, hub, results, log)
}

// ProvideAlertPipeline creates the cooldown and buffering stage in front of
// the notifier.
func ProvideAlertPipeline(notifier *usecase.Notifier, m drepo.Metrics, cfg *config.Config) *mid.AlertPipeline[*usecase.AlertJob] {
	keyFn := func(job *usecase.AlertJob) string {
		return job.Settings.UserID + "|" + job.Result.Symbol
	}

	var opts []mid.PipelineOption[*usecase.AlertJob]
	if cfg.Research.AlertCooldown > 0 {
		opts = append(opts, mid.WithCooldown[*usecase.AlertJob](cfg.Research.AlertCooldown))
	}
	if cfg.Research.AlertBuffer > 0 {
		opts = append(opts, mid.WithBufferSize[*usecase.AlertJob](cfg.Research.AlertBuffer))
	}
	return mid.NewAlertPipeline(notifier, m, keyFn, opts...)
}

// ProvideAlertSink exposes the pipeline to the research engine.
func ProvideAlertSink(pipeline *mid.AlertPipeline[*usecase.AlertJob]) usecase.AlertSink {
	return pipeline
}

// ProvideResultWriter creates the history writer for the configured backend.
func ProvideResultWriter(pub drepo.Publisher, history drepo.HistoryStore, m drepo.Metrics, cfg *config.Config) *usecase.ResultWriter {
	switch cfg.Backend.Type {
	case "kafka":
		return usecase.NewResultWriter(pub, nil, m, cfg.Backend.Type)
	default:
		if history == nil {
			return nil
		}
		return usecase.NewResultWriter(nil, history, m, cfg.Backend.Type)
	}
}

// ProvideResearchEngine creates the research engine.
func ProvideResearchEngine(
	snapProviders []domsvc.SnapshotProvider,
	tracker *stats.Tracker,
	thresholds *threshold.Calculator,
	scorer *scoring.Scorer,
	determiner *signal.Determiner,
	results drepo.ResultStore,
	writer *usecase.ResultWriter,
	alerts usecase.AlertSink,
	m drepo.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.ResearchEngine {
	return usecase.NewResearchEngine(
		snapProviders,
		tracker,
		thresholds,
		scorer,
		determiner,
		results,
		writer,
		alerts,
		m,
		log,
		cfg.Research.FetchTimeout,
	)
}

// ProvideScheduler creates the per-user research scheduler.
func ProvideScheduler(settings drepo.SettingsStore, engine *usecase.ResearchEngine, m drepo.Metrics, log *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(settings, engine, m, log)
}

// ProvideHTTPHandler assembles the REST and WebSocket route handlers.
func ProvideHTTPHandler(
	log *applogger.Logger,
	engine *usecase.ResearchEngine,
	settings drepo.SettingsStore,
	results drepo.ResultStore,
	history drepo.HistoryStore,
	ring *applogger.RingPublisher,
	hub *notify.Hub,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewResearchEchoHandler(log, engine, settings, results, history, ring),
		api.NewWSHandler(hub, log),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	sched *scheduler.Scheduler,
	pipeline *mid.AlertPipeline[*usecase.AlertJob],
	writer *usecase.ResultWriter,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	mongoClient *pkgmongo.Client,
	handler xhttp.Handler,
) *server.App {
	return server.New(cfg, log, sched, pipeline, writer, consumer, kh, chClient, mongoClient, handler)
}
