package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TrueVol/internal/domain/repository"
	"TrueVol/internal/handler/api"
	mid "TrueVol/internal/middleware"
	internalrepo "TrueVol/internal/repository"
	"TrueVol/internal/service/binance"
	icache "TrueVol/internal/service/cache"
	"TrueVol/internal/usecase"
	pkgcache "TrueVol/pkg/cache"
	pkgch "TrueVol/pkg/clickhouse"
	"TrueVol/pkg/config"
	xhttp "TrueVol/pkg/http"
	pkgkafka "TrueVol/pkg/kafka"
	applogger "TrueVol/pkg/logger"
	"TrueVol/pkg/metrics"
	"TrueVol/pkg/queue"
	"TrueVol/pkg/server"

	goredis "github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS truevol",
		"CREATE TABLE IF NOT EXISTS truevol.bars_1m (ts DateTime64(3, 'UTC'), symbol String, open Float64, high Float64, low Float64, close Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
		"CREATE TABLE IF NOT EXISTS truevol.bars_1d (ts DateTime64(3, 'UTC'), symbol String, open Float64, high Float64, low Float64, close Float64) ENGINE=ReplacingMergeTree ORDER BY (symbol, ts)",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
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
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerLogger(l),
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

// ProvideBarStorage creates ClickHouse storage for ingested bars.
func ProvideBarStorage(chClient *pkgch.Client) repository.Storage {
	return internalrepo.NewClickHouseStorage(chClient.DB())
}

// ProvideBarStore creates the read-side bar store for analysis.
func ProvideBarStore(chClient *pkgch.Client, l *applogger.Logger) repository.BarStore {
	store := internalrepo.NewCHBarStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideBarPublisher creates the Kafka bar publisher.
func ProvideBarPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.BarPublisher {
	return internalrepo.NewKafkaBarPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaBarsHandler registers the handler for the bars topic.
func ProvideKafkaBarsHandler(store repository.Storage, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaBarsHandler {
	return usecase.NewKafkaBarsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideBinanceStream creates the Binance kline WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.NewStream(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.StreamInterval,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideHistorySource creates the Binance REST history client.
func ProvideHistorySource(cfg *config.Config) usecase.HistorySource {
	return binance.New(cfg.Binance.APIKey, cfg.Binance.APISecret)
}

// ProvideBarProcessor creates the bar processor use case.
func ProvideBarProcessor(
	pub repository.BarPublisher,
	store repository.Storage,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.BarProcessor {
	return usecase.NewBarProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvideBarCollector creates the bar collector use case.
func ProvideBarCollector(
	stream repository.MarketStream,
	processor *usecase.BarProcessor,
	metrics repository.Metrics,
) *usecase.BarCollector {
	// Build middleware pipeline between WebSocket and the backend
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewBarCollector(stream, processor, metrics, pipe)
}

// ProvidePolicySet builds the window policies from config.
func ProvidePolicySet(cfg *config.Config) usecase.PolicySet {
	ps := usecase.DefaultPolicySet()
	p := cfg.Policies
	if p.DailyAnchor > 0 {
		ps.DailyAnchor = p.DailyAnchor
	}
	if p.DailyDuration > 0 {
		ps.DailyDuration = p.DailyDuration
	}
	if p.DailyMinBars > 0 {
		ps.DailyMin = p.DailyMinBars
	}
	if p.WeeklyWeekday != "" {
		ps.WeeklyWeekday = config.Weekday(p.WeeklyWeekday)
	}
	if p.WeeklyOffset > 0 {
		ps.WeeklyOffset = p.WeeklyOffset
	}
	if p.WeeklyMinBars > 0 {
		ps.WeeklyMin = p.WeeklyMinBars
	}
	if p.ExpiryWeekday != "" {
		ps.ExpiryWeekday = config.Weekday(p.ExpiryWeekday)
	}
	if p.WeeklyExpiryMin > 0 {
		ps.WeeklyExpiryMin = p.WeeklyExpiryMin
	}
	if p.MonthlyExpiryMin > 0 {
		ps.MonthlyExpiryMin = p.MonthlyExpiryMin
	}
	return ps
}

// ProvideResultCache builds the analysis result cache: layered over Redis
// when configured, in-memory otherwise.
func ProvideResultCache(cfg *config.Config) pkgcache.Service {
	r := cfg.Export.Redis
	if r.Enabled {
		host, port := splitHostPort(r.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(r.Password),
			pkgcache.WithRedisDB(r.DB),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc)
		}
	}
	return pkgcache.NewMemoryCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideResultPublisher ships computed tables to the results topic when one
// is configured, nil otherwise.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ResultPublisher {
	if cfg.Kafka.ResultsTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultsTopic)
}

// ProvideAnalyzeUseCase creates the window analysis use case.
func ProvideAnalyzeUseCase(store repository.BarStore, metrics repository.Metrics, policies usecase.PolicySet, rc pkgcache.Service, rp repository.ResultPublisher) *usecase.AnalyzeUseCase {
	uc := usecase.NewAnalyzeUseCase(store, metrics, policies)
	uc.SetCache(rc, 30*time.Second)
	if rp != nil {
		uc.SetResultPublisher(rp)
	}
	return uc
}

// ProvideAnalyzeAllUseCase creates the fan-out analysis use case.
func ProvideAnalyzeAllUseCase(analyze *usecase.AnalyzeUseCase) *usecase.AnalyzeAllUseCase {
	return usecase.NewAnalyzeAllUseCase(analyze)
}

// ProvideBackfillUseCase creates the history backfill use case. Backfills
// invalidate cached analysis results for the symbol they rewrote.
func ProvideBackfillUseCase(source usecase.HistorySource, storage repository.Storage, metrics repository.Metrics, rc pkgcache.Service) *usecase.BackfillUseCase {
	uc := usecase.NewBackfillUseCase(source, storage, metrics)
	uc.SetCache(rc)
	return uc
}

// ProvideExportQueue creates the Redis-backed export job queue, or nil when
// the export queue is disabled.
func ProvideExportQueue(cfg *config.Config, l *applogger.Logger) *queue.RedisQueue {
	r := cfg.Export.Redis
	if !r.Enabled {
		return nil
	}
	client := goredis.NewClient(&goredis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{Workers: workers, RetryLimit: 3}, client, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("truevol:queue"),
	)
}

// ProvideExportUseCase creates the CSV export use case.
func ProvideExportUseCase(analyze *usecase.AnalyzeUseCase, q *queue.RedisQueue, cfg *config.Config, l *applogger.Logger) *usecase.ExportUseCase {
	dir := cfg.Export.Dir
	if dir == "" {
		dir = "exports"
	}
	var svc queue.QueueService
	if q != nil {
		svc = q
	}
	return usecase.NewExportUseCase(analyze, svc, dir, l)
}

// ProvideHTTPHandler creates the Echo API handler with a response cache.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	all *usecase.AnalyzeAllUseCase,
	backfill *usecase.BackfillUseCase,
	exports *usecase.ExportUseCase,
	cfg *config.Config,
) xhttp.Handler {
	h := api.NewWindowsEchoHandler(l, analyze, all, backfill, exports)
	if r := cfg.Export.Redis; r.Enabled {
		h.SetCache(icache.NewRedisCache(icache.RedisConfig{Addr: r.Addr, Password: r.Password, DB: r.DB}))
	} else {
		h.SetCache(icache.NewTTLCache())
	}
	return h
}

// ProvideCSVImport creates the startup CSV import when a feed file is
// configured, nil otherwise.
func ProvideCSVImport(cfg *config.Config, storage repository.Storage, m repository.Metrics, l *applogger.Logger) *usecase.CSVImportUseCase {
	if !cfg.CSVFeed.Enabled {
		return nil
	}
	return usecase.NewCSVImportUseCase(storage, m, l, cfg.CSVFeed.Path, cfg.CSVFeed.Symbol)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.BarCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBarsHandler,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	exports *usecase.ExportUseCase,
	exportQueue *queue.RedisQueue,
	csvImport *usecase.CSVImportUseCase,
	l *applogger.Logger,
) *server.App {
	// Surface consume failures in the app log; the consumer still DLQs them.
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.HookFuncs{
			Err: func(_ context.Context, topic string, _ kafkago.Message, _ []byte, err error) {
				l.Error("kafka consume", applogger.String("topic", topic), applogger.Error(err))
			},
		})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetLogger(l)
	app.SetHTTPHandler(handler)
	if exportQueue != nil {
		exportQueue.RegisterJob(usecase.NewExportJob(exports, l))
		app.SetExportQueue(exportQueue)
	}
	if csvImport != nil {
		app.SetCSVImport(csvImport)
	}
	// attach bar processor to app for closing resources via collector
	if collector != nil {
		app.BarProc = collector.Processor()
	}
	return app
}
