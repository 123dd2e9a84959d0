package di

import (
	"context"
	"fmt"
	"time"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
	domsvc "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/service"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/handler/api"
	internalrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/repository"
	icache "github.com/sentayhu19/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/association"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/changepoint"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/services/impact"
	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/usecase"
	pkgch "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/clickhouse"
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/config"
	pkgkafka "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/kafka"
	applogger "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/logger"
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/metrics"
	"github.com/sentayhu19/brent-oil-change-point-analysis/pkg/server"
)

// ProvideLogger creates the application logger. Development gets a
// console writer; everything else logs JSON.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client when the price
// source is clickhouse; otherwise no client is needed.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Data.Source != "clickhouse" {
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS brent",
		"CREATE TABLE IF NOT EXISTS brent.prices (day Date, price Float64) ENGINE=ReplacingMergeTree ORDER BY day",
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvidePriceStore selects the configured price source.
func ProvidePriceStore(cfg *config.Config, chClient *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	if cfg.Data.Source == "clickhouse" {
		table := cfg.Data.Table
		if table == "" {
			table = "brent.prices"
		}
		store := internalrepo.NewCHPriceStore(chClient, table)
		store.SetLogger(l)
		return store
	}
	return internalrepo.NewCSVPriceStore(cfg.Data.PricesCSV, l)
}

// ProvideEventStore selects the event catalog source.
func ProvideEventStore(cfg *config.Config) repository.EventStore {
	if cfg.Data.EventsCSV != "" {
		return internalrepo.NewCSVEventStore(cfg.Data.EventsCSV)
	}
	return internalrepo.NewBuiltinEventStore()
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
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

// ProvidePublisher creates the result publisher.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = "brent.analysis.results"
	}
	return internalrepo.NewKafkaPublisher(producer, topic)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the result cache: Redis when configured,
// otherwise an in-process TTL cache.
func ProvideCache(cfg *config.Config) icache.BytesCache {
	if cfg.Cache.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideDetector creates the change-point detector.
func ProvideDetector(l *applogger.Logger) domsvc.ChangePointDetector {
	return changepoint.NewDetector(l)
}

// ProvideAssociator creates the event associator.
func ProvideAssociator() domsvc.EventAssociator {
	return association.New()
}

// ProvideQuantifier creates the impact quantifier.
func ProvideQuantifier() domsvc.ImpactQuantifier {
	return impact.New()
}

// ProvideAnalyzer creates the analysis use case.
func ProvideAnalyzer(
	prices repository.PriceStore,
	events repository.EventStore,
	detector domsvc.ChangePointDetector,
	assoc domsvc.EventAssociator,
	quant domsvc.ImpactQuantifier,
	publisher repository.Publisher,
	m repository.Metrics,
	c icache.BytesCache,
	l *applogger.Logger,
) *usecase.Analyzer {
	return usecase.NewAnalyzer(prices, events, detector, assoc, quant, publisher, m, c, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	publisher repository.Publisher,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, analyzer, publisher, chClient)
	h := api.NewAnalysisHandler(l, analyzer)
	if cfg.RateLimit.RunPerMinute > 0 {
		h.RunPerMinute = cfg.RateLimit.RunPerMinute
	}
	app.SetHTTPHandler(h)
	return app
}
