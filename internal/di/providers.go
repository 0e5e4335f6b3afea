package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	drepo "PivotPipe/internal/domain/repository"
	"PivotPipe/internal/handler/api"
	internalrepo "PivotPipe/internal/repository"
	"PivotPipe/internal/service/feed"
	"PivotPipe/internal/strategy"
	"PivotPipe/internal/usecase"
	pkgbus "PivotPipe/pkg/bus"
	pkgch "PivotPipe/pkg/clickhouse"
	"PivotPipe/pkg/clock"
	"PivotPipe/pkg/config"
	pkgkafka "PivotPipe/pkg/kafka"
	"PivotPipe/pkg/logger"
	"PivotPipe/pkg/metrics"
	"PivotPipe/pkg/server"
)

// defaultFlipStepsPct is used when the config leaves the flip ladder empty.
var defaultFlipStepsPct = []float64{0.0, 0.02, 0.04, 0.05, 0.06, 0.08, 0.10}

// ProvideLogger creates the structured logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideBus creates the pipeline event bus.
func ProvideBus() *pkgbus.Bus {
	return pkgbus.New()
}

// ProvideIngress creates the single channel through which concurrent inputs
// (feed reads, fill acknowledgements) reach the dispatch goroutine.
func ProvideIngress() chan pkgbus.Event {
	return make(chan pkgbus.Event, 1024)
}

// Clocks carries the time source for the selected mode. Replay is nil in
// live mode.
type Clocks struct {
	Clock  clock.Clock
	Replay *clock.Replay
}

// ProvideClocks selects the time source by mode.
func ProvideClocks(cfg *config.Config) Clocks {
	if cfg.Mode == "replay" {
		rc := clock.NewReplay(cfg.Replay.Start)
		return Clocks{Clock: rc, Replay: rc}
	}
	return Clocks{Clock: clock.NewReal()}
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() drepo.Metrics {
	return metrics.New()
}

// ProvideStore selects the derived-data store backend.
func ProvideStore(cfg *config.Config) (drepo.DerivedStore, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return internalrepo.NewMemoryStore(), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return internalrepo.NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ProvidePrevDaySource creates the previous-day OHLC source, nil when none
// is configured (pre-market runs are then manual-only via the API).
func ProvidePrevDaySource(cfg *config.Config) drepo.PrevDaySource {
	if cfg.PrevDay.File == "" {
		return nil
	}
	return internalrepo.NewFilePrevDaySource(cfg.PrevDay.File)
}

// ProvideUniverseConfig builds the per-run universe configuration.
func ProvideUniverseConfig(cfg *config.Config) usecase.UniverseConfig {
	flips := cfg.Universe.FlipStepsPct
	if len(flips) == 0 {
		flips = defaultFlipStepsPct
	}
	return usecase.UniverseConfig{
		Symbols:       cfg.Universe.Symbols,
		Omitted:       cfg.Universe.Omitted,
		ThresholdPct:  cfg.Universe.ThresholdPct,
		TopN:          cfg.Universe.TopN,
		TargetStepPct: cfg.Universe.TargetStepPct,
		TargetMaxPct:  cfg.Universe.TargetMaxPct,
		FlipStepsPct:  flips,
	}
}

// ProvideClickHouseClient creates the archive connection, nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
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

// ProvideCandleArchive creates the candle archive over the ClickHouse
// client, nil when archiving is disabled.
func ProvideCandleArchive(client *pkgch.Client, cfg *config.Config) (drepo.CandleArchive, error) {
	if client == nil {
		return nil, nil
	}
	archive := internalrepo.NewClickHouseArchive(client.DB(), cfg.ClickHouse.Table)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		return nil, err
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideIntentSink creates the intent publisher, nil when Kafka is off.
func ProvideIntentSink(producer *pkgkafka.Producer, cfg *config.Config) drepo.IntentSink {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaIntentSink(producer, cfg.Kafka.IntentTopic)
}

// ProvideFillConsumer creates the fill-acknowledgement consumer, nil when no
// fill topic is configured. Fills are enqueued onto the ingress channel so
// bus dispatch stays single-threaded.
func ProvideFillConsumer(cfg *config.Config, ingress chan pkgbus.Event, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.FillTopic == "" {
		return nil, nil
	}
	handler := usecase.NewFillHandler(cfg.Kafka.FillTopic, ingress, log)
	consumer, err := pkgkafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.FillGroupID, handler)
	if err != nil {
		return nil, fmt.Errorf("fill consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTickStream creates the live feed, nil in replay mode.
func ProvideTickStream(cfg *config.Config, log *logger.Logger) drepo.TickStream {
	if cfg.Mode == "replay" {
		return nil
	}
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Universe.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		log,
	)
}

// Pipeline holds the bus-subscribed stages. Construction order is dispatch
// order: for any event the aggregator runs before the session detector,
// which runs before the derived computer, the gap detector, the strategy
// and finally the forwarder.
type Pipeline struct {
	Aggregator *usecase.CandleAggregator
	Sessions   *usecase.SessionDetector
	Derived    *usecase.DerivedComputer
	Gaps       *usecase.GapDetector
	Strategy   *strategy.Stepper
	Forwarder  *usecase.Forwarder
}

// ProvidePipeline constructs and subscribes all stages.
func ProvidePipeline(
	cfg *config.Config,
	log *logger.Logger,
	b *pkgbus.Bus,
	m drepo.Metrics,
	store drepo.DerivedStore,
	clocks Clocks,
	source drepo.PrevDaySource,
	ucfg usecase.UniverseConfig,
	sink drepo.IntentSink,
	archive drepo.CandleArchive,
) *Pipeline {
	return &Pipeline{
		Aggregator: usecase.NewCandleAggregator(b, log, m, cfg.Candle.Interval),
		Sessions:   usecase.NewSessionDetector(b, log, m, cfg.Session.DriverSymbol),
		Derived:    usecase.NewDerivedComputer(b, log, store, m, clocks.Clock, source, ucfg),
		Gaps:       usecase.NewGapDetector(b, log, store, m),
		Strategy: strategy.New(b, log, store, m, clocks.Clock, strategy.Config{
			StrategyID:         cfg.Strategy.ID,
			AutoAdvance:        cfg.Strategy.AutoAdvance,
			FlipTimeoutSeconds: cfg.Strategy.FlipTimeoutSeconds,
		}),
		Forwarder: usecase.NewForwarder(b, log, m, sink, archive),
	}
}

// ProvideAPIHandler creates the HTTP handler. Manual pre-market runs get
// their own computer on a private bus so HTTP requests never publish into
// the pipeline's dispatch thread; results land in the shared store.
func ProvideAPIHandler(log *logger.Logger, store drepo.DerivedStore, m drepo.Metrics, clocks Clocks) *api.Handler {
	computer := usecase.NewDerivedComputer(pkgbus.New(), log, store, m, clocks.Clock, nil, usecase.UniverseConfig{})
	return api.NewHandler(log, store, computer)
}

// ProvideApp creates the application. The pipeline is taken as a dependency
// so its stages are subscribed before the app starts pumping events.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	b *pkgbus.Bus,
	ingress chan pkgbus.Event,
	stream drepo.TickStream,
	clocks Clocks,
	consumer *pkgkafka.Consumer,
	apiH *api.Handler,
	_ *Pipeline,
) *server.App {
	return server.New(cfg, log, b, ingress, stream, clocks.Replay, consumer, apiH)
}
