package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dmehra2102/Kitchen-Unit/internal/config"
	ingestapp "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/application"
	ingestfile "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/infrastructure/file"
	ingestkafka "github.com/dmehra2102/Kitchen-Unit/internal/ingestion/infrastructure/kafka"
	kitchenapp "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/application"
	"github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/events"
	kitchengrpc "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/grpc"
	kitchenhttp "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/http"
	kitchenkafka "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/kafka"
	"github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/metrics"
	kitchenpg "github.com/dmehra2102/Kitchen-Unit/internal/kitchen/infrastructure/postgres"
	shelfapp "github.com/dmehra2102/Kitchen-Unit/internal/shelf/application"
	"github.com/dmehra2102/Kitchen-Unit/pkg/idempotency"
	"github.com/dmehra2102/Kitchen-Unit/pkg/logging"
	"github.com/dmehra2102/Kitchen-Unit/pkg/outbox"
	"github.com/dmehra2102/Kitchen-Unit/pkg/shutdown"
	"github.com/dmehra2102/Kitchen-Unit/pkg/tracing"
)

const relayID = "kitchen-unit-relay"

type orderSource interface {
	ingestapp.Source
	Close() error
}

func runKitchen(parent context.Context, cfg config.Config, lingerFlag string, out io.Writer) error {
	linger, err := time.ParseDuration(lingerFlag)
	if err != nil {
		return fmt.Errorf("linger: %w", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logging.New(level)

	ctx, cancel := shutdown.WithSignals(parent, log)
	defer cancel()

	tp, err := tracing.Init(ctx, "kitchen-unit", cfg.OTLPEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Event sinks
	recorder := metrics.NewRecorder()
	writers := events.MultiWriter{}
	var producer *kitchenkafka.Producer
	var relay *outbox.Relay

	if cfg.HasSink(config.SinkLog) {
		writers = append(writers, events.LogWriter{Log: log})
	}
	if cfg.HasSink(config.SinkKafka) || cfg.HasSink(config.SinkOutbox) {
		producer = kitchenkafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
	}
	if cfg.HasSink(config.SinkKafka) {
		writers = append(writers, kitchenkafka.NewEventWriter(outbox.NewDispatcher(log, producer, cfg.Events.Topic)))
	}
	if cfg.HasSink(config.SinkOutbox) {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("pg connect: %w", err)
		}
		defer pool.Close()

		store := kitchenpg.NewOutboxStore(log, pool, cfg.Events.MaxRetries)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		writers = append(writers, store)
		relay = outbox.NewRelay(log, store, outbox.NewDispatcher(log, producer, cfg.Events.Topic), relayID)
	}

	publisher := events.NewPublisher(log, writers)
	fanout := events.Fanout{publisher, recorder}

	// Kitchen processes
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	shelves := shelfapp.NewManager(log, cfg.Shelves.Capacities(),
		shelfapp.WithEvents(fanout),
		shelfapp.WithOccupancyObserver(recorder),
		shelfapp.WithRand(rand.New(rand.NewSource(rnd.Int63()))),
	)
	unit := kitchenapp.NewUnit(log, shelves, cfg.Courier.Range(),
		kitchenapp.WithEvents(fanout),
		kitchenapp.WithRand(rnd),
	)

	// Ingestion
	src, err := openSource(log, cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	dedup, err := newDeduper(ctx, log, cfg)
	if err != nil {
		return err
	}
	pump := ingestapp.NewPump(log, src, unit, cfg.Ingestion.RatePerSecond, dedup)

	// Status surfaces
	health := kitchengrpc.NewHealth(log)
	gs, _, err := kitchengrpc.Run(cfg.GRPCAddr, health)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	r := chi.NewRouter()
	r.Mount("/", kitchenhttp.NewHandler(log, unit, shelves, recorder.Handler()).Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Sinks outlive the kitchen so the closing events still get written.
	sinkCtx, stopSinks := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSinks()
	published := make(chan error, 1)
	go func() { published <- publisher.Run(sinkCtx) }()

	relayCtx, stopRelay := context.WithCancel(sinkCtx)
	defer stopRelay()
	relayed := make(chan error, 1)
	if relay != nil {
		go func() { relayed <- relay.Run(relayCtx) }()
	} else {
		relayed <- nil
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := pump.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("ingestion ended early", "err", err, "submitted", stats.Submitted)
		}
		return nil
	})

	report, runErr := unit.Run(ctx)
	health.Close()
	if runErr == nil && linger > 0 {
		log.Info("lingering before exit", "for", linger)
		select {
		case <-time.After(linger):
		case <-ctx.Done():
		}
	}
	cancel()
	_ = g.Wait()

	// The relay drains the outbox once more on its way out.
	publisher.Close()
	if err := <-published; err != nil {
		log.Warn("event publisher stopped with error", "err", err)
	}
	stopRelay()
	if err := <-relayed; err != nil {
		log.Warn("outbox relay stopped with error", "err", err)
	}

	if err := shutdown.Drain(10*time.Second,
		srv.Shutdown,
		func(context.Context) error { gs.GracefulStop(); return nil },
	); err != nil {
		log.Warn("shutdown incomplete", "err", err)
	}

	if runErr != nil {
		log.Warn("partial report", "received", report.Received, "delivered", report.Delivered, "dropped", report.Dropped)
		return fmt.Errorf("kitchen stopped before closing: %w", runErr)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func openSource(log *slog.Logger, cfg config.Config) (orderSource, error) {
	switch cfg.Ingestion.Source {
	case config.SourceKafka:
		reader := ingestkafka.NewReader(cfg.Kafka.Brokers, cfg.Ingestion.Topic, cfg.Ingestion.Group)
		return ingestkafka.NewSource(log, reader, cfg.Ingestion.IdleTimeout), nil
	default:
		return ingestfile.Open(cfg.Ingestion.OrdersFile)
	}
}

func newDeduper(ctx context.Context, log *slog.Logger, cfg config.Config) (idempotency.Deduper, error) {
	if !cfg.Ingestion.Dedup {
		return nil, nil
	}
	if cfg.Redis.Addr == "" {
		log.Info("order dedup in memory")
		return idempotency.NewMemoryStore(), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("order dedup in redis", "addr", cfg.Redis.Addr)
	return idempotency.NewRedisStore(rdb, "orders", cfg.Ingestion.DedupTTL), nil
}

func printConfig(w io.Writer, cfg config.Config) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(cfg)
}
