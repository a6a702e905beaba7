package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"finbooks/internal/audit"
	auditkafka "finbooks/internal/audit/store/kafka"
	auditmemory "finbooks/internal/audit/store/memory"
	auditpostgres "finbooks/internal/audit/store/postgres"
	"finbooks/internal/audit/writer"
	httptransport "finbooks/internal/http"
	"finbooks/internal/incident"
	"finbooks/internal/incident/dedup"
	"finbooks/internal/incident/scanner"
	incidentmemory "finbooks/internal/incident/store/memory"
	incidentpostgres "finbooks/internal/incident/store/postgres"
	"finbooks/internal/notify"
	"finbooks/internal/platform/config"
	"finbooks/internal/platform/httpserver"
	"finbooks/internal/platform/logger"
	"finbooks/internal/platform/metrics"
	platformredis "finbooks/internal/platform/redis"
)

// main wires the compliance pipeline: the batching audit writer, the
// breach-deadline scanner, and the HTTP surface. Collaborators degrade
// gracefully: without postgres/redis/kafka the process runs on in-memory
// implementations, which is what local development uses.
func main() {
	cfg := config.FromEnv()
	log := logger.New(os.Getenv("APP_ENV"))
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Audit store: postgres when configured, with an optional kafka mirror.
	var auditStore audit.Store
	var incidentStore incident.Store
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("opening postgres failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		auditStore = auditpostgres.New(db)
		incidentStore = incidentpostgres.New(db)
	} else {
		log.Warn("no POSTGRES_DSN configured, using in-memory stores")
		auditStore = auditmemory.NewInMemoryStore()
		incidentStore = incidentmemory.NewInMemoryStore()
	}

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("creating kafka audit sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		auditStore = audit.NewFanout(log, auditStore, sink)
	}

	auditWriter := writer.New(auditStore,
		writer.WithLogger(log),
		writer.WithMetrics(m),
		writer.WithFlushInterval(cfg.Audit.FlushInterval),
		writer.WithHighWaterMark(cfg.Audit.HighWaterMark),
		writer.WithQueueCap(cfg.Audit.QueueCap),
		writer.WithDrainTimeout(cfg.Audit.DrainTimeout),
	)

	// Notification deduper: redis when configured so marks survive restarts
	// and are shared across instances.
	var deduper dedup.Deduper = dedup.NewMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting to redis failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		deduper = dedup.NewRedis(redisClient.Client)
	} else {
		log.Warn("no REDIS_URL configured, notification dedup is process-local")
	}

	var dispatcher notify.Dispatcher = notify.NewLogDispatcher(log)
	if cfg.Webhook.URL != "" {
		dispatcher = notify.NewWebhookDispatcher(cfg.Webhook.URL, cfg.Webhook.Timeout)
	}

	deadlineScanner := scanner.New(incidentStore, deduper, dispatcher,
		scanner.WithLogger(log),
		scanner.WithMetrics(m),
		scanner.WithInterval(cfg.Scanner.Interval),
		scanner.WithWarningWindow(cfg.Scanner.WarningWindow),
	)

	handler := httptransport.NewHandler(log, auditWriter, incidentStore)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting finbooks compliance pipeline", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error { return auditWriter.Run(ctx) })
	g.Go(func() error { return deadlineScanner.Run(ctx) })

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
