package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	audit "fowlgate/pkg/platform/audit"
	auditpublisher "fowlgate/pkg/platform/audit/publisher"
	"fowlgate/pkg/platform/audit/relay"
	auditmemory "fowlgate/pkg/platform/audit/store/memory"
	auditpostgres "fowlgate/pkg/platform/audit/store/postgres"
	"fowlgate/pkg/platform/middleware/auth"
	"fowlgate/pkg/platform/middleware/metadata"

	notifhandler "fowlgate/internal/notification/handler"
	notifservice "fowlgate/internal/notification/service"
	notifstore "fowlgate/internal/notification/store"
	"fowlgate/internal/platform/config"
	"fowlgate/internal/platform/httpserver"
	"fowlgate/internal/platform/kafka"
	"fowlgate/internal/platform/logger"
	"fowlgate/internal/platform/postgres"
	"fowlgate/internal/platform/redis"
	"fowlgate/internal/platform/token"
	regservice "fowlgate/internal/registry/service"
	regstore "fowlgate/internal/registry/store"
	transferhandler "fowlgate/internal/transfer/handler"
	"fowlgate/internal/transfer/metrics"
	transferservice "fowlgate/internal/transfer/service"
	"fowlgate/internal/transfer/store/activelock"
	ownershipstore "fowlgate/internal/transfer/store/ownership"
	transferstore "fowlgate/internal/transfer/store/transfer"
)

// main wires storage, services, and transport. Postgres, Redis, and Kafka
// are each optional: without Postgres the process runs on in-memory stores,
// without Redis the active-transfer lock is process-local, and without
// Kafka audit events stay in the outbox.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		return
	}
	if db != nil {
		defer db.Close()
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		return
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka unavailable", "error", err)
		return
	}
	if producer != nil {
		defer producer.Close()
	}

	transfers, ownership, fowls, notifications, auditStore := buildStores(db)

	var lock transferservice.ActiveLock = activelock.NewInMemory()
	if redisClient != nil {
		lock = activelock.NewRedisLock(redisClient.Client)
	}

	auditor := auditpublisher.New(auditStore, auditpublisher.WithLogger(log))
	registry := regservice.New(fowls)
	notifier := notifservice.New(notifications,
		notifservice.WithLogger(log),
		notifservice.WithVerificationWindow(cfg.VerificationTimeout),
	)
	transferSvc := transferservice.New(transfers, ownership, lock, registry,
		transferservice.WithLogger(log),
		transferservice.WithMetrics(metrics.New()),
		transferservice.WithNotifier(notifier),
		transferservice.WithAuditPublisher(auditor),
	)

	tokens := token.NewService(cfg.JWTSigningKey, "fowlgate")

	r := chi.NewRouter()
	r.Use(metadata.Capture)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, log))
		transferhandler.New(transferSvc, log).Register(r)
		notifhandler.New(notifier, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting fowlgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if producer != nil {
		auditRelay := relay.New(auditStore, producer, log)
		group.Go(func() error {
			if err := auditRelay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		return
	}
	log.Info("shutdown complete")
}

func buildStores(db *sql.DB) (
	transferservice.TransferStore,
	transferservice.OwnershipStore,
	regservice.Store,
	notifservice.Store,
	audit.Store,
) {
	if db == nil {
		return transferstore.NewInMemory(),
			ownershipstore.NewInMemory(),
			regstore.NewInMemory(),
			notifstore.NewInMemory(),
			auditmemory.NewInMemoryStore()
	}
	return transferstore.NewPostgres(db),
		ownershipstore.NewPostgres(db),
		regstore.NewPostgres(db),
		notifstore.NewPostgres(db),
		auditpostgres.NewStore(db)
}
