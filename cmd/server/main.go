package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"carbonledger/internal/audit"
	jwttoken "carbonledger/internal/jwt_token"
	"carbonledger/internal/ledger/cache"
	"carbonledger/internal/ledger/lots"
	"carbonledger/internal/ledger/meta"
	ledgermetrics "carbonledger/internal/ledger/metrics"
	"carbonledger/internal/ledger/registry"
	"carbonledger/internal/ledger/retired"
	"carbonledger/internal/ledger/service"
	"carbonledger/internal/platform/config"
	"carbonledger/internal/platform/httpserver"
	"carbonledger/internal/platform/logger"
	"carbonledger/internal/platform/middleware"
	"carbonledger/internal/platform/postgres"
	platformredis "carbonledger/internal/platform/redis"
	httptransport "carbonledger/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the ledger service packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("config error", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		stores service.Stores
		runner service.TxRunner
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("migration error", "error", err)
			os.Exit(1)
		}
		stores = service.Stores{
			Registry: registry.NewPostgresStore(db),
			Lots:     lots.NewPostgresStore(db),
			Retired:  retired.NewPostgresCounter(db),
			Meta:     meta.NewPostgresStore(db),
		}
		runner = service.NewPostgresTxRunner(db, stores)
		log.Info("using postgres stores")
	} else {
		stores = service.Stores{
			Registry: registry.NewInMemoryStore(),
			Lots:     lots.NewInMemoryStore(),
			Retired:  retired.NewInMemoryCounter(),
			Meta:     meta.NewInMemoryStore(),
		}
		runner = service.NewMemoryTxRunner(stores)
		log.Info("using in-memory stores")
	}

	// Audit: events drain through an inbox so the write path never blocks.
	// Kafka sink when brokers are configured, in-memory sink otherwise.
	inbox := audit.NewInbox(cfg.AuditInboxSize, log)
	publisher := audit.NewPublisher(inbox)
	var sink audit.Store = audit.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka error", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		sink = kafkaStore
		log.Info("audit events publishing to kafka", "topic", cfg.AuditTopic)
	}
	worker := audit.NewWorker(sink, inbox.Events(), log)

	policy := service.VintagePolicy{
		MinYear:       cfg.MinVintageYear,
		MaxYearsAhead: cfg.MaxVintageYearsAhead,
	}
	engine := service.New(runner, stores, policy, log, ledgermetrics.New(), publisher)

	// Balance cache: redis when configured, pass-through otherwise.
	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis error", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
	}
	reads := cache.New(engine, rdb, cfg.BalanceCacheTTL, log)

	var validator middleware.JWTValidator
	if cfg.AuthEnabled() {
		validator = jwttoken.NewMiddlewareAdapter(jwttoken.NewJWTService(cfg.JWTSigningKey, "carbonledger"))
	}

	handler := httptransport.NewHandler(engine, reads, log, cfg.AuthEnabled())
	router := httptransport.NewRouter(handler, log, validator)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting carbonledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
