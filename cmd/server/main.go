// Command server runs the estate allocation API: crypto asset snapshots,
// beneficiaries, and the allocation ledger with its 100% ceiling.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"legatum/internal/allocation"
	allocmetrics "legatum/internal/allocation/metrics"
	allocservice "legatum/internal/allocation/service"
	allocstore "legatum/internal/allocation/store"
	"legatum/internal/asset"
	assetservice "legatum/internal/asset/service"
	assetstore "legatum/internal/asset/store"
	"legatum/internal/beneficiary"
	beneficiaryservice "legatum/internal/beneficiary/service"
	beneficiarystore "legatum/internal/beneficiary/store"
	"legatum/internal/platform/config"
	"legatum/internal/platform/httpserver"
	"legatum/internal/platform/logger"
	"legatum/internal/platform/postgres"
	platformredis "legatum/internal/platform/redis"
	httptransport "legatum/internal/transport/http"
	"legatum/pkg/platform/audit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when configured, in-memory otherwise.
	var (
		allocations allocservice.Store
		assets      assetservice.Store
		recipients  beneficiaryservice.Store
	)
	health := httptransport.Health{}

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		allocations = allocstore.NewPostgres(db)
		assets = assetstore.NewPostgres(db)
		recipients = beneficiarystore.NewPostgres(db)
		health.DB = db
		log.Info("using postgres storage")
	} else {
		allocations = allocstore.NewInMemory()
		assets = assetstore.NewInMemory()
		recipients = beneficiarystore.NewInMemory()
		log.Warn("no database configured, using in-memory storage")
	}

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		allocations = allocstore.NewCached(allocations, rdb.Client)
		health.Redis = rdb
		log.Info("allocation list cache enabled")
	}

	// Audit trail: Kafka when brokers are configured, in-process otherwise.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := audit.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		publisher = kafka
		log.Info("kafka audit publisher enabled", "brokers", cfg.KafkaBrokers)
	} else {
		publisher = audit.NewMemory()
	}
	defer publisher.Close()

	assetSvc := asset.NewService(assets,
		assetservice.WithLogger(log),
		assetservice.WithAuditPublisher(publisher),
	)
	beneficiarySvc := beneficiary.NewService(recipients,
		beneficiaryservice.WithLogger(log),
		beneficiaryservice.WithAuditPublisher(publisher),
	)
	allocationSvc := allocation.NewService(allocations, assetSvc,
		allocservice.WithLogger(log),
		allocservice.WithAuditPublisher(publisher),
		allocservice.WithMetrics(allocmetrics.New()),
	)

	router := httptransport.NewRouter(log, httptransport.Handlers{
		Allocations: allocation.NewHandler(allocationSvc, log),
		Assets:      asset.NewHandler(assetSvc, log),
		Beneficiary: beneficiary.NewHandler(beneficiarySvc, log),
	}, health)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
