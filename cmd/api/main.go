package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tixlabs/tix-server/config"
	httpDelivery "github.com/tixlabs/tix-server/internal/delivery/http"
	"github.com/tixlabs/tix-server/internal/delivery/kafka/producer"
	"github.com/tixlabs/tix-server/internal/infra/google"
	"github.com/tixlabs/tix-server/internal/infra/postgres"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	"github.com/tixlabs/tix-server/internal/service"
	pkgKafka "github.com/tixlabs/tix-server/pkg/kafka"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	pool, err := postgres.Connect(ctx, cfg.Postgres)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
	}
	defer postgres.Disconnect(pool)

	if err := repo.ApplySchema(ctx, pool); err != nil {
		l.Fatalf(ctx, "Failed to apply schema: %v", err)
	}

	// Initialize Kafka producer
	kSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RetryMax:     cfg.Kafka.ProducerRetryMax,
		RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
	}

	prod := producer.NewProducer(kSyncProd, l)
	defer prod.Close()

	// Repositories
	userRepo := repo.NewPostgresUserRepository(pool, l)
	eventRepo := repo.NewPostgresEventRepository(pool, l)
	ticketRepo := repo.NewPostgresTicketRepository(pool, l)
	waitlistRepo := repo.NewPostgresWaitlistRepository(pool, l)

	// Services
	authSvc := service.NewAuthService(userRepo, google.NewVerifier(cfg.Google), cfg.JWT, l)
	eventSvc := service.NewEventService(eventRepo, ticketRepo, waitlistRepo, userRepo, prod, l)
	purchaseSvc := service.NewPurchaseService(eventRepo, prod, l)
	ticketSvc := service.NewTicketService(ticketRepo, eventRepo, userRepo, l)
	userSvc := service.NewUserService(userRepo, l)

	h := httpDelivery.NewHandler(authSvc, eventSvc, purchaseSvc, ticketSvc, userSvc, l)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(h, cfg.CORS),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// A serve failure cancels gctx, which drives the shutdown branch below,
	// so g.Wait returns and the deferred cleanup still runs.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(gctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
			l.Info(gctx, "Server shutting down...")
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server error: %v", err)
	}

	l.Info(ctx, "Server exited")
}
