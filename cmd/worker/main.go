package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/tixlabs/tix-server/config"
	"github.com/tixlabs/tix-server/internal/delivery/kafka/consumer"
	"github.com/tixlabs/tix-server/internal/infra/postgres"
	"github.com/tixlabs/tix-server/internal/infra/redis"
	repo "github.com/tixlabs/tix-server/internal/repository/postgres"
	redisRepo "github.com/tixlabs/tix-server/internal/repository/redis"
	"github.com/tixlabs/tix-server/internal/service"
	pkgKafka "github.com/tixlabs/tix-server/pkg/kafka"
	pkgLog "github.com/tixlabs/tix-server/pkg/logger"
	"github.com/tixlabs/tix-server/pkg/mailer"
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

	redisCli, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(redisCli)

	// One consumer group per topic so the two pipelines rebalance
	// independently.
	orderConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.OrderGroupID,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize order consumer group: %v", err)
	}

	updateConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Kafka.UpdateGroupID,
	})
	if err != nil {
		l.Fatalf(ctx, "Failed to initialize update consumer group: %v", err)
	}

	// Repositories
	userRepo := repo.NewPostgresUserRepository(pool, l)
	eventRepo := repo.NewPostgresEventRepository(pool, l)
	ticketRepo := repo.NewPostgresTicketRepository(pool, l)
	mailMarkerRepo := redisRepo.NewRedisMailMarkerRepository(redisCli, l)

	mail := mailer.NewSMTPMailer(cfg.Mail)

	// Services
	fulfillSvc := service.NewFulfillmentService(eventRepo, ticketRepo, userRepo, mailMarkerRepo, mail, l)
	notifSvc := service.NewNotificationService(mail, l)

	// Consumers
	orderCons := consumer.NewOrderConsumer(orderConsGr, fulfillSvc, l)
	updateCons := consumer.NewUpdateConsumer(updateConsGr, notifSvc, l)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return orderCons.Run(gctx)
	})
	g.Go(func() error {
		return updateCons.Run(gctx)
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-quit:
			l.Info(gctx, "Worker shutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Worker error: %v", err)
	}

	if err := orderCons.Close(); err != nil {
		l.Errorf(ctx, "Failed to close order consumer: %v", err)
	}
	if err := updateCons.Close(); err != nil {
		l.Errorf(ctx, "Failed to close update consumer: %v", err)
	}

	l.Info(ctx, "Worker exited")
}
