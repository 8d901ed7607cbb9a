package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"venuebooking/clients"
	"venuebooking/config"
	"venuebooking/postgres"
	"venuebooking/service"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	log.Init(logrus.InfoLevel)
	logger := watermill.NewStdLogger(false, false)

	if err := run(logger); err != nil {
		logger.Error("failed to run", err, nil)
		os.Exit(1)
	}
}

func run(logger watermill.LoggerAdapter) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	c, err := clients.New(cfg.GatewayAddress)
	if err != nil {
		return fmt.Errorf("creating gateway client: %w", err)
	}

	notificationsClient := clients.NewNotificationsClient(c)
	paymentsClient := clients.NewPaymentsClient(c)
	receiptsClient := clients.NewReceiptsClient(c)
	spreadsheetsClient := clients.NewSpreadsheetsClient(c)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddress,
	})
	defer func() {
		if err := rdb.Conn().Close(); err != nil {
			logger.Error("failed to close redis connection", err, nil)
		}
	}()

	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close db connection", err, nil)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := postgres.InitialiseDB(ctx, db); err != nil {
		return fmt.Errorf("initialising db: %w", err)
	}

	svc, err := service.New(cfg, logger, rdb, db, notificationsClient, paymentsClient, receiptsClient, spreadsheetsClient)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	return svc.Run(ctx)
}
