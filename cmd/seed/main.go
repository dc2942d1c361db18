package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/config"
	"github.com/kbai612/churn-analytics-service/internal/logger"
	"github.com/kbai612/churn-analytics-service/internal/repository/clickhouse"
	"github.com/kbai612/churn-analytics-service/internal/seed"
)

func main() {
	customers := flag.Int("customers", 25000, "number of customers to generate")
	rngSeed := flag.Int64("seed", 42, "random seed")
	refDate := flag.String("date", "", "reference date (YYYY-MM-DD, default today)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	reference := time.Now().UTC().Truncate(24 * time.Hour)
	if *refDate != "" {
		reference, err = time.Parse("2006-01-02", *refDate)
		if err != nil {
			log.Fatal("Invalid reference date", zap.String("date", *refDate), zap.Error(err))
		}
	}

	log.Info("Starting seed run",
		zap.Int("customers", *customers),
		zap.Int64("seed", *rngSeed),
		zap.Time("reference_date", reference))

	generator, err := seed.New(seed.Config{
		Customers:          *customers,
		Seed:               *rngSeed,
		ReferenceDate:      reference,
		ChurnThresholdDays: cfg.Pipeline.ChurnThresholdDays,
	}, log)
	if err != nil {
		log.Fatal("Failed to create generator", zap.Error(err))
	}

	dataset := generator.Generate()

	ctx := context.Background()

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	repo := clickhouse.NewRepository(chClient, log)

	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	if _, err := repo.InsertCustomers(ctx, dataset.Customers); err != nil {
		log.Fatal("Failed to insert customers", zap.Error(err))
	}
	if _, err := repo.InsertSubscriptions(ctx, dataset.Subscriptions); err != nil {
		log.Fatal("Failed to insert subscriptions", zap.Error(err))
	}
	if _, err := repo.InsertTransactions(ctx, dataset.Transactions); err != nil {
		log.Fatal("Failed to insert transactions", zap.Error(err))
	}
	if _, err := repo.InsertEvents(ctx, dataset.Events); err != nil {
		log.Fatal("Failed to insert behavioral events", zap.Error(err))
	}

	log.Info("Seed run complete",
		zap.Int("customers", len(dataset.Customers)),
		zap.Int("subscriptions", len(dataset.Subscriptions)),
		zap.Int("transactions", len(dataset.Transactions)),
		zap.Int("events", len(dataset.Events)),
		zap.Float64("churn_rate", dataset.ChurnRate()))
}
