package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/config"
	"github.com/kbai612/churn-analytics-service/internal/export"
	"github.com/kbai612/churn-analytics-service/internal/feature"
	"github.com/kbai612/churn-analytics-service/internal/logger"
	"github.com/kbai612/churn-analytics-service/internal/repository/clickhouse"
	"github.com/kbai612/churn-analytics-service/internal/service"
	"github.com/kbai612/churn-analytics-service/internal/staging"
)

func main() {
	asOfFlag := flag.String("as-of", "", "as-of date (YYYY-MM-DD, overrides PIPELINE_AS_OF)")
	exportPath := flag.String("export", "", "optional CSV path for the computed feature mart")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *asOfFlag != "" {
		cfg.Pipeline.AsOf = *asOfFlag
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

	asOf, err := cfg.Pipeline.AsOfTime(time.Now().UTC())
	if err != nil {
		log.Fatal("Invalid as-of date", zap.Error(err))
	}

	log.Info("Starting transformation run",
		zap.Time("as_of", asOf),
		zap.Int("churn_threshold_days", cfg.Pipeline.ChurnThresholdDays))

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

	engine, err := feature.NewEngine(cfg.Pipeline.ChurnThresholdDays, log)
	if err != nil {
		log.Fatal("Failed to create feature engine", zap.Error(err))
	}

	transform := service.NewTransformService(repo, repo, staging.NewCleaner(log), engine, log)

	records, err := transform.Run(ctx, asOf)
	if err != nil {
		log.Fatal("Transformation run failed", zap.Error(err))
	}

	if *exportPath != "" {
		f, err := os.Create(*exportPath)
		if err != nil {
			log.Fatal("Failed to create export file", zap.Error(err))
		}
		if err := export.WriteFeatures(f, records); err != nil {
			f.Close()
			log.Fatal("Failed to write feature export", zap.Error(err))
		}
		if err := f.Close(); err != nil {
			log.Fatal("Failed to close export file", zap.Error(err))
		}
		log.Info("Feature mart exported",
			zap.String("path", *exportPath),
			zap.Int("rows", len(records)))
	}
}
