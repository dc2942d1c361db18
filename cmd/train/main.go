package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/config"
	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/export"
	"github.com/kbai612/churn-analytics-service/internal/logger"
	"github.com/kbai612/churn-analytics-service/internal/ml"
	"github.com/kbai612/churn-analytics-service/internal/repository/clickhouse"
)

func main() {
	inputPath := flag.String("input", "", "optional CSV feature export (default: read the warehouse mart)")
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

	records, err := loadRecords(cfg, *inputPath, log)
	if err != nil {
		log.Fatal("Failed to load feature records", zap.Error(err))
	}

	log.Info("Starting training run",
		zap.Int("records", len(records)),
		zap.String("artifacts_dir", cfg.Training.ArtifactsDir),
		zap.Int64("seed", cfg.Training.Seed))

	trainer := ml.NewTrainer(cfg.Training, log)

	report, err := trainer.Train(records)
	if err != nil {
		log.Fatal("Training run failed", zap.Error(err))
	}

	log.Info("Training run complete",
		zap.String("best_model", report.BestModelName),
		zap.Int("train_rows", report.TrainRows),
		zap.Int("test_rows", report.TestRows),
		zap.Duration("duration", report.Duration))
}

// loadRecords reads the feature mart from a CSV export or the warehouse.
func loadRecords(cfg *config.Config, inputPath string, log *zap.Logger) ([]*domain.ChurnFeatureRecord, error) {
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open feature export: %w", err)
		}
		defer f.Close()

		records, err := export.ReadFeatures(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read feature export: %w", err)
		}
		log.Info("Feature export loaded",
			zap.String("path", inputPath),
			zap.Int("rows", len(records)))
		return records, nil
	}

	ctx := context.Background()

	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	repo := clickhouse.NewRepository(chClient, log)
	return repo.ChurnFeatures(ctx)
}
