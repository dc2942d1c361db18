package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Service holds service-level settings shared by all entry points.
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
	APIPort     string `envconfig:"SERVICE_API_PORT" default:"8080"`
	Host        string `envconfig:"SERVICE_HOST" default:"localhost:8080"`
}

// ClickHouse holds warehouse connection settings.
type ClickHouse struct {
	Host            string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port            string `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	Database        string `envconfig:"CLICKHOUSE_DB" default:"churn"`
	User            string `envconfig:"CLICKHOUSE_USER" default:""`
	Password        string `envconfig:"CLICKHOUSE_PASSWORD" default:""`
	UseTLS          bool   `envconfig:"CLICKHOUSE_USE_TLS" default:"false"`
	MaxOpenConns    int    `envconfig:"CLICKHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int    `envconfig:"CLICKHOUSE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime int    `envconfig:"CLICKHOUSE_CONN_MAX_LIFETIME_SEC" default:"3600"`
}

// SQS holds queue settings for behavioral event ingestion.
type SQS struct {
	Endpoint string `envconfig:"SQS_ENDPOINT"`
	QueueURL string `envconfig:"SQS_QUEUE_URL"`
	Region   string `envconfig:"SQS_REGION" default:"eu-west-1"`
}

// Consumer holds settings for the event ingestion pipeline.
type Consumer struct {
	BatchSizeMax    int    `envconfig:"CONSUMER_BATCH_SIZE_MAX" default:"2000"`
	BatchTimeoutSec int    `envconfig:"CONSUMER_BATCH_TIMEOUT_SEC" default:"10"`
	HealthCheckPort string `envconfig:"CONSUMER_HEALTH_CHECK_PORT" default:"8081"`
}

// Pipeline holds settings for the feature transformation run.
type Pipeline struct {
	ChurnThresholdDays int    `envconfig:"PIPELINE_CHURN_THRESHOLD_DAYS" default:"90"`
	AsOf               string `envconfig:"PIPELINE_AS_OF"`
}

// Training holds settings for the model training pipeline.
type Training struct {
	ArtifactsDir string  `envconfig:"TRAINING_ARTIFACTS_DIR" default:"artifacts"`
	Seed         int64   `envconfig:"TRAINING_SEED" default:"42"`
	TestSize     float64 `envconfig:"TRAINING_TEST_SIZE" default:"0.2"`
	CVFolds      int     `envconfig:"TRAINING_CV_FOLDS" default:"5"`
	Workers      int     `envconfig:"TRAINING_WORKERS" default:"4"`
}

// Config is the root configuration shared by all commands.
type Config struct {
	Service    Service
	ClickHouse ClickHouse
	SQS        SQS
	Consumer   Consumer
	Pipeline   Pipeline
	Training   Training
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Pipeline.ChurnThresholdDays <= 0 {
		return nil, fmt.Errorf("invalid churn threshold: %d days", cfg.Pipeline.ChurnThresholdDays)
	}

	return &cfg, nil
}

// AsOfTime parses the pipeline as-of date, falling back to the given instant.
// Every recency computation is relative to this value so that a run over an
// unchanged snapshot is reproducible.
func (p Pipeline) AsOfTime(fallback time.Time) (time.Time, error) {
	if p.AsOf == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", p.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid as-of date %q: %w", p.AsOf, err)
	}
	return t, nil
}
