package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/feature"
	"github.com/kbai612/churn-analytics-service/internal/repository"
	"github.com/kbai612/churn-analytics-service/internal/staging"
)

// TransformService runs the feature transformation: load the raw snapshot,
// stage it, compute the feature mart, and replace the warehouse marts.
type TransformService struct {
	snapshots repository.SnapshotRepository
	marts     repository.MartRepository
	cleaner   *staging.Cleaner
	engine    *feature.Engine
	log       *zap.Logger
}

// NewTransformService creates a new transform service.
func NewTransformService(
	snapshots repository.SnapshotRepository,
	marts repository.MartRepository,
	cleaner *staging.Cleaner,
	engine *feature.Engine,
	log *zap.Logger,
) *TransformService {
	return &TransformService{
		snapshots: snapshots,
		marts:     marts,
		cleaner:   cleaner,
		engine:    engine,
		log:       log,
	}
}

// Run executes one full transformation as of the given instant and returns
// the computed feature records.
func (s *TransformService) Run(ctx context.Context, asOf time.Time) ([]*domain.ChurnFeatureRecord, error) {
	start := time.Now()

	customers, err := s.snapshots.Customers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}
	subs, err := s.snapshots.Subscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	txs, err := s.snapshots.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	events, err := s.snapshots.BehavioralEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load behavioral events: %w", err)
	}

	snap := s.cleaner.Clean(customers, subs, txs, events)

	records, err := s.engine.Compute(snap, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute feature mart: %w", err)
	}

	if err := s.marts.ReplaceChurnFeatures(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to replace feature mart: %w", err)
	}

	cohorts := feature.CohortSnapshots(records, asOf)
	if err := s.marts.AppendCohortSnapshots(ctx, cohorts); err != nil {
		return nil, fmt.Errorf("failed to append cohort snapshots: %w", err)
	}

	s.log.Info("Transformation run complete",
		zap.Int("customers", len(records)),
		zap.Int("cohorts", len(cohorts)),
		zap.Time("as_of", asOf),
		zap.Duration("elapsed", time.Since(start)))

	return records, nil
}
