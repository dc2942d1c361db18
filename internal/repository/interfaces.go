package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// ErrCustomerNotFound is returned when a customer has no feature mart row.
var ErrCustomerNotFound = errors.New("customer not found in feature mart")

// RiskTierCount is the number of customers in one churn-risk tier.
type RiskTierCount struct {
	Tier      string
	Customers uint64
}

// InsightSummary aggregates the feature mart for the dashboard.
type InsightSummary struct {
	TotalCustomers     uint64
	ChurnedCustomers   uint64
	ChurnRate          float64
	TotalRevenueAtRisk float64
	AvgRiskScore       float64
	RiskTiers          []RiskTierCount
}

// EventRepository defines the storage operations used by the ingestion
// pipeline.
type EventRepository interface {
	// InsertEvents inserts a batch of behavioral events.
	InsertEvents(ctx context.Context, events []*domain.BehavioralEvent) (int, error)

	// InitSchema creates the warehouse tables if they do not exist.
	InitSchema(ctx context.Context) error

	// Ping checks if the warehouse connection is alive.
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}

// SnapshotRepository reads the raw entity tables consumed by the
// transformation run.
type SnapshotRepository interface {
	Customers(ctx context.Context) ([]*domain.Customer, error)
	Subscriptions(ctx context.Context) ([]*domain.Subscription, error)
	Transactions(ctx context.Context) ([]*domain.Transaction, error)
	BehavioralEvents(ctx context.Context) ([]*domain.BehavioralEvent, error)
}

// MartRepository writes and reads the derived marts. Feature mart writes are
// replace-all: the new snapshot lands in a side table and is swapped in
// atomically, so an interrupted run leaves the previous mart untouched.
type MartRepository interface {
	ReplaceChurnFeatures(ctx context.Context, records []*domain.ChurnFeatureRecord) error
	AppendCohortSnapshots(ctx context.Context, rows []*domain.CohortRetention) error
	ChurnFeatures(ctx context.Context) ([]*domain.ChurnFeatureRecord, error)
	CustomerFeature(ctx context.Context, customerID string) (*domain.ChurnFeatureRecord, error)
	Summary(ctx context.Context) (*InsightSummary, error)
}

// SeedRepository loads generated raw entities into the warehouse.
type SeedRepository interface {
	InsertCustomers(ctx context.Context, customers []*domain.Customer) (int, error)
	InsertSubscriptions(ctx context.Context, subs []*domain.Subscription) (int, error)
	InsertTransactions(ctx context.Context, txs []*domain.Transaction) (int, error)
	InsertEvents(ctx context.Context, events []*domain.BehavioralEvent) (int, error)
}

// Clock returns the reference instant for recency computations. Production
// code passes time.Now at the entry point; tests pass fixtures.
type Clock func() time.Time
