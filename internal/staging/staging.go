// Package staging normalizes raw warehouse rows before fact building.
// Data-quality problems are recovered locally: the offending row is dropped
// and counted, never fatal to the run.
package staging

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// Cleaner applies row-level data-quality rules to a raw snapshot.
type Cleaner struct {
	log *zap.Logger
}

// NewCleaner creates a new staging cleaner.
func NewCleaner(log *zap.Logger) *Cleaner {
	return &Cleaner{log: log}
}

// Snapshot is an immutable, cleaned input snapshot for the feature engine.
type Snapshot struct {
	Customers     []*domain.Customer
	Subscriptions []*domain.Subscription
	Transactions  []*domain.Transaction
	Events        []*domain.BehavioralEvent
}

// Clean stages a full raw snapshot: trims strings, drops rows with missing
// customer references, malformed dates, or negative amounts, and drops facts
// that reference no known customer.
func (c *Cleaner) Clean(
	customers []*domain.Customer,
	subs []*domain.Subscription,
	txs []*domain.Transaction,
	events []*domain.BehavioralEvent,
) *Snapshot {
	snap := &Snapshot{}

	known := make(map[string]struct{}, len(customers))
	droppedCustomers := 0
	for _, cust := range customers {
		cust.CustomerID = strings.TrimSpace(cust.CustomerID)
		if cust.CustomerID == "" || cust.SignupDate.IsZero() {
			droppedCustomers++
			continue
		}
		cust.Gender = strings.TrimSpace(cust.Gender)
		cust.Segment = strings.TrimSpace(cust.Segment)
		cust.AcquisitionChannel = strings.TrimSpace(cust.AcquisitionChannel)
		cust.DeviceType = strings.TrimSpace(cust.DeviceType)
		known[cust.CustomerID] = struct{}{}
		snap.Customers = append(snap.Customers, cust)
	}

	droppedSubs := 0
	for _, sub := range subs {
		sub.CustomerID = strings.TrimSpace(sub.CustomerID)
		if _, ok := known[sub.CustomerID]; !ok || sub.LastPaymentDate.IsZero() || sub.MonthlyCharges < 0 {
			droppedSubs++
			continue
		}
		sub.PlanType = strings.TrimSpace(sub.PlanType)
		sub.ContractType = strings.TrimSpace(sub.ContractType)
		snap.Subscriptions = append(snap.Subscriptions, sub)
	}

	droppedTxs := 0
	for _, tx := range txs {
		tx.CustomerID = strings.TrimSpace(tx.CustomerID)
		if _, ok := known[tx.CustomerID]; !ok || tx.TransactionDate.IsZero() || tx.TotalAmount < 0 || tx.Quantity <= 0 {
			droppedTxs++
			continue
		}
		tx.ProductCategory = strings.TrimSpace(tx.ProductCategory)
		tx.PaymentMethod = strings.TrimSpace(tx.PaymentMethod)
		snap.Transactions = append(snap.Transactions, tx)
	}

	droppedEvents := 0
	for _, ev := range events {
		ev.CustomerID = strings.TrimSpace(ev.CustomerID)
		if _, ok := known[ev.CustomerID]; !ok || ev.EventDate.IsZero() || ev.EventType == "" {
			droppedEvents++
			continue
		}
		ev.EventType = strings.TrimSpace(ev.EventType)
		snap.Events = append(snap.Events, ev)
	}

	c.log.Info("Staging complete",
		zap.Int("customers", len(snap.Customers)),
		zap.Int("subscriptions", len(snap.Subscriptions)),
		zap.Int("transactions", len(snap.Transactions)),
		zap.Int("events", len(snap.Events)),
		zap.Int("dropped_customers", droppedCustomers),
		zap.Int("dropped_subscriptions", droppedSubs),
		zap.Int("dropped_transactions", droppedTxs),
		zap.Int("dropped_events", droppedEvents))

	return snap
}
