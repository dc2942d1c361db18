package feature

import (
	"time"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// noActivityDays is the sentinel recency for customers with no transactions
// or events. It sorts to the least-recent end of the population so quantile
// ranking stays total without propagating nulls.
const noActivityDays = 9999

// daysBetween is the whole number of days from t to asOf.
func daysBetween(t, asOf time.Time) int {
	return int(asOf.Sub(t).Hours() / 24)
}

// txAggregate summarizes one customer's transactions.
type txAggregate struct {
	count    int
	sum      float64
	lastDate time.Time
}

func (a txAggregate) avg() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

func (a txAggregate) recencyDays(asOf time.Time) int {
	if a.count == 0 {
		return noActivityDays
	}
	return daysBetween(a.lastDate, asOf)
}

func aggregateTransactions(txs []*domain.Transaction) map[string]*txAggregate {
	aggs := make(map[string]*txAggregate)
	for _, tx := range txs {
		agg, ok := aggs[tx.CustomerID]
		if !ok {
			agg = &txAggregate{}
			aggs[tx.CustomerID] = agg
		}
		agg.count++
		agg.sum += tx.TotalAmount
		if tx.TransactionDate.After(agg.lastDate) {
			agg.lastDate = tx.TransactionDate
		}
	}
	return aggs
}

// eventAggregate summarizes one customer's behavioral events.
type eventAggregate struct {
	total        int
	logins       int
	featureUsage int
	tickets      int
	crashes      int

	activeDays   map[string]struct{}
	sessionSum   float64
	sessionCount int

	last7  int
	last30 int
	last90 int

	loginsLast30  int
	featureLast30 int
	ticketsLast90 int
	crashesLast90 int

	lastEvent time.Time
	lastLogin time.Time
}

func (a *eventAggregate) daysSinceLastEvent(asOf time.Time) int {
	if a == nil || a.total == 0 {
		return noActivityDays
	}
	return daysBetween(a.lastEvent, asOf)
}

func (a *eventAggregate) daysSinceLastLogin(asOf time.Time) int {
	if a == nil || a.logins == 0 {
		return noActivityDays
	}
	return daysBetween(a.lastLogin, asOf)
}

func (a *eventAggregate) avgSessionDuration() float64 {
	if a == nil || a.sessionCount == 0 {
		return 0
	}
	return a.sessionSum / float64(a.sessionCount)
}

func (a *eventAggregate) featuresPerLogin() float64 {
	if a == nil || a.logins == 0 {
		return 0
	}
	return float64(a.featureUsage) / float64(a.logins)
}

func (a *eventAggregate) problemEventRatePct() float64 {
	if a == nil || a.total == 0 {
		return 0
	}
	return float64(a.tickets+a.crashes) / float64(a.total) * 100
}

func aggregateEvents(events []*domain.BehavioralEvent, asOf time.Time) map[string]*eventAggregate {
	aggs := make(map[string]*eventAggregate)
	for _, ev := range events {
		// Events after the as-of instant belong to a later snapshot.
		if ev.EventDate.After(asOf) {
			continue
		}

		agg, ok := aggs[ev.CustomerID]
		if !ok {
			agg = &eventAggregate{activeDays: make(map[string]struct{})}
			aggs[ev.CustomerID] = agg
		}

		agg.total++
		agg.activeDays[ev.EventDate.Format("2006-01-02")] = struct{}{}
		if ev.EventDate.After(agg.lastEvent) {
			agg.lastEvent = ev.EventDate
		}

		age := daysBetween(ev.EventDate, asOf)
		if age <= 7 {
			agg.last7++
		}
		if age <= 30 {
			agg.last30++
		}
		if age <= 90 {
			agg.last90++
		}

		switch {
		case ev.EventType == domain.EventLogin:
			agg.logins++
			if age <= 30 {
				agg.loginsLast30++
			}
			if ev.EventDate.After(agg.lastLogin) {
				agg.lastLogin = ev.EventDate
			}
			if ev.SessionDurationMinutes > 0 {
				agg.sessionSum += ev.SessionDurationMinutes
				agg.sessionCount++
			}
		case ev.IsFeatureUsage():
			agg.featureUsage++
			if age <= 30 {
				agg.featureLast30++
			}
		case ev.EventType == domain.EventSupportTicket:
			agg.tickets++
			if age <= 90 {
				agg.ticketsLast90++
			}
		case ev.EventType == domain.EventAppCrash:
			agg.crashes++
			if age <= 90 {
				agg.crashesLast90++
			}
		}
	}
	return aggs
}
