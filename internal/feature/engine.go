// Package feature turns a cleaned warehouse snapshot into the decision-ready
// churn feature mart: RFM quintile scores, behavioral engagement scores, the
// rule-based churn risk cascade, segment labels, and monetary projections.
// All recency is computed against an explicit as-of instant, so a run over an
// unchanged snapshot is fully deterministic.
package feature

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/staging"
)

var (
	// ErrEmptyInput is returned when the snapshot holds no customers.
	ErrEmptyInput = errors.New("empty input set")
	// ErrInvalidThreshold is returned for a non-positive churn threshold.
	ErrInvalidThreshold = errors.New("invalid churn threshold")
)

// Engine computes the churn feature mart from a staged snapshot.
type Engine struct {
	churnThresholdDays int
	log                *zap.Logger
}

// NewEngine creates a feature engine with the given churn threshold in days.
func NewEngine(churnThresholdDays int, log *zap.Logger) (*Engine, error) {
	if churnThresholdDays <= 0 {
		return nil, fmt.Errorf("%w: %d days", ErrInvalidThreshold, churnThresholdDays)
	}
	return &Engine{churnThresholdDays: churnThresholdDays, log: log}, nil
}

// Compute builds one ChurnFeatureRecord per customer. The result is a full
// replacement of any previous mart, ordered by customer ID.
func (e *Engine) Compute(snap *staging.Snapshot, asOf time.Time) ([]*domain.ChurnFeatureRecord, error) {
	if len(snap.Customers) == 0 {
		return nil, fmt.Errorf("%w: snapshot has no customers", ErrEmptyInput)
	}

	subsByCustomer := make(map[string]*domain.Subscription, len(snap.Subscriptions))
	for _, sub := range snap.Subscriptions {
		subsByCustomer[sub.CustomerID] = sub
	}

	txAggs := aggregateTransactions(snap.Transactions)
	eventAggs := aggregateEvents(snap.Events, asOf)

	// Population ranking for the quantile scores needs every customer at
	// once; zero-transaction customers enter with sentinel recency and zero
	// frequency/monetary, which deterministically ranks them in bucket 1.
	ids := make([]string, 0, len(snap.Customers))
	recency := make([]float64, 0, len(snap.Customers))
	frequency := make([]float64, 0, len(snap.Customers))
	monetary := make([]float64, 0, len(snap.Customers))

	for _, cust := range snap.Customers {
		agg := txAggs[cust.CustomerID]
		ids = append(ids, cust.CustomerID)
		if agg == nil {
			recency = append(recency, -float64(noActivityDays))
			frequency = append(frequency, 0)
			monetary = append(monetary, 0)
			continue
		}
		// Recency is negated so that more recent ranks higher.
		recency = append(recency, -float64(agg.recencyDays(asOf)))
		frequency = append(frequency, float64(agg.count))
		monetary = append(monetary, agg.sum)
	}

	recencyScores := quintileScores(ids, recency)
	frequencyScores := quintileScores(ids, frequency)
	monetaryScores := quintileScores(ids, monetary)

	records := make([]*domain.ChurnFeatureRecord, 0, len(snap.Customers))
	for _, cust := range snap.Customers {
		dim := cust.Tenure(asOf)
		rec := e.buildRecord(dim, subsByCustomer[cust.CustomerID],
			txAggs[cust.CustomerID], eventAggs[cust.CustomerID], asOf)

		rec.RecencyScore = int32(recencyScores[cust.CustomerID])
		rec.FrequencyScore = int32(frequencyScores[cust.CustomerID])
		rec.MonetaryScore = int32(monetaryScores[cust.CustomerID])
		rec.RFMCompositeScore = rfmComposite(
			int(rec.RecencyScore), int(rec.FrequencyScore), int(rec.MonetaryScore))
		rec.RFMSegment = rfmSegment(
			int(rec.RecencyScore), int(rec.FrequencyScore), int(rec.MonetaryScore))

		e.score(rec)
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CustomerID < records[j].CustomerID
	})

	e.log.Info("Feature mart computed",
		zap.Int("customers", len(records)),
		zap.Time("as_of", asOf),
		zap.Int("churn_threshold_days", e.churnThresholdDays))

	return records, nil
}

// buildRecord assembles the metric fields of one record before scoring.
func (e *Engine) buildRecord(
	dim domain.CustomerDimension,
	sub *domain.Subscription,
	txAgg *txAggregate,
	evAgg *eventAggregate,
	asOf time.Time,
) *domain.ChurnFeatureRecord {
	rec := &domain.ChurnFeatureRecord{
		CustomerID:             dim.CustomerID,
		AsOfDate:               asOf,
		Age:                    dim.Age,
		Gender:                 dim.Gender,
		Segment:                dim.Segment,
		AcquisitionChannel:     dim.AcquisitionChannel,
		DeviceType:             dim.DeviceType,
		InitialReferralCredits: dim.InitialReferralCredits,
		CohortMonth:            dim.CohortMonth,
		TenureDays:             int32(dim.TenureDays),
		TenureMonths:           int32(dim.TenureMonths),
	}

	if sub != nil {
		rec.ContractType = sub.ContractType
		rec.PlanType = sub.PlanType
		rec.MonthlyCharges = sub.MonthlyCharges
		if daysBetween(sub.LastPaymentDate, asOf) > e.churnThresholdDays {
			rec.ChurnFlag = 1
		}
	} else {
		// No subscription on record means no payment on record.
		rec.ContractType = "Unknown"
		rec.PlanType = "Unknown"
		rec.ChurnFlag = 1
	}

	if txAgg != nil {
		rec.RecencyDays = int32(txAgg.recencyDays(asOf))
		rec.Frequency = int32(txAgg.count)
		rec.Monetary = txAgg.sum
		rec.AvgTransactionValue = txAgg.avg()
		rec.TotalTransactions = int32(txAgg.count)
	} else {
		rec.RecencyDays = noActivityDays
	}
	rec.DaysSinceLastTransaction = rec.RecencyDays

	hasEvents := evAgg != nil && evAgg.total > 0
	if hasEvents {
		rec.TotalEvents = int32(evAgg.total)
		rec.ActiveDays = int32(len(evAgg.activeDays))
		rec.LoginCount = int32(evAgg.logins)
		rec.FeatureUsageCount = int32(evAgg.featureUsage)
		rec.SupportTicketCount = int32(evAgg.tickets)
		rec.AppCrashCount = int32(evAgg.crashes)
		rec.EventsLast7Days = int32(evAgg.last7)
		rec.EventsLast30Days = int32(evAgg.last30)
		rec.EventsLast90Days = int32(evAgg.last90)
		rec.LoginsLast30Days = int32(evAgg.loginsLast30)
		rec.FeatureUsageLast30Days = int32(evAgg.featureLast30)
		rec.SupportTicketsLast90Days = int32(evAgg.ticketsLast90)
		rec.AppCrashesLast90Days = int32(evAgg.crashesLast90)
		rec.AvgSessionDurationMinutes = evAgg.avgSessionDuration()
		rec.FeaturesPerLogin = evAgg.featuresPerLogin()
		rec.ProblemEventRatePct = evAgg.problemEventRatePct()

		tenure := dim.TenureDays
		if tenure < 1 {
			tenure = 1
		}
		rec.EngagementRate = float64(len(evAgg.activeDays)) / float64(tenure) * 100
		rec.AvgEventsPerActiveDay = float64(evAgg.total) / float64(len(evAgg.activeDays))
	}
	rec.DaysSinceLastEvent = int32(evAgg.daysSinceLastEvent(asOf))
	rec.DaysSinceLastLogin = int32(evAgg.daysSinceLastLogin(asOf))

	rec.EngagementRecencyScore = int32(engagementRecencyScore(int(rec.DaysSinceLastEvent), hasEvents))
	rec.EngagementFrequencyScore = int32(engagementFrequencyScore(int(rec.LoginsLast30Days), hasEvents))
	rec.FeatureAdoptionScore = int32(featureAdoptionScore(int(rec.FeatureUsageLast30Days), hasEvents))
	rec.EngagementCompositeScore = engagementComposite(
		int(rec.EngagementRecencyScore), int(rec.EngagementFrequencyScore), int(rec.FeatureAdoptionScore))
	rec.EngagementSegment = engagementSegment(rec.EngagementCompositeScore)

	return rec
}

// score fills the risk, action, and monetary projection fields. The RFM and
// engagement scores must already be assigned.
func (e *Engine) score(rec *domain.ChurnFeatureRecord) {
	rec.ChurnRiskScore = int32(churnRiskScore(riskInput{
		Churned:             rec.ChurnFlag == 1,
		RecencyDays:         int(rec.RecencyDays),
		DaysSinceLastEvent:  int(rec.DaysSinceLastEvent),
		TenureDays:          int(rec.TenureDays),
		LoginsLast30:        int(rec.LoginsLast30Days),
		TicketsLast90:       int(rec.SupportTicketsLast90Days),
		CrashesLast90:       int(rec.AppCrashesLast90Days),
		RecencyScore:        int(rec.RecencyScore),
		FrequencyScore:      int(rec.FrequencyScore),
		MonetaryScore:       int(rec.MonetaryScore),
		EngagementComposite: rec.EngagementCompositeScore,
		MonthToMonth:        rec.ContractType == "Month-to-month",
	}))
	rec.RiskTier = riskTier(int(rec.ChurnRiskScore))

	rec.RecommendedAction = recommendedAction(actionInput{
		Churned:           rec.ChurnFlag == 1,
		RiskScore:         int(rec.ChurnRiskScore),
		EngagementSegment: rec.EngagementSegment,
		RFMSegment:        rec.RFMSegment,
	})

	rec.EstimatedLifetimeValue = estimatedLifetimeValue(
		rec.Monetary, int(rec.Frequency), rec.EngagementCompositeScore)
	rec.RevenueAtRisk = rec.EstimatedLifetimeValue * revenueAtRiskMultiplier(int(rec.ChurnRiskScore))
}

// CohortSnapshots derives the month-over-month retention rows for the given
// feature records.
func CohortSnapshots(records []*domain.ChurnFeatureRecord, asOf time.Time) []*domain.CohortRetention {
	type cohortAgg struct {
		customers uint64
		churned   uint64
		first     time.Time
	}

	byCohort := make(map[string]*cohortAgg)
	for _, rec := range records {
		agg, ok := byCohort[rec.CohortMonth]
		if !ok {
			first, err := time.Parse("2006-01", rec.CohortMonth)
			if err != nil {
				continue
			}
			agg = &cohortAgg{first: first}
			byCohort[rec.CohortMonth] = agg
		}
		agg.customers++
		if rec.ChurnFlag == 1 {
			agg.churned++
		}
	}

	months := make([]string, 0, len(byCohort))
	for m := range byCohort {
		months = append(months, m)
	}
	sort.Strings(months)

	snapshotMonth := asOf.Format("2006-01")
	rows := make([]*domain.CohortRetention, 0, len(months))
	for _, m := range months {
		agg := byCohort[m]
		retention := 0.0
		if agg.customers > 0 {
			retention = 1 - float64(agg.churned)/float64(agg.customers)
		}
		monthsSince := (asOf.Year()-agg.first.Year())*12 + int(asOf.Month()-agg.first.Month())
		if monthsSince < 0 {
			monthsSince = 0
		}
		rows = append(rows, &domain.CohortRetention{
			CohortMonth:    m,
			SnapshotMonth:  snapshotMonth,
			Customers:      agg.customers,
			Churned:        agg.churned,
			RetentionRate:  retention,
			ComputedAt:     asOf,
			SnapshotNumber: uint32(monthsSince),
		})
	}
	return rows
}
