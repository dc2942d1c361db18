package feature

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/staging"
)

var testAsOf = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	eng, err := NewEngine(90, zap.NewNop())
	assert.NoError(t, err)
	return eng
}

func daysAgo(days int) time.Time {
	return testAsOf.AddDate(0, 0, -days)
}

// testSnapshot builds a small but fully populated snapshot: an active,
// engaged customer, a quiet one, one with no transactions at all, and one
// with no subscription on record.
func testSnapshot() *staging.Snapshot {
	snap := &staging.Snapshot{
		Customers: []*domain.Customer{
			{CustomerID: "CUST-001", Age: 34, Gender: "F", Segment: "Premium",
				AcquisitionChannel: "Organic", DeviceType: "iOS", SignupDate: daysAgo(400)},
			{CustomerID: "CUST-002", Age: 52, Gender: "M", Segment: "Basic",
				AcquisitionChannel: "Paid Search", DeviceType: "Android", SignupDate: daysAgo(700)},
			{CustomerID: "CUST-003", Age: 29, Gender: "F", Segment: "Basic",
				AcquisitionChannel: "Referral", DeviceType: "Web", SignupDate: daysAgo(45)},
			{CustomerID: "CUST-004", Age: 61, Gender: "M", Segment: "Premium",
				AcquisitionChannel: "Organic", DeviceType: "Web", SignupDate: daysAgo(900)},
		},
		Subscriptions: []*domain.Subscription{
			{CustomerID: "CUST-001", PlanType: "Pro", ContractType: "Annual",
				MonthlyCharges: 49.99, LastPaymentDate: daysAgo(10), IsActive: 1},
			{CustomerID: "CUST-002", PlanType: "Basic", ContractType: "Month-to-month",
				MonthlyCharges: 9.99, LastPaymentDate: daysAgo(120), IsActive: 0},
			{CustomerID: "CUST-003", PlanType: "Basic", ContractType: "Month-to-month",
				MonthlyCharges: 9.99, LastPaymentDate: daysAgo(5), IsActive: 1},
		},
	}

	for i := 0; i < 12; i++ {
		snap.Transactions = append(snap.Transactions, &domain.Transaction{
			TransactionID:   fmt.Sprintf("TX-%03d", i),
			CustomerID:      "CUST-001",
			TransactionDate: daysAgo(5 + i*20),
			TotalAmount:     80,
			Quantity:        1,
		})
	}
	snap.Transactions = append(snap.Transactions, &domain.Transaction{
		TransactionID: "TX-900", CustomerID: "CUST-002",
		TransactionDate: daysAgo(200), TotalAmount: 15, Quantity: 1,
	})

	for i := 0; i < 25; i++ {
		snap.Events = append(snap.Events,
			&domain.BehavioralEvent{EventID: fmt.Sprintf("EV-L%03d", i), CustomerID: "CUST-001",
				EventDate: daysAgo(1 + i), EventType: domain.EventLogin, SessionDurationMinutes: 12},
			&domain.BehavioralEvent{EventID: fmt.Sprintf("EV-F%03d", i), CustomerID: "CUST-001",
				EventDate: daysAgo(1 + i), EventType: "feature_dashboard"},
		)
	}
	snap.Events = append(snap.Events, &domain.BehavioralEvent{
		EventID: "EV-X01", CustomerID: "CUST-002",
		EventDate: daysAgo(100), EventType: domain.EventLogin,
	})

	return snap
}

func TestEngine_Compute_EmptyInput(t *testing.T) {
	_, err := testEngine(t).Compute(&staging.Snapshot{}, testAsOf)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestNewEngine_RejectsNonPositiveThreshold(t *testing.T) {
	_, err := NewEngine(0, zap.NewNop())
	assert.Error(t, err)
	_, err = NewEngine(-5, zap.NewNop())
	assert.Error(t, err)
}

func TestEngine_Compute_OneRecordPerCustomerSorted(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)
	assert.Len(t, records, 4)

	for i := 1; i < len(records); i++ {
		assert.Less(t, records[i-1].CustomerID, records[i].CustomerID)
	}
}

func TestEngine_Compute_Deterministic(t *testing.T) {
	eng := testEngine(t)
	first, err := eng.Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)
	second, err := eng.Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_Compute_OutputRanges(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	for _, rec := range records {
		assert.Contains(t, []uint8{0, 1}, rec.ChurnFlag, rec.CustomerID)
		assert.GreaterOrEqual(t, rec.ChurnRiskScore, int32(riskScoreDefault), rec.CustomerID)
		assert.LessOrEqual(t, rec.ChurnRiskScore, int32(riskScoreMax), rec.CustomerID)
		for _, score := range []int32{rec.RecencyScore, rec.FrequencyScore, rec.MonetaryScore} {
			assert.GreaterOrEqual(t, score, int32(1), rec.CustomerID)
			assert.LessOrEqual(t, score, int32(5), rec.CustomerID)
		}
		assert.NotEmpty(t, rec.RFMSegment, rec.CustomerID)
		assert.NotEmpty(t, rec.RiskTier, rec.CustomerID)
		assert.NotEmpty(t, rec.RecommendedAction, rec.CustomerID)
		assert.GreaterOrEqual(t, rec.RevenueAtRisk, 0.0, rec.CustomerID)
		assert.Equal(t, testAsOf, rec.AsOfDate, rec.CustomerID)
	}
}

func byID(t *testing.T, records []*domain.ChurnFeatureRecord, id string) *domain.ChurnFeatureRecord {
	t.Helper()
	for _, rec := range records {
		if rec.CustomerID == id {
			return rec
		}
	}
	t.Fatalf("record %s not found", id)
	return nil
}

func TestEngine_Compute_ChurnFlagThresholdBoundary(t *testing.T) {
	snap := &staging.Snapshot{
		Customers: []*domain.Customer{
			{CustomerID: "AT-THRESHOLD", SignupDate: daysAgo(500)},
			{CustomerID: "PAST-THRESHOLD", SignupDate: daysAgo(500)},
		},
		Subscriptions: []*domain.Subscription{
			{CustomerID: "AT-THRESHOLD", PlanType: "Basic", ContractType: "Annual",
				LastPaymentDate: daysAgo(90)},
			{CustomerID: "PAST-THRESHOLD", PlanType: "Basic", ContractType: "Annual",
				LastPaymentDate: daysAgo(91)},
		},
	}

	records, err := testEngine(t).Compute(snap, testAsOf)
	assert.NoError(t, err)

	// A payment exactly at the threshold is still active; the flag flips only
	// strictly past it.
	assert.Equal(t, uint8(0), byID(t, records, "AT-THRESHOLD").ChurnFlag)
	assert.Equal(t, uint8(1), byID(t, records, "PAST-THRESHOLD").ChurnFlag)
}

func TestEngine_Compute_MissingSubscriptionTreatedAsChurned(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	rec := byID(t, records, "CUST-004")
	assert.Equal(t, uint8(1), rec.ChurnFlag)
	assert.Equal(t, "Unknown", rec.ContractType)
	assert.Equal(t, "Unknown", rec.PlanType)
	assert.Equal(t, int32(100), rec.ChurnRiskScore)
	assert.Equal(t, domain.TierCritical, rec.RiskTier)
	assert.Equal(t, "Win-back campaign", rec.RecommendedAction)
}

func TestEngine_Compute_NoActivitySentinels(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	// CUST-003 never bought anything and never emitted an event.
	rec := byID(t, records, "CUST-003")
	assert.Equal(t, int32(noActivityDays), rec.RecencyDays)
	assert.Equal(t, int32(noActivityDays), rec.DaysSinceLastEvent)
	assert.Equal(t, int32(noActivityDays), rec.DaysSinceLastLogin)
	assert.Equal(t, int32(0), rec.Frequency)
	assert.Equal(t, 0.0, rec.Monetary)
	assert.Equal(t, int32(0), rec.EngagementRecencyScore)
	assert.Equal(t, "No Data", rec.EngagementSegment)
	assert.Equal(t, baselineLifetimeValue, rec.EstimatedLifetimeValue)
}

func TestEngine_Compute_EngagedCustomerScoresHigh(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	active := byID(t, records, "CUST-001")
	quiet := byID(t, records, "CUST-002")

	assert.Equal(t, uint8(0), active.ChurnFlag)
	assert.Equal(t, uint8(1), quiet.ChurnFlag)
	assert.Greater(t, active.RFMCompositeScore, quiet.RFMCompositeScore)
	assert.Greater(t, active.EngagementCompositeScore, quiet.EngagementCompositeScore)
	assert.Less(t, active.ChurnRiskScore, quiet.ChurnRiskScore)
	assert.Equal(t, int32(25), active.LoginsLast30Days)
	assert.InDelta(t, 12.0, active.AvgSessionDurationMinutes, 1e-9)
}

func TestEngine_Compute_EventsAfterAsOfIgnored(t *testing.T) {
	snap := testSnapshot()
	snap.Events = append(snap.Events, &domain.BehavioralEvent{
		EventID: "EV-FUTURE", CustomerID: "CUST-003",
		EventDate: testAsOf.AddDate(0, 0, 7), EventType: domain.EventLogin,
	})

	records, err := testEngine(t).Compute(snap, testAsOf)
	assert.NoError(t, err)

	rec := byID(t, records, "CUST-003")
	assert.Equal(t, int32(0), rec.TotalEvents)
	assert.Equal(t, "No Data", rec.EngagementSegment)
}

func TestEngine_Compute_RevenueAtRiskScalesWithLTV(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	for _, rec := range records {
		want := rec.EstimatedLifetimeValue * revenueAtRiskMultiplier(int(rec.ChurnRiskScore))
		assert.InDelta(t, want, rec.RevenueAtRisk, 1e-9, rec.CustomerID)
	}
}

func TestCohortSnapshots(t *testing.T) {
	records, err := testEngine(t).Compute(testSnapshot(), testAsOf)
	assert.NoError(t, err)

	rows := CohortSnapshots(records, testAsOf)
	assert.NotEmpty(t, rows)

	var totalCustomers uint64
	for _, row := range rows {
		totalCustomers += row.Customers
		assert.Equal(t, testAsOf.Format("2006-01"), row.SnapshotMonth)
		assert.GreaterOrEqual(t, row.RetentionRate, 0.0)
		assert.LessOrEqual(t, row.RetentionRate, 1.0)
		assert.LessOrEqual(t, row.Churned, row.Customers)
	}
	assert.Equal(t, uint64(len(records)), totalCustomers)

	// Cohort months come out sorted.
	for i := 1; i < len(rows); i++ {
		assert.Less(t, rows[i-1].CohortMonth, rows[i].CohortMonth)
	}
}
