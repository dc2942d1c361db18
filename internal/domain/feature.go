package domain

import "time"

// Segment and tier labels emitted by the scoring engine.
const (
	TierCritical = "Critical"
	TierHigh     = "High"
	TierMedium   = "Medium"
	TierLow      = "Low"
)

// ChurnFeatureRecord is one decision-ready row per customer in the feature
// mart. The whole mart is rebuilt from the raw snapshot on every run.
type ChurnFeatureRecord struct {
	CustomerID string    `ch:"customer_id"`
	AsOfDate   time.Time `ch:"as_of_date"`

	// Dimension attributes
	Age                    int32   `ch:"age"`
	Gender                 string  `ch:"gender"`
	Segment                string  `ch:"segment"`
	AcquisitionChannel     string  `ch:"acquisition_channel"`
	DeviceType             string  `ch:"device_type"`
	InitialReferralCredits int32   `ch:"initial_referral_credits"`
	CohortMonth            string  `ch:"cohort_month"`
	TenureDays             int32   `ch:"tenure_days"`
	TenureMonths           int32   `ch:"tenure_months"`
	ContractType           string  `ch:"contract_type"`
	PlanType               string  `ch:"plan_type"`
	MonthlyCharges         float64 `ch:"monthly_charges"`

	// RFM base metrics and quantile scores
	RecencyDays              int32   `ch:"recency_days"`
	Frequency                int32   `ch:"frequency"`
	Monetary                 float64 `ch:"monetary"`
	AvgTransactionValue      float64 `ch:"avg_transaction_value"`
	TotalTransactions        int32   `ch:"total_transactions"`
	DaysSinceLastTransaction int32   `ch:"days_since_last_transaction"`
	RecencyScore             int32   `ch:"recency_score"`
	FrequencyScore           int32   `ch:"frequency_score"`
	MonetaryScore            int32   `ch:"monetary_score"`
	RFMCompositeScore        float64 `ch:"rfm_composite_score"`
	RFMSegment               string  `ch:"rfm_segment"`

	// Behavioral engagement metrics
	TotalEvents               int32   `ch:"total_events"`
	ActiveDays                int32   `ch:"active_days"`
	LoginCount                int32   `ch:"login_count"`
	FeatureUsageCount         int32   `ch:"feature_usage_count"`
	SupportTicketCount        int32   `ch:"support_ticket_count"`
	AppCrashCount             int32   `ch:"app_crash_count"`
	EngagementRate            float64 `ch:"engagement_rate"`
	AvgEventsPerActiveDay     float64 `ch:"avg_events_per_active_day"`
	AvgSessionDurationMinutes float64 `ch:"avg_session_duration_minutes"`
	DaysSinceLastEvent        int32   `ch:"days_since_last_event"`
	EventsLast7Days           int32   `ch:"events_last_7_days"`
	EventsLast30Days          int32   `ch:"events_last_30_days"`
	EventsLast90Days          int32   `ch:"events_last_90_days"`
	LoginsLast30Days          int32   `ch:"logins_last_30_days"`
	FeatureUsageLast30Days    int32   `ch:"feature_usage_last_30_days"`
	SupportTicketsLast90Days  int32   `ch:"support_tickets_last_90_days"`
	AppCrashesLast90Days      int32   `ch:"app_crashes_last_90_days"`
	DaysSinceLastLogin        int32   `ch:"days_since_last_login"`
	FeaturesPerLogin          float64 `ch:"features_per_login"`
	ProblemEventRatePct       float64 `ch:"problem_event_rate_pct"`

	// Engagement scores
	EngagementRecencyScore   int32   `ch:"engagement_recency_score"`
	EngagementFrequencyScore int32   `ch:"engagement_frequency_score"`
	FeatureAdoptionScore     int32   `ch:"feature_adoption_score"`
	EngagementCompositeScore float64 `ch:"engagement_composite_score"`
	EngagementSegment        string  `ch:"engagement_segment"`

	// Churn outputs
	ChurnFlag              uint8   `ch:"churn_flag"`
	ChurnRiskScore         int32   `ch:"churn_risk_score"`
	RiskTier               string  `ch:"risk_tier"`
	RecommendedAction      string  `ch:"recommended_action"`
	EstimatedLifetimeValue float64 `ch:"estimated_lifetime_value"`
	RevenueAtRisk          float64 `ch:"revenue_at_risk"`
}

// NumericFeature returns the value of a numeric model feature by column name.
func (r *ChurnFeatureRecord) NumericFeature(name string) (float64, bool) {
	switch name {
	case "tenure_months":
		return float64(r.TenureMonths), true
	case "tenure_days":
		return float64(r.TenureDays), true
	case "monthly_charges":
		return r.MonthlyCharges, true
	case "recency_days":
		return float64(r.RecencyDays), true
	case "frequency":
		return float64(r.Frequency), true
	case "monetary":
		return r.Monetary, true
	case "avg_transaction_value":
		return r.AvgTransactionValue, true
	case "total_transactions":
		return float64(r.TotalTransactions), true
	case "days_since_last_transaction":
		return float64(r.DaysSinceLastTransaction), true
	case "recency_score":
		return float64(r.RecencyScore), true
	case "frequency_score":
		return float64(r.FrequencyScore), true
	case "monetary_score":
		return float64(r.MonetaryScore), true
	case "rfm_composite_score":
		return r.RFMCompositeScore, true
	case "total_events":
		return float64(r.TotalEvents), true
	case "active_days":
		return float64(r.ActiveDays), true
	case "login_count":
		return float64(r.LoginCount), true
	case "feature_usage_count":
		return float64(r.FeatureUsageCount), true
	case "support_ticket_count":
		return float64(r.SupportTicketCount), true
	case "app_crash_count":
		return float64(r.AppCrashCount), true
	case "engagement_rate":
		return r.EngagementRate, true
	case "avg_events_per_active_day":
		return r.AvgEventsPerActiveDay, true
	case "avg_session_duration_minutes":
		return r.AvgSessionDurationMinutes, true
	case "days_since_last_event":
		return float64(r.DaysSinceLastEvent), true
	case "events_last_7_days":
		return float64(r.EventsLast7Days), true
	case "events_last_30_days":
		return float64(r.EventsLast30Days), true
	case "events_last_90_days":
		return float64(r.EventsLast90Days), true
	case "logins_last_30_days":
		return float64(r.LoginsLast30Days), true
	case "feature_usage_last_30_days":
		return float64(r.FeatureUsageLast30Days), true
	case "days_since_last_login":
		return float64(r.DaysSinceLastLogin), true
	case "features_per_login":
		return r.FeaturesPerLogin, true
	case "problem_event_rate_pct":
		return r.ProblemEventRatePct, true
	case "engagement_recency_score":
		return float64(r.EngagementRecencyScore), true
	case "engagement_frequency_score":
		return float64(r.EngagementFrequencyScore), true
	case "feature_adoption_score":
		return float64(r.FeatureAdoptionScore), true
	case "engagement_composite_score":
		return r.EngagementCompositeScore, true
	case "age":
		return float64(r.Age), true
	case "initial_referral_credits":
		return float64(r.InitialReferralCredits), true
	}
	return 0, false
}

// CategoricalFeature returns the value of a categorical model feature by
// column name.
func (r *ChurnFeatureRecord) CategoricalFeature(name string) (string, bool) {
	switch name {
	case "contract_type":
		return r.ContractType, true
	case "plan_type":
		return r.PlanType, true
	case "gender":
		return r.Gender, true
	case "segment":
		return r.Segment, true
	case "acquisition_channel":
		return r.AcquisitionChannel, true
	case "device_type":
		return r.DeviceType, true
	}
	return "", false
}

// CohortRetention is one month-over-month retention snapshot row, the single
// mart that keeps history across runs.
type CohortRetention struct {
	CohortMonth    string    `ch:"cohort_month"`
	SnapshotMonth  string    `ch:"snapshot_month"`
	Customers      uint64    `ch:"customers"`
	Churned        uint64    `ch:"churned"`
	RetentionRate  float64   `ch:"retention_rate"`
	ComputedAt     time.Time `ch:"computed_at"`
	SnapshotNumber uint32    `ch:"snapshot_number"`
}
