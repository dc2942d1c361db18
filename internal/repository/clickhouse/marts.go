package clickhouse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/repository"
)

const churnFeatureColumns = `customer_id, as_of_date, age, gender, segment,
	acquisition_channel, device_type, initial_referral_credits, cohort_month,
	tenure_days, tenure_months, contract_type, plan_type, monthly_charges,
	recency_days, frequency, monetary, avg_transaction_value, total_transactions,
	days_since_last_transaction, recency_score, frequency_score, monetary_score,
	rfm_composite_score, rfm_segment, total_events, active_days, login_count,
	feature_usage_count, support_ticket_count, app_crash_count, engagement_rate,
	avg_events_per_active_day, avg_session_duration_minutes, days_since_last_event,
	events_last_7_days, events_last_30_days, events_last_90_days,
	logins_last_30_days, feature_usage_last_30_days, support_tickets_last_90_days,
	app_crashes_last_90_days, days_since_last_login, features_per_login,
	problem_event_rate_pct, engagement_recency_score, engagement_frequency_score,
	feature_adoption_score, engagement_composite_score, engagement_segment,
	churn_flag, churn_risk_score, risk_tier, recommended_action,
	estimated_lifetime_value, revenue_at_risk`

// ReplaceChurnFeatures rebuilds the feature mart atomically: the new snapshot
// is written to a side table and swapped in with EXCHANGE TABLES, so readers
// never observe a partially written mart.
func (r *Repository) ReplaceChurnFeatures(ctx context.Context, records []*domain.ChurnFeatureRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("empty input set: refusing to replace churn_features with no rows")
	}

	conn := r.client.Conn()

	if err := conn.Exec(ctx, "TRUNCATE TABLE churn_features_next"); err != nil {
		return fmt.Errorf("failed to truncate staging mart: %w", err)
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO churn_features_next ("+churnFeatureColumns+")")
	if err != nil {
		return fmt.Errorf("failed to prepare feature mart batch: %w", err)
	}

	for _, rec := range records {
		err := batch.Append(
			rec.CustomerID, rec.AsOfDate, rec.Age, rec.Gender, rec.Segment,
			rec.AcquisitionChannel, rec.DeviceType, rec.InitialReferralCredits, rec.CohortMonth,
			rec.TenureDays, rec.TenureMonths, rec.ContractType, rec.PlanType, rec.MonthlyCharges,
			rec.RecencyDays, rec.Frequency, rec.Monetary, rec.AvgTransactionValue, rec.TotalTransactions,
			rec.DaysSinceLastTransaction, rec.RecencyScore, rec.FrequencyScore, rec.MonetaryScore,
			rec.RFMCompositeScore, rec.RFMSegment, rec.TotalEvents, rec.ActiveDays, rec.LoginCount,
			rec.FeatureUsageCount, rec.SupportTicketCount, rec.AppCrashCount, rec.EngagementRate,
			rec.AvgEventsPerActiveDay, rec.AvgSessionDurationMinutes, rec.DaysSinceLastEvent,
			rec.EventsLast7Days, rec.EventsLast30Days, rec.EventsLast90Days,
			rec.LoginsLast30Days, rec.FeatureUsageLast30Days, rec.SupportTicketsLast90Days,
			rec.AppCrashesLast90Days, rec.DaysSinceLastLogin, rec.FeaturesPerLogin,
			rec.ProblemEventRatePct, rec.EngagementRecencyScore, rec.EngagementFrequencyScore,
			rec.FeatureAdoptionScore, rec.EngagementCompositeScore, rec.EngagementSegment,
			rec.ChurnFlag, rec.ChurnRiskScore, rec.RiskTier, rec.RecommendedAction,
			rec.EstimatedLifetimeValue, rec.RevenueAtRisk,
		)
		if err != nil {
			return fmt.Errorf("failed to append feature record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send feature mart batch: %w", err)
	}

	if err := conn.Exec(ctx, "EXCHANGE TABLES churn_features AND churn_features_next"); err != nil {
		return fmt.Errorf("failed to swap feature mart: %w", err)
	}

	r.log.Info("Feature mart replaced",
		zap.Int("rows", len(records)))
	return nil
}

// AppendCohortSnapshots appends month-over-month retention rows. Unlike the
// feature mart this table keeps history across runs.
func (r *Repository) AppendCohortSnapshots(ctx context.Context, rows []*domain.CohortRetention) error {
	if len(rows) == 0 {
		return nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO cohort_retention")
	if err != nil {
		return fmt.Errorf("failed to prepare cohort batch: %w", err)
	}

	for _, row := range rows {
		err := batch.Append(
			row.CohortMonth, row.SnapshotMonth, row.Customers, row.Churned,
			row.RetentionRate, row.ComputedAt, row.SnapshotNumber,
		)
		if err != nil {
			return fmt.Errorf("failed to append cohort row to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send cohort batch: %w", err)
	}
	return nil
}

// ChurnFeatures reads the full feature mart.
func (r *Repository) ChurnFeatures(ctx context.Context) ([]*domain.ChurnFeatureRecord, error) {
	query := "SELECT " + churnFeatureColumns + " FROM churn_features"

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query churn features: %w", err)
	}
	defer rows.Close()

	var records []*domain.ChurnFeatureRecord
	for rows.Next() {
		rec, err := scanChurnFeature(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating churn feature rows: %w", err)
	}
	return records, nil
}

// CustomerFeature reads a single customer's feature record.
func (r *Repository) CustomerFeature(ctx context.Context, customerID string) (*domain.ChurnFeatureRecord, error) {
	query := "SELECT " + churnFeatureColumns + " FROM churn_features WHERE customer_id = ?"

	rows, err := r.client.Conn().Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer feature: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("customer %s: %w", customerID, repository.ErrCustomerNotFound)
	}
	return scanChurnFeature(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChurnFeature(rows rowScanner) (*domain.ChurnFeatureRecord, error) {
	var rec domain.ChurnFeatureRecord
	err := rows.Scan(
		&rec.CustomerID, &rec.AsOfDate, &rec.Age, &rec.Gender, &rec.Segment,
		&rec.AcquisitionChannel, &rec.DeviceType, &rec.InitialReferralCredits, &rec.CohortMonth,
		&rec.TenureDays, &rec.TenureMonths, &rec.ContractType, &rec.PlanType, &rec.MonthlyCharges,
		&rec.RecencyDays, &rec.Frequency, &rec.Monetary, &rec.AvgTransactionValue, &rec.TotalTransactions,
		&rec.DaysSinceLastTransaction, &rec.RecencyScore, &rec.FrequencyScore, &rec.MonetaryScore,
		&rec.RFMCompositeScore, &rec.RFMSegment, &rec.TotalEvents, &rec.ActiveDays, &rec.LoginCount,
		&rec.FeatureUsageCount, &rec.SupportTicketCount, &rec.AppCrashCount, &rec.EngagementRate,
		&rec.AvgEventsPerActiveDay, &rec.AvgSessionDurationMinutes, &rec.DaysSinceLastEvent,
		&rec.EventsLast7Days, &rec.EventsLast30Days, &rec.EventsLast90Days,
		&rec.LoginsLast30Days, &rec.FeatureUsageLast30Days, &rec.SupportTicketsLast90Days,
		&rec.AppCrashesLast90Days, &rec.DaysSinceLastLogin, &rec.FeaturesPerLogin,
		&rec.ProblemEventRatePct, &rec.EngagementRecencyScore, &rec.EngagementFrequencyScore,
		&rec.FeatureAdoptionScore, &rec.EngagementCompositeScore, &rec.EngagementSegment,
		&rec.ChurnFlag, &rec.ChurnRiskScore, &rec.RiskTier, &rec.RecommendedAction,
		&rec.EstimatedLifetimeValue, &rec.RevenueAtRisk,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan churn feature row: %w", err)
	}
	return &rec, nil
}

// Summary aggregates the feature mart for the dashboard.
func (r *Repository) Summary(ctx context.Context) (*repository.InsightSummary, error) {
	summary := &repository.InsightSummary{}

	row := r.client.Conn().QueryRow(ctx, `
		SELECT count() AS total,
		       countIf(churn_flag = 1) AS churned,
		       sum(revenue_at_risk) AS revenue_at_risk,
		       avg(churn_risk_score) AS avg_risk
		FROM churn_features
	`)
	if err := row.Scan(&summary.TotalCustomers, &summary.ChurnedCustomers,
		&summary.TotalRevenueAtRisk, &summary.AvgRiskScore); err != nil {
		return nil, fmt.Errorf("failed to query mart summary: %w", err)
	}

	if summary.TotalCustomers > 0 {
		summary.ChurnRate = float64(summary.ChurnedCustomers) / float64(summary.TotalCustomers)
	}

	rows, err := r.client.Conn().Query(ctx, `
		SELECT risk_tier, count() AS customers
		FROM churn_features
		GROUP BY risk_tier
		ORDER BY customers DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tier repository.RiskTierCount
		if err := rows.Scan(&tier.Tier, &tier.Customers); err != nil {
			return nil, fmt.Errorf("failed to scan risk tier row: %w", err)
		}
		summary.RiskTiers = append(summary.RiskTiers, tier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating risk tier rows: %w", err)
	}
	return summary, nil
}
