// Package export reads and writes the churn feature mart as CSV. The export
// carries the model view of the mart: customer ID, as-of date, the full model
// feature allow-list, and the churn label, so a file produced by the
// transform run feeds the training pipeline without touching the warehouse.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/ml"
)

const dateLayout = "2006-01-02"

// Columns returns the export header: identity columns, the ordered model
// features, then the label.
func Columns() []string {
	features := ml.FeatureColumns()
	cols := make([]string, 0, len(features)+3)
	cols = append(cols, "customer_id", "as_of_date")
	cols = append(cols, features...)
	cols = append(cols, ml.TargetColumn)
	return cols
}

// WriteFeatures streams records to w as CSV with a header row.
func WriteFeatures(w io.Writer, records []*domain.ChurnFeatureRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("write export header: %w", err)
	}

	features := ml.FeatureColumns()
	row := make([]string, 0, len(features)+3)
	for _, rec := range records {
		row = row[:0]
		row = append(row, rec.CustomerID, rec.AsOfDate.Format(dateLayout))
		for _, col := range features {
			if s, ok := rec.CategoricalFeature(col); ok {
				row = append(row, s)
				continue
			}
			v, ok := rec.NumericFeature(col)
			if !ok {
				return fmt.Errorf("%w: %s", ml.ErrMissingFeature, col)
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		row = append(row, strconv.Itoa(int(rec.ChurnFlag)))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write export row %s: %w", rec.CustomerID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}
	return nil
}

// ReadFeatures parses a CSV export back into feature records. The header must
// contain every model column; extra columns are ignored.
func ReadFeatures(r io.Reader) ([]*domain.ChurnFeatureRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read export header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, col := range header {
		pos[col] = i
	}
	for _, col := range Columns() {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ml.ErrMissingFeature, col)
		}
	}

	var records []*domain.ChurnFeatureRecord
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read export row: %w", err)
		}
		line++

		rec := &domain.ChurnFeatureRecord{CustomerID: row[pos["customer_id"]]}
		rec.AsOfDate, err = time.Parse(dateLayout, row[pos["as_of_date"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid as_of_date: %w", line, err)
		}

		for _, col := range ml.FeatureColumns() {
			raw := row[pos[col]]
			if setCategorical(rec, col, raw) {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s value %q: %w", line, col, raw, err)
			}
			setNumeric(rec, col, v)
		}

		flag, err := strconv.Atoi(row[pos[ml.TargetColumn]])
		if err != nil || (flag != 0 && flag != 1) {
			return nil, fmt.Errorf("row %d: invalid churn_flag %q", line, row[pos[ml.TargetColumn]])
		}
		rec.ChurnFlag = uint8(flag)
		records = append(records, rec)
	}
	return records, nil
}

// setCategorical assigns a categorical column and reports whether col is one.
func setCategorical(rec *domain.ChurnFeatureRecord, col, v string) bool {
	switch col {
	case "contract_type":
		rec.ContractType = v
	case "plan_type":
		rec.PlanType = v
	case "gender":
		rec.Gender = v
	case "segment":
		rec.Segment = v
	case "acquisition_channel":
		rec.AcquisitionChannel = v
	case "device_type":
		rec.DeviceType = v
	default:
		return false
	}
	return true
}

func setNumeric(rec *domain.ChurnFeatureRecord, col string, v float64) {
	switch col {
	case "tenure_months":
		rec.TenureMonths = int32(v)
	case "tenure_days":
		rec.TenureDays = int32(v)
	case "monthly_charges":
		rec.MonthlyCharges = v
	case "recency_days":
		rec.RecencyDays = int32(v)
	case "frequency":
		rec.Frequency = int32(v)
	case "monetary":
		rec.Monetary = v
	case "avg_transaction_value":
		rec.AvgTransactionValue = v
	case "total_transactions":
		rec.TotalTransactions = int32(v)
	case "days_since_last_transaction":
		rec.DaysSinceLastTransaction = int32(v)
	case "recency_score":
		rec.RecencyScore = int32(v)
	case "frequency_score":
		rec.FrequencyScore = int32(v)
	case "monetary_score":
		rec.MonetaryScore = int32(v)
	case "rfm_composite_score":
		rec.RFMCompositeScore = v
	case "total_events":
		rec.TotalEvents = int32(v)
	case "active_days":
		rec.ActiveDays = int32(v)
	case "login_count":
		rec.LoginCount = int32(v)
	case "feature_usage_count":
		rec.FeatureUsageCount = int32(v)
	case "support_ticket_count":
		rec.SupportTicketCount = int32(v)
	case "app_crash_count":
		rec.AppCrashCount = int32(v)
	case "engagement_rate":
		rec.EngagementRate = v
	case "avg_events_per_active_day":
		rec.AvgEventsPerActiveDay = v
	case "avg_session_duration_minutes":
		rec.AvgSessionDurationMinutes = v
	case "days_since_last_event":
		rec.DaysSinceLastEvent = int32(v)
	case "events_last_7_days":
		rec.EventsLast7Days = int32(v)
	case "events_last_30_days":
		rec.EventsLast30Days = int32(v)
	case "events_last_90_days":
		rec.EventsLast90Days = int32(v)
	case "logins_last_30_days":
		rec.LoginsLast30Days = int32(v)
	case "feature_usage_last_30_days":
		rec.FeatureUsageLast30Days = int32(v)
	case "days_since_last_login":
		rec.DaysSinceLastLogin = int32(v)
	case "features_per_login":
		rec.FeaturesPerLogin = v
	case "problem_event_rate_pct":
		rec.ProblemEventRatePct = v
	case "engagement_recency_score":
		rec.EngagementRecencyScore = int32(v)
	case "engagement_frequency_score":
		rec.EngagementFrequencyScore = int32(v)
	case "feature_adoption_score":
		rec.FeatureAdoptionScore = int32(v)
	case "engagement_composite_score":
		rec.EngagementCompositeScore = v
	case "age":
		rec.Age = int32(v)
	case "initial_referral_credits":
		rec.InitialReferralCredits = int32(v)
	}
}
