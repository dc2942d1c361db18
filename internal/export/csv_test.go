package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kbai612/churn-analytics-service/internal/domain"
	"github.com/kbai612/churn-analytics-service/internal/ml"
)

func exportRecord() *domain.ChurnFeatureRecord {
	return &domain.ChurnFeatureRecord{
		CustomerID:               "CUST-001",
		AsOfDate:                 time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ChurnFlag:                1,
		ContractType:             "Month-to-month",
		PlanType:                 "Pro",
		Gender:                   "F",
		Segment:                  "Premium",
		AcquisitionChannel:       "Organic",
		DeviceType:               "iOS",
		Age:                      34,
		TenureMonths:             18,
		TenureDays:               540,
		MonthlyCharges:           49.99,
		RecencyDays:              120,
		Frequency:                7,
		Monetary:                 734.5,
		AvgTransactionValue:      104.928571,
		RecencyScore:             1,
		FrequencyScore:           3,
		MonetaryScore:            4,
		RFMCompositeScore:        2.5,
		EngagementCompositeScore: 1.33,
		DaysSinceLastEvent:       45,
	}
}

func TestWriteReadFeatures_RoundTrip(t *testing.T) {
	in := []*domain.ChurnFeatureRecord{exportRecord()}

	var buf bytes.Buffer
	assert.NoError(t, WriteFeatures(&buf, in))

	out, err := ReadFeatures(&buf)
	assert.NoError(t, err)
	assert.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, "CUST-001", got.CustomerID)
	assert.Equal(t, in[0].AsOfDate, got.AsOfDate)
	assert.Equal(t, uint8(1), got.ChurnFlag)
	assert.Equal(t, "Month-to-month", got.ContractType)
	assert.Equal(t, int32(120), got.RecencyDays)
	assert.InDelta(t, 734.5, got.Monetary, 1e-9)
	assert.InDelta(t, 104.928571, got.AvgTransactionValue, 1e-9)
	assert.InDelta(t, 1.33, got.EngagementCompositeScore, 1e-9)

	// Every model feature survives the round trip.
	for _, col := range ml.FeatureColumns() {
		if want, ok := in[0].CategoricalFeature(col); ok {
			have, _ := got.CategoricalFeature(col)
			assert.Equal(t, want, have, col)
			continue
		}
		want, _ := in[0].NumericFeature(col)
		have, _ := got.NumericFeature(col)
		assert.InDelta(t, want, have, 1e-9, col)
	}
}

func TestColumns_Shape(t *testing.T) {
	cols := Columns()
	assert.Equal(t, "customer_id", cols[0])
	assert.Equal(t, "as_of_date", cols[1])
	assert.Equal(t, ml.TargetColumn, cols[len(cols)-1])
	assert.Len(t, cols, 43+3)
}

func TestReadFeatures_MissingColumn(t *testing.T) {
	_, err := ReadFeatures(strings.NewReader("customer_id,as_of_date\nCUST-001,2024-06-01\n"))
	assert.ErrorIs(t, err, ml.ErrMissingFeature)
}

func TestReadFeatures_InvalidValues(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteFeatures(&buf, []*domain.ChurnFeatureRecord{exportRecord()}))
	valid := buf.String()

	badDate := strings.Replace(valid, "2024-06-01", "June 1st", 1)
	_, err := ReadFeatures(strings.NewReader(badDate))
	assert.Error(t, err)

	badFlag := strings.Replace(valid, ",1\n", ",2\n", 1)
	_, err = ReadFeatures(strings.NewReader(badFlag))
	assert.ErrorContains(t, err, "churn_flag")
}

func TestReadFeatures_EmptyBody(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteFeatures(&buf, nil))

	out, err := ReadFeatures(&buf)
	assert.NoError(t, err)
	assert.Empty(t, out)
}
