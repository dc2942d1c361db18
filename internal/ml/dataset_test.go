package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

func TestFeatureColumns_Contract(t *testing.T) {
	cols := FeatureColumns()
	assert.Len(t, cols, 43)

	seen := make(map[string]bool)
	for _, c := range cols {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}
	for c := range categoricalColumns {
		assert.True(t, seen[c], "categorical column %s not in allow-list", c)
	}
	// Mutating the returned slice must not leak into the contract.
	cols[0] = "tampered"
	assert.NotEqual(t, "tampered", FeatureColumns()[0])
}

func TestLabelEncoder(t *testing.T) {
	enc := &LabelEncoder{}
	enc.Fit([]string{"Month-to-month", "Annual", "Month-to-month", "Quarterly"})

	assert.Equal(t, []string{"Annual", "Month-to-month", "Quarterly"}, enc.Classes)
	assert.Equal(t, 0.0, enc.Transform("Annual"))
	assert.Equal(t, 1.0, enc.Transform("Month-to-month"))
	// Unseen values fall back to the first class.
	assert.Equal(t, 0.0, enc.Transform("Biennial"))
}

func TestLabelEncoder_EmptyValueUsesMissingMarker(t *testing.T) {
	enc := &LabelEncoder{}
	enc.Fit([]string{"iOS", "", "Android"})

	assert.Contains(t, enc.Classes, missingCategory)
	assert.Equal(t, enc.Transform(missingCategory), enc.Transform(""))
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	scaler := &StandardScaler{}
	assert.NoError(t, scaler.Fit(X))

	out := scaler.Transform(X)
	assert.InDelta(t, out[0][0]+out[1][0]+out[2][0], 0, 1e-9)
	// Constant columns pass through as zero instead of dividing by zero.
	assert.Equal(t, 0.0, out[0][1])

	assert.Error(t, scaler.Fit(nil))
}

func TestColumnMedians(t *testing.T) {
	medians := columnMedians([][]float64{{1, 5}, {3, 7}, {2, 100}})
	assert.Equal(t, []float64{2, 7}, medians)

	medians = columnMedians([][]float64{{1}, {2}, {3}, {4}})
	assert.Equal(t, []float64{2.5}, medians)
}

func martRecord(id string, churned uint8) *domain.ChurnFeatureRecord {
	return &domain.ChurnFeatureRecord{
		CustomerID:         id,
		ChurnFlag:          churned,
		ContractType:       "Annual",
		PlanType:           "Pro",
		Gender:             "F",
		Segment:            "Premium",
		AcquisitionChannel: "Organic",
		DeviceType:         "iOS",
		TenureMonths:       12,
		Monetary:           500,
	}
}

func TestBuildDataset(t *testing.T) {
	records := []*domain.ChurnFeatureRecord{
		martRecord("CUST-001", 0),
		martRecord("CUST-002", 1),
	}
	records[1].ContractType = "Month-to-month"

	ds, encoders, err := BuildDataset(records)
	assert.NoError(t, err)
	assert.Len(t, ds.X, 2)
	assert.Len(t, ds.X[0], 43)
	assert.Equal(t, []int{0, 1}, ds.Y)
	assert.Equal(t, []string{"CUST-001", "CUST-002"}, ds.CustomerIDs)
	assert.Len(t, encoders, 6)
	assert.Equal(t, []string{"Annual", "Month-to-month"}, encoders["contract_type"].Classes)
}

func TestBuildDataset_Empty(t *testing.T) {
	_, _, err := BuildDataset(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 100)
	for i := 80; i < 100; i++ {
		y[i] = 1
	}

	train, test := StratifiedSplit(y, 0.2, 42)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	var testPos int
	for _, i := range test {
		testPos += y[i]
	}
	// 20% of each class held out.
	assert.Equal(t, 4, testPos)

	// No index appears twice.
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, train...), test...) {
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, 100)
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	y := make([]int, 50)
	for i := 0; i < 10; i++ {
		y[i] = 1
	}
	train1, test1 := StratifiedSplit(y, 0.2, 42)
	train2, test2 := StratifiedSplit(y, 0.2, 42)
	assert.Equal(t, train1, train2)
	assert.Equal(t, test1, test2)
}

func TestStratifiedKFold(t *testing.T) {
	y := make([]int, 100)
	for i := 0; i < 30; i++ {
		y[i] = 1
	}

	folds := StratifiedKFold(y, 5, 42)
	assert.Len(t, folds, 5)

	seen := make(map[int]bool)
	for _, fold := range folds {
		assert.Equal(t, 20, len(fold))
		var pos int
		for _, i := range fold {
			assert.False(t, seen[i])
			seen[i] = true
			pos += y[i]
		}
		assert.Equal(t, 6, pos)
	}
	assert.Len(t, seen, 100)
}
