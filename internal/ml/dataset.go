// Package ml trains and serves the churn prediction models. The feature mart
// is the only input: model features are a fixed allow-list of mart columns,
// and everything fit during training (encoders, medians, scaler, models) is
// persisted as artifacts so scoring never refits.
package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

var (
	// ErrEmptyInput is returned when a dataset has no rows.
	ErrEmptyInput = errors.New("empty input set")
	// ErrMissingFeature is returned when a scoring input lacks a model column.
	ErrMissingFeature = errors.New("missing model feature")
	// ErrNotFitted is returned when a loaded model carries no fitted state.
	ErrNotFitted = errors.New("model is not fitted")
)

// TargetColumn is the label column of the feature mart.
const TargetColumn = "churn_flag"

// featureColumns is the ordered model feature allow-list. Column order is part
// of the model contract: weights, scaler statistics, and attributions are all
// positional against this list.
var featureColumns = []string{
	"tenure_months",
	"tenure_days",
	"monthly_charges",
	"contract_type",
	"plan_type",
	"recency_days",
	"frequency",
	"monetary",
	"avg_transaction_value",
	"total_transactions",
	"days_since_last_transaction",
	"recency_score",
	"frequency_score",
	"monetary_score",
	"rfm_composite_score",
	"total_events",
	"active_days",
	"login_count",
	"feature_usage_count",
	"support_ticket_count",
	"app_crash_count",
	"engagement_rate",
	"avg_events_per_active_day",
	"avg_session_duration_minutes",
	"days_since_last_event",
	"events_last_7_days",
	"events_last_30_days",
	"events_last_90_days",
	"logins_last_30_days",
	"feature_usage_last_30_days",
	"days_since_last_login",
	"features_per_login",
	"problem_event_rate_pct",
	"engagement_recency_score",
	"engagement_frequency_score",
	"feature_adoption_score",
	"engagement_composite_score",
	"age",
	"gender",
	"segment",
	"acquisition_channel",
	"device_type",
	"initial_referral_credits",
}

// categoricalColumns are the label-encoded members of the allow-list.
var categoricalColumns = map[string]bool{
	"contract_type":       true,
	"plan_type":           true,
	"gender":              true,
	"segment":             true,
	"acquisition_channel": true,
	"device_type":         true,
}

// FeatureColumns returns a copy of the ordered model feature list.
func FeatureColumns() []string {
	out := make([]string, len(featureColumns))
	copy(out, featureColumns)
	return out
}

// missingCategory stands in for absent categorical values.
const missingCategory = "MISSING"

// LabelEncoder maps categorical string values to stable integer codes.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// Fit learns the sorted set of distinct values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == "" {
			v = missingCategory
		}
		seen[v] = struct{}{}
	}
	e.Classes = e.Classes[:0]
	for v := range seen {
		e.Classes = append(e.Classes, v)
	}
	sort.Strings(e.Classes)
	e.buildIndex()
}

func (e *LabelEncoder) buildIndex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

// Transform encodes one value. Unseen values fall back to the first class so
// scoring stays total over drifting category sets.
func (e *LabelEncoder) Transform(v string) float64 {
	if e.index == nil {
		e.buildIndex()
	}
	if v == "" {
		v = missingCategory
	}
	if code, ok := e.index[v]; ok {
		return float64(code)
	}
	return 0
}

// StandardScaler standardizes columns to zero mean and unit variance using
// statistics learned from the training split only.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-column mean and standard deviation.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: scaler fit", ErrEmptyInput)
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)

	for j := 0; j < cols; j++ {
		var sum float64
		for i := range X {
			sum += X[i][j]
		}
		mean := sum / float64(len(X))
		var sq float64
		for i := range X {
			d := X[i][j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / float64(len(X)))
		if std == 0 {
			// Constant columns pass through unscaled.
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// Transform returns a scaled copy of X.
func (s *StandardScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = s.TransformRow(X[i])
	}
	return out
}

// TransformRow scales a single row.
func (s *StandardScaler) TransformRow(x []float64) []float64 {
	row := make([]float64, len(x))
	for j := range x {
		row[j] = (x[j] - s.Mean[j]) / s.Std[j]
	}
	return row
}

// columnMedians computes the per-column median of a matrix. Medians are saved
// with the preprocessors and used to fill absent numeric inputs at scoring
// time.
func columnMedians(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	cols := len(X[0])
	medians := make([]float64, cols)
	buf := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			buf[i] = X[i][j]
		}
		sort.Float64s(buf)
		mid := len(buf) / 2
		if len(buf)%2 == 1 {
			medians[j] = buf[mid]
		} else {
			medians[j] = (buf[mid-1] + buf[mid]) / 2
		}
	}
	return medians
}

// Dataset is an encoded, unscaled design matrix with labels.
type Dataset struct {
	CustomerIDs  []string
	FeatureNames []string
	X            [][]float64
	Y            []int
}

// BuildDataset encodes mart records into a design matrix. Categorical columns
// are label-encoded over the full record set; the fitted encoders are
// returned for persistence.
func BuildDataset(records []*domain.ChurnFeatureRecord) (*Dataset, map[string]*LabelEncoder, error) {
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature records", ErrEmptyInput)
	}

	encoders := make(map[string]*LabelEncoder)
	for _, col := range featureColumns {
		if !categoricalColumns[col] {
			continue
		}
		values := make([]string, len(records))
		for i, rec := range records {
			v, ok := rec.CategoricalFeature(col)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrMissingFeature, col)
			}
			values[i] = v
		}
		enc := &LabelEncoder{}
		enc.Fit(values)
		encoders[col] = enc
	}

	ds := &Dataset{
		CustomerIDs:  make([]string, len(records)),
		FeatureNames: FeatureColumns(),
		X:            make([][]float64, len(records)),
		Y:            make([]int, len(records)),
	}
	for i, rec := range records {
		row := make([]float64, len(featureColumns))
		for j, col := range featureColumns {
			if categoricalColumns[col] {
				v, _ := rec.CategoricalFeature(col)
				row[j] = encoders[col].Transform(v)
				continue
			}
			v, ok := rec.NumericFeature(col)
			if !ok {
				return nil, nil, fmt.Errorf("%w: %s", ErrMissingFeature, col)
			}
			row[j] = v
		}
		ds.X[i] = row
		ds.CustomerIDs[i] = rec.CustomerID
		ds.Y[i] = int(rec.ChurnFlag)
	}
	return ds, encoders, nil
}

// Select returns the rows of X and y at the given indices.
func (d *Dataset) Select(idx []int) ([][]float64, []int) {
	X := make([][]float64, len(idx))
	y := make([]int, len(idx))
	for i, ix := range idx {
		X[i] = d.X[ix]
		y[i] = d.Y[ix]
	}
	return X, y
}

// StratifiedSplit partitions row indices into train and test sets, preserving
// the class balance of y. The same seed always yields the same partition.
func StratifiedSplit(y []int, testSize float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(math.Round(float64(len(idx)) * testSize))
		if nTest < 1 && len(idx) > 1 {
			nTest = 1
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// StratifiedKFold partitions row indices into k folds with near-equal class
// balance. The returned slice holds the held-out indices of each fold.
func StratifiedKFold(y []int, k int, seed int64) [][]int {
	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		for i, ix := range idx {
			folds[i%k] = append(folds[i%k], ix)
		}
	}
	for i := range folds {
		sort.Ints(folds[i])
	}
	return folds
}
