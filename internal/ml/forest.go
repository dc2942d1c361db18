package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of CART trees with balanced class
// weights. Each tree trains on a bootstrap sample and considers a random
// sqrt-sized feature subset at every split.
type RandomForest struct {
	NEstimators     int   `json:"n_estimators"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`

	Trees []decisionTree `json:"trees"`
}

// NewRandomForest creates a forest with the training defaults.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            seed,
	}
}

func (m *RandomForest) Name() string { return ModelRandomForest }

// Fit trains the ensemble.
func (m *RandomForest) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: random forest fit", ErrEmptyInput)
	}
	n := len(X)

	var pos int
	for _, label := range y {
		pos += label
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return fmt.Errorf("random forest fit: single-class training set")
	}
	wPos := float64(n) / (2 * float64(pos))
	wNeg := float64(n) / (2 * float64(neg))

	target := make([]float64, n)
	weight := make([]float64, n)
	for i, label := range y {
		target[i] = float64(label)
		if label == 1 {
			weight[i] = wPos
		} else {
			weight[i] = wNeg
		}
	}

	params := treeParams{
		maxDepth:        m.MaxDepth,
		minSamplesSplit: m.MinSamplesSplit,
		minSamplesLeaf:  m.MinSamplesLeaf,
		maxFeatures:     int(math.Ceil(math.Sqrt(float64(len(X[0]))))),
	}

	rng := rand.New(rand.NewSource(m.Seed))
	m.Trees = make([]decisionTree, m.NEstimators)
	sample := make([]int, n)
	for t := range m.Trees {
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		m.Trees[t].fit(X, target, weight, sample, params, rng)
	}
	return nil
}

// PredictProba averages the leaf probabilities of all trees.
func (m *RandomForest) PredictProba(x []float64) float64 {
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].predict(x)
	}
	p := sum / float64(len(m.Trees))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// baseValue is the mean root expectation of the ensemble, the starting point
// for path attributions.
func (m *RandomForest) baseValue() float64 {
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].Nodes[0].Value
	}
	return sum / float64(len(m.Trees))
}

// contributions accumulates per-feature path contributions for one row. Base
// value plus the contribution sum equals the predicted probability before
// clamping.
func (m *RandomForest) contributions(x []float64, contrib []float64) {
	factor := 1 / float64(len(m.Trees))
	for i := range m.Trees {
		m.Trees[i].pathContributions(x, contrib, factor)
	}
}
