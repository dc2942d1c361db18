package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// GradientBoosting is a boosted ensemble of shallow CART trees minimizing
// log loss. Positive samples are up-weighted by the negative/positive class
// ratio so the minority churn class is not drowned out. Predictions are
// accumulated in log-odds space.
type GradientBoosting struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
	ScalePosWeight  float64 `json:"scale_pos_weight"`
	Seed            int64   `json:"seed"`

	Trees []decisionTree `json:"trees"`
}

// NewGradientBoosting creates a booster with the training defaults.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:     100,
		MaxDepth:        6,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		Seed:            seed,
	}
}

func (m *GradientBoosting) Name() string { return ModelGradientBoosting }

// Fit trains the booster with Newton leaf values: each tree regresses
// gradient/hessian ratios weighted by the hessians, so a leaf's weighted mean
// is exactly the Newton step for the samples it covers.
func (m *GradientBoosting) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: gradient boosting fit", ErrEmptyInput)
	}
	n := len(X)
	nFeatures := len(X[0])

	var pos int
	for _, label := range y {
		pos += label
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return fmt.Errorf("gradient boosting fit: single-class training set")
	}
	m.ScalePosWeight = float64(neg) / float64(pos)

	params := treeParams{
		maxDepth:        m.MaxDepth,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		maxFeatures:     int(math.Ceil(m.ColsampleByTree * float64(nFeatures))),
	}

	rng := rand.New(rand.NewSource(m.Seed))
	margin := make([]float64, n)
	target := make([]float64, n)
	weight := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	m.Trees = make([]decisionTree, m.NEstimators)
	for t := range m.Trees {
		for i := 0; i < n; i++ {
			p := sigmoid(margin[i])
			w := 1.0
			if y[i] == 1 {
				w = m.ScalePosWeight
			}
			grad := w * (float64(y[i]) - p)
			hess := w * p * (1 - p)
			if hess < 1e-12 {
				hess = 1e-12
			}
			target[i] = grad / hess
			weight[i] = hess
		}

		sample := all
		if m.Subsample < 1 {
			size := int(m.Subsample * float64(n))
			if size < 1 {
				size = 1
			}
			perm := rng.Perm(n)
			sample = perm[:size]
		}

		m.Trees[t].fit(X, target, weight, sample, params, rng)
		for i := 0; i < n; i++ {
			margin[i] += m.LearningRate * m.Trees[t].predict(X[i])
		}
	}
	return nil
}

// margin returns the raw log-odds score for one row.
func (m *GradientBoosting) marginFor(x []float64) float64 {
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].predict(x)
	}
	return m.LearningRate * sum
}

// PredictProba returns the churn probability for one row.
func (m *GradientBoosting) PredictProba(x []float64) float64 {
	return sigmoid(m.marginFor(x))
}

// baseValue is the attribution starting point in log-odds space.
func (m *GradientBoosting) baseValue() float64 {
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].Nodes[0].Value
	}
	return m.LearningRate * sum
}

// contributions accumulates per-feature path contributions in log-odds
// space. Base value plus the contribution sum equals the raw margin.
func (m *GradientBoosting) contributions(x []float64, contrib []float64) {
	for i := range m.Trees {
		m.Trees[i].pathContributions(x, contrib, m.LearningRate)
	}
}
