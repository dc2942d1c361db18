package ml

import (
	"math"
	"sort"
)

// Attribution explains one prediction as a base value plus signed per-feature
// contributions. For tree ensembles the contributions are decision-path
// expectation changes; for the logistic model they are coefficient times
// scaled input. Base value plus the contribution sum reproduces the model's
// raw score (probability for the forest, log-odds for the booster and the
// logistic model).
type Attribution struct {
	BaseValue     float64   `json:"base_value"`
	Contributions []float64 `json:"contributions"`
	Prediction    float64   `json:"prediction"`
}

// Attribute explains one scaled input row under the given model.
func Attribute(model Classifier, x []float64) Attribution {
	contrib := make([]float64, len(x))
	var base float64

	switch m := model.(type) {
	case *RandomForest:
		base = m.baseValue()
		m.contributions(x, contrib)
	case *GradientBoosting:
		base = m.baseValue()
		m.contributions(x, contrib)
	case *LogisticRegression:
		base = m.Intercept
		for j := range x {
			contrib[j] = m.Weights[j] * x[j]
		}
	}

	return Attribution{
		BaseValue:     base,
		Contributions: contrib,
		Prediction:    model.PredictProba(x),
	}
}

// FeatureImportance is one row of the global importance ranking.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// GlobalImportance averages absolute attributions over a sample of rows and
// returns features ranked by importance, descending. Ties rank by name so the
// output is stable.
func GlobalImportance(model Classifier, X [][]float64, names []string) []FeatureImportance {
	sums := make([]float64, len(names))
	for _, x := range X {
		attr := Attribute(model, x)
		for j, c := range attr.Contributions {
			sums[j] += math.Abs(c)
		}
	}

	out := make([]FeatureImportance, len(names))
	for j, name := range names {
		mean := 0.0
		if len(X) > 0 {
			mean = sums[j] / float64(len(X))
		}
		out[j] = FeatureImportance{Feature: name, Importance: mean}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Importance != out[b].Importance {
			return out[a].Importance > out[b].Importance
		}
		return out[a].Feature < out[b].Feature
	})
	return out
}
