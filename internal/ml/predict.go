package ml

import (
	"fmt"
	"sort"

	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// Risk category labels for scored probabilities.
const (
	RiskCritical = "Critical"
	RiskHigh     = "High"
	RiskMedium   = "Medium"
	RiskLow      = "Low"
)

// riskCategory buckets a churn probability. The four categories partition
// [0,1] with no gaps.
func riskCategory(p float64) string {
	switch {
	case p >= 0.7:
		return RiskCritical
	case p >= 0.5:
		return RiskHigh
	case p >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Prediction is one scored customer.
type Prediction struct {
	Prediction       int     `json:"prediction"`
	ChurnProbability float64 `json:"churn_probability"`
	RiskCategory     string  `json:"risk_category"`
}

// ContributionEntry is one feature's share of an explained prediction.
type ContributionEntry struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
}

// Explanation is a scored customer with its top signed attributions.
type Explanation struct {
	Prediction
	ModelName     string              `json:"model_name"`
	BaseValue     float64             `json:"base_value"`
	Contributions []ContributionEntry `json:"contributions"`
}

// Scorer serves predictions from a persisted training run. It holds the best
// model and the shared preprocessors; all transforms replay exactly what was
// fit at training time.
type Scorer struct {
	modelName string
	model     Classifier
	pre       *Preprocessors
}

// LoadScorer loads the best model and preprocessors from the artifacts
// directory.
func LoadScorer(dir string) (*Scorer, error) {
	name, err := LoadBestModelName(dir)
	if err != nil {
		return nil, err
	}
	return LoadScorerFor(dir, name)
}

// LoadScorerFor loads a specific model by name.
func LoadScorerFor(dir, name string) (*Scorer, error) {
	model, err := LoadModel(dir, name)
	if err != nil {
		return nil, err
	}
	pre, err := LoadPreprocessors(dir)
	if err != nil {
		return nil, err
	}
	return &Scorer{modelName: name, model: model, pre: pre}, nil
}

// ModelName returns the name of the loaded model.
func (s *Scorer) ModelName() string { return s.modelName }

// encodeFeatureMap turns a raw feature map into an encoded, unscaled row in
// training column order. Every feature column must be present; an absent
// column is a schema error, never a silent imputation. Numeric values may
// arrive as float64 or int; categorical values must be strings.
func (s *Scorer) encodeFeatureMap(features map[string]any) ([]float64, error) {
	row := make([]float64, len(s.pre.FeatureNames))
	for j, col := range s.pre.FeatureNames {
		raw, present := features[col]
		if !present {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, col)
		}
		if enc, ok := s.pre.Encoders[col]; ok {
			v, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", ErrMissingFeature, col)
			}
			row[j] = enc.Transform(v)
			continue
		}
		switch v := raw.(type) {
		case float64:
			row[j] = v
		case int:
			row[j] = float64(v)
		default:
			return nil, fmt.Errorf("%w: %s must be numeric", ErrMissingFeature, col)
		}
	}
	return row, nil
}

// encodeRecord turns a mart record into an encoded, unscaled row.
func (s *Scorer) encodeRecord(rec *domain.ChurnFeatureRecord) ([]float64, error) {
	row := make([]float64, len(s.pre.FeatureNames))
	for j, col := range s.pre.FeatureNames {
		if enc, ok := s.pre.Encoders[col]; ok {
			v, present := rec.CategoricalFeature(col)
			if !present {
				return nil, fmt.Errorf("%w: %s", ErrMissingFeature, col)
			}
			row[j] = enc.Transform(v)
			continue
		}
		v, present := rec.NumericFeature(col)
		if !present {
			return nil, fmt.Errorf("%w: %s", ErrMissingFeature, col)
		}
		row[j] = v
	}
	return row, nil
}

func (s *Scorer) score(row []float64) Prediction {
	p := s.model.PredictProba(s.pre.Scaler.TransformRow(row))
	return Prediction{
		Prediction:       predictLabel(p),
		ChurnProbability: p,
		RiskCategory:     riskCategory(p),
	}
}

// Score predicts churn for one raw feature map.
func (s *Scorer) Score(features map[string]any) (Prediction, error) {
	row, err := s.encodeFeatureMap(features)
	if err != nil {
		return Prediction{}, err
	}
	return s.score(row), nil
}

// ScoreRecord predicts churn for one mart record.
func (s *Scorer) ScoreRecord(rec *domain.ChurnFeatureRecord) (Prediction, error) {
	row, err := s.encodeRecord(rec)
	if err != nil {
		return Prediction{}, err
	}
	return s.score(row), nil
}

// Explain scores one raw feature map and returns the topN features by
// absolute contribution, signed. topN of zero or less returns all features.
func (s *Scorer) Explain(features map[string]any, topN int) (Explanation, error) {
	row, err := s.encodeFeatureMap(features)
	if err != nil {
		return Explanation{}, err
	}

	scaled := s.pre.Scaler.TransformRow(row)
	attr := Attribute(s.model, scaled)

	entries := make([]ContributionEntry, len(s.pre.FeatureNames))
	for j, col := range s.pre.FeatureNames {
		entries[j] = ContributionEntry{
			Feature:      col,
			Value:        row[j],
			Contribution: attr.Contributions[j],
		}
	}
	sort.Slice(entries, func(a, b int) bool {
		aAbs, bAbs := abs(entries[a].Contribution), abs(entries[b].Contribution)
		if aAbs != bAbs {
			return aAbs > bAbs
		}
		return entries[a].Feature < entries[b].Feature
	})
	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}

	return Explanation{
		Prediction: Prediction{
			Prediction:       predictLabel(attr.Prediction),
			ChurnProbability: attr.Prediction,
			RiskCategory:     riskCategory(attr.Prediction),
		},
		ModelName:     s.modelName,
		BaseValue:     attr.BaseValue,
		Contributions: entries,
	}, nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
