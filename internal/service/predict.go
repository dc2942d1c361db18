package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
	"github.com/kbai612/churn-analytics-service/internal/ml"
)

// PredictService serves churn predictions from persisted training artifacts.
// Scorers are loaded lazily per model name and cached; the empty model name
// maps to the best model recorded by the last training run.
type PredictService struct {
	artifactsDir string
	log          *zap.Logger

	mu      sync.Mutex
	scorers map[string]*ml.Scorer
}

// NewPredictService creates a new prediction service.
func NewPredictService(artifactsDir string, log *zap.Logger) *PredictService {
	return &PredictService{
		artifactsDir: artifactsDir,
		log:          log,
		scorers:      make(map[string]*ml.Scorer),
	}
}

// scorerFor returns the cached scorer for the given model name, loading it on
// first use.
func (s *PredictService) scorerFor(model string) (*ml.Scorer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scorer, ok := s.scorers[model]; ok {
		return scorer, nil
	}

	var scorer *ml.Scorer
	var err error
	if model == "" {
		scorer, err = ml.LoadScorer(s.artifactsDir)
	} else {
		scorer, err = ml.LoadScorerFor(s.artifactsDir, model)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load model %q: %w", model, err)
	}

	s.log.Info("Model loaded for serving",
		zap.String("model", scorer.ModelName()))

	s.scorers[model] = scorer
	return scorer, nil
}

// Score predicts churn for one raw feature map.
func (s *PredictService) Score(req *dto.PredictRequest) (*dto.PredictResponse, error) {
	scorer, err := s.scorerFor(req.Model)
	if err != nil {
		return nil, err
	}

	pred, err := scorer.Score(req.Features)
	if err != nil {
		return nil, err
	}

	return &dto.PredictResponse{
		Model:            scorer.ModelName(),
		Prediction:       pred.Prediction,
		ChurnProbability: pred.ChurnProbability,
		RiskCategory:     pred.RiskCategory,
	}, nil
}

// Explain predicts churn for one raw feature map with per-feature
// attributions.
func (s *PredictService) Explain(req *dto.ExplainRequest) (*dto.ExplainResponse, error) {
	scorer, err := s.scorerFor(req.Model)
	if err != nil {
		return nil, err
	}

	expl, err := scorer.Explain(req.Features, req.TopN)
	if err != nil {
		return nil, err
	}

	resp := &dto.ExplainResponse{
		Model:            expl.ModelName,
		ChurnProbability: expl.ChurnProbability,
		RiskCategory:     expl.RiskCategory,
		BaseValue:        expl.BaseValue,
		Contributions:    make([]dto.ContributionEntry, 0, len(expl.Contributions)),
	}
	for _, c := range expl.Contributions {
		resp.Contributions = append(resp.Contributions, dto.ContributionEntry{
			Feature:      c.Feature,
			Value:        c.Value,
			Contribution: c.Contribution,
		})
	}
	return resp, nil
}
