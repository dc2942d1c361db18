package ml

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/config"
	"github.com/kbai612/churn-analytics-service/internal/domain"
)

// bestTieBreak orders models for best-model selection when test ROC-AUC ties:
// tree ensembles are preferred over the linear baseline.
var bestTieBreak = map[string]int{
	ModelGradientBoosting:   0,
	ModelRandomForest:       1,
	ModelLogisticRegression: 2,
}

// TrainReport summarizes one training run.
type TrainReport struct {
	BestModelName string
	Metrics       []ModelMetrics
	TrainRows     int
	TestRows      int
	Duration      time.Duration
}

// Trainer runs the full training pipeline: preprocessing, fitting the three
// candidate models, evaluation with cross-validation, explanation, and
// artifact persistence.
type Trainer struct {
	cfg config.Training
	log *zap.Logger
}

// NewTrainer creates a trainer.
func NewTrainer(cfg config.Training, log *zap.Logger) *Trainer {
	return &Trainer{cfg: cfg, log: log}
}

// Train fits and evaluates all candidate models on the given mart records and
// writes the artifacts directory. The best model by test ROC-AUC becomes the
// serving default.
func (t *Trainer) Train(records []*domain.ChurnFeatureRecord) (*TrainReport, error) {
	start := time.Now()

	ds, encoders, err := BuildDataset(records)
	if err != nil {
		return nil, err
	}
	trainIdx, testIdx := StratifiedSplit(ds.Y, t.cfg.TestSize, t.cfg.Seed)
	rawTrainX, trainY := ds.Select(trainIdx)
	rawTestX, testY := ds.Select(testIdx)

	scaler := &StandardScaler{}
	if err := scaler.Fit(rawTrainX); err != nil {
		return nil, err
	}
	trainX := scaler.Transform(rawTrainX)
	testX := scaler.Transform(rawTestX)

	t.log.Info("Training data prepared",
		zap.Int("features", len(ds.FeatureNames)),
		zap.Int("train_rows", len(trainX)),
		zap.Int("test_rows", len(testX)))

	pre := &Preprocessors{
		FeatureNames: ds.FeatureNames,
		Encoders:     encoders,
		Scaler:       scaler,
		Medians:      columnMedians(rawTrainX),
	}
	if err := SavePreprocessors(t.cfg.ArtifactsDir, pre); err != nil {
		return nil, err
	}

	candidates := []struct {
		model   Classifier
		factory func() Classifier
	}{
		{NewLogisticRegression(), func() Classifier { return NewLogisticRegression() }},
		{NewRandomForest(t.cfg.Seed), func() Classifier { return NewRandomForest(t.cfg.Seed) }},
		{NewGradientBoosting(t.cfg.Seed), func() Classifier { return NewGradientBoosting(t.cfg.Seed) }},
	}

	var all []ModelMetrics
	for _, c := range candidates {
		name := c.model.Name()
		t.log.Info("Fitting model", zap.String("model", name))
		if err := c.model.Fit(trainX, trainY); err != nil {
			return nil, err
		}

		metrics := Evaluate(c.model, trainX, trainY, testX, testY)
		cv, err := CrossValidate(c.factory, trainX, trainY, t.cfg.CVFolds, t.cfg.Seed, t.cfg.Workers)
		if err != nil {
			return nil, err
		}
		metrics.CVScores = cv.Scores
		metrics.CVMean = cv.Mean
		metrics.CVStd = cv.Std

		importance := GlobalImportance(c.model, testX, ds.FeatureNames)
		if err := SaveModel(t.cfg.ArtifactsDir, c.model, metrics, importance); err != nil {
			return nil, err
		}

		t.log.Info("Model evaluated",
			zap.String("model", name),
			zap.Float64("roc_auc", metrics.ROCAUC),
			zap.Float64("pr_auc", metrics.PRAUC),
			zap.Float64("cv_mean", metrics.CVMean),
			zap.Float64("overfit_gap", metrics.OverfitGap))

		all = append(all, metrics)
	}

	sort.Slice(all, func(a, b int) bool {
		if all[a].ROCAUC != all[b].ROCAUC {
			return all[a].ROCAUC > all[b].ROCAUC
		}
		return bestTieBreak[all[a].ModelName] < bestTieBreak[all[b].ModelName]
	})
	best := all[0].ModelName

	if err := SaveComparison(t.cfg.ArtifactsDir, all); err != nil {
		return nil, err
	}
	if err := SaveBestModelName(t.cfg.ArtifactsDir, best); err != nil {
		return nil, err
	}

	report := &TrainReport{
		BestModelName: best,
		Metrics:       all,
		TrainRows:     len(trainX),
		TestRows:      len(testX),
		Duration:      time.Since(start),
	}
	t.log.Info("Training complete",
		zap.String("best_model", best),
		zap.Float64("best_roc_auc", all[0].ROCAUC),
		zap.Duration("duration", report.Duration))
	return report, nil
}
