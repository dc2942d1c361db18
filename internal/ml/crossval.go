package ml

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/kbai612/churn-analytics-service/internal/worker"
)

// CVResult summarizes k-fold cross-validation ROC-AUC scores.
type CVResult struct {
	Scores []float64 `json:"cv_scores"`
	Mean   float64   `json:"cv_mean"`
	Std    float64   `json:"cv_std"`
}

// CrossValidate runs stratified k-fold cross-validation over the training
// split, fitting a fresh model per fold on a worker pool. factory must return
// an independent unfitted model on every call.
func CrossValidate(factory func() Classifier, X [][]float64, y []int, folds int, seed int64, workers int) (CVResult, error) {
	if len(X) == 0 {
		return CVResult{}, fmt.Errorf("%w: cross-validation", ErrEmptyInput)
	}
	testFolds := StratifiedKFold(y, folds, seed)

	scores := make([]float64, folds)
	var mu sync.Mutex

	pool := worker.NewPool(workers)
	pool.Start()
	for f := 0; f < folds; f++ {
		f := f
		err := pool.Submit(func() error {
			holdout := make(map[int]struct{}, len(testFolds[f]))
			for _, i := range testFolds[f] {
				holdout[i] = struct{}{}
			}

			var trainX, testX [][]float64
			var trainY, testY []int
			for i := range X {
				if _, ok := holdout[i]; ok {
					testX = append(testX, X[i])
					testY = append(testY, y[i])
				} else {
					trainX = append(trainX, X[i])
					trainY = append(trainY, y[i])
				}
			}

			model := factory()
			if err := model.Fit(trainX, trainY); err != nil {
				return fmt.Errorf("fold %d: %w", f, err)
			}
			foldScores := make([]float64, len(testX))
			for i, x := range testX {
				foldScores[i] = model.PredictProba(x)
			}

			mu.Lock()
			scores[f] = rocAUC(testY, foldScores)
			mu.Unlock()
			return nil
		})
		if err != nil {
			pool.Stop()
			return CVResult{}, err
		}
	}
	if err := pool.Wait(); err != nil {
		return CVResult{}, err
	}

	return CVResult{
		Scores: scores,
		Mean:   stat.Mean(scores, nil),
		Std:    stat.PopStdDev(scores, nil),
	}, nil
}
