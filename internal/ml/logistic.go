package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Model names used in artifacts and reports.
const (
	ModelLogisticRegression = "Logistic Regression"
	ModelRandomForest       = "Random Forest"
	ModelGradientBoosting   = "Gradient Boosting"
)

// Classifier is a binary churn classifier. Fit consumes a design matrix whose
// columns follow FeatureColumns; PredictProba returns the positive-class
// probability for one row.
type Classifier interface {
	Name() string
	Fit(X [][]float64, y []int) error
	PredictProba(x []float64) float64
}

// predictLabel thresholds a probability at 0.5.
func predictLabel(p float64) int {
	if p >= 0.5 {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// LogisticRegression is a binary logistic model trained by gradient descent
// with balanced class weights. Inputs are expected to be standardized.
type LogisticRegression struct {
	LearningRate float64   `json:"learning_rate"`
	MaxIter      int       `json:"max_iter"`
	Tol          float64   `json:"tol"`
	Weights      []float64 `json:"weights"`
	Intercept    float64   `json:"intercept"`
}

// NewLogisticRegression creates a model with the training defaults.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		LearningRate: 0.1,
		MaxIter:      1000,
		Tol:          1e-6,
	}
}

func (m *LogisticRegression) Name() string { return ModelLogisticRegression }

// Fit trains the model. Class weights are balanced: each class contributes
// equally to the loss regardless of its prevalence.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("%w: logistic regression fit", ErrEmptyInput)
	}
	n := len(X)
	cols := len(X[0])
	m.Weights = make([]float64, cols)
	m.Intercept = 0

	var pos int
	for _, label := range y {
		pos += label
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return fmt.Errorf("logistic regression fit: single-class training set")
	}
	wPos := float64(n) / (2 * float64(pos))
	wNeg := float64(n) / (2 * float64(neg))

	grad := make([]float64, cols)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradIntercept, totalWeight float64

		for i := range X {
			p := sigmoid(floats.Dot(m.Weights, X[i]) + m.Intercept)
			w := wNeg
			if y[i] == 1 {
				w = wPos
			}
			err := w * (p - float64(y[i]))
			floats.AddScaled(grad, err, X[i])
			gradIntercept += err
			totalWeight += w
		}

		step := m.LearningRate / totalWeight
		floats.AddScaled(m.Weights, -step, grad)
		m.Intercept -= step * gradIntercept

		if math.Abs(step*gradIntercept) < m.Tol && floats.Norm(grad, 2)*step < m.Tol {
			break
		}
	}
	return nil
}

// PredictProba returns the churn probability for one row.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	return sigmoid(floats.Dot(m.Weights, x) + m.Intercept)
}
