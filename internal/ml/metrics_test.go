package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfusionMatrixAndDerivedMetrics(t *testing.T) {
	y := []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}
	pred := []int{1, 1, 1, 0, 0, 0, 0, 0, 1, 1}

	cm := confusionMatrix(y, pred)
	assert.Equal(t, 4, cm[0][0])
	assert.Equal(t, 2, cm[0][1])
	assert.Equal(t, 1, cm[1][0])
	assert.Equal(t, 3, cm[1][1])

	assert.InDelta(t, 0.7, accuracy(cm), 1e-9)
	assert.InDelta(t, 0.6, precision(cm), 1e-9)
	assert.InDelta(t, 0.75, recall(cm), 1e-9)
	p, r := precision(cm), recall(cm)
	assert.InDelta(t, 2*p*r/(p+r), f1Score(p, r), 1e-9)
}

func TestMetrics_ZeroDenominators(t *testing.T) {
	// No positive predictions, no positive labels.
	cm := confusionMatrix([]int{0, 0}, []int{0, 0})
	assert.Equal(t, 0.0, precision(cm))
	assert.Equal(t, 0.0, recall(cm))
	assert.Equal(t, 0.0, f1Score(0, 0))
}

func TestROCAUC(t *testing.T) {
	// Perfect ranking.
	assert.InDelta(t, 1.0, rocAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}), 1e-9)
	// Inverted ranking.
	assert.InDelta(t, 0.0, rocAUC([]int{0, 0, 1, 1}, []float64{0.9, 0.8, 0.2, 0.1}), 1e-9)
	// All scores tied: chance level.
	assert.InDelta(t, 0.5, rocAUC([]int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}), 1e-9)
	// One inversion among four pairs.
	assert.InDelta(t, 0.75, rocAUC([]int{0, 1, 0, 1}, []float64{0.1, 0.4, 0.5, 0.9}), 1e-9)
	// Degenerate single-class input.
	assert.InDelta(t, 0.5, rocAUC([]int{1, 1}, []float64{0.2, 0.9}), 1e-9)
}

func TestPRAUC(t *testing.T) {
	// Perfect ranking: average precision 1.
	assert.InDelta(t, 1.0, prAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}), 1e-9)
	// No positives.
	assert.Equal(t, 0.0, prAUC([]int{0, 0}, []float64{0.3, 0.7}))
	// Positives ranked last: each found at low precision.
	ap := prAUC([]int{1, 0, 0, 0}, []float64{0.1, 0.5, 0.6, 0.7})
	assert.InDelta(t, 0.25, ap, 1e-9)
}

type constantModel struct{ p float64 }

func (m constantModel) Name() string                   { return "Constant" }
func (m constantModel) Fit([][]float64, []int) error   { return nil }
func (m constantModel) PredictProba(x []float64) float64 { return m.p }

func TestEvaluate(t *testing.T) {
	XTrain := [][]float64{{0}, {1}, {2}, {3}}
	yTrain := []int{0, 0, 1, 1}
	XTest := [][]float64{{0}, {3}}
	yTest := []int{0, 1}

	metrics := Evaluate(constantModel{p: 0.9}, XTrain, yTrain, XTest, yTest)

	assert.Equal(t, "Constant", metrics.ModelName)
	// Everything predicted churned.
	assert.InDelta(t, 0.5, metrics.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, metrics.Precision, 1e-9)
	assert.InDelta(t, 1.0, metrics.Recall, 1e-9)
	// Constant scores rank at chance on both splits.
	assert.InDelta(t, 0.5, metrics.ROCAUC, 1e-9)
	assert.InDelta(t, 0.5, metrics.TrainROCAUC, 1e-9)
	assert.InDelta(t, 0.0, metrics.OverfitGap, 1e-9)
	assert.Equal(t, 1, metrics.ConfusionMatrix[1][1])
	assert.Equal(t, 1, metrics.ConfusionMatrix[0][1])
}
