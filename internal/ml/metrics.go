package ml

import "sort"

// ModelMetrics is the evaluation record persisted per model.
type ModelMetrics struct {
	ModelName       string    `json:"model_name"`
	Accuracy        float64   `json:"accuracy"`
	Precision       float64   `json:"precision"`
	Recall          float64   `json:"recall"`
	F1Score         float64   `json:"f1_score"`
	ROCAUC          float64   `json:"roc_auc"`
	PRAUC           float64   `json:"pr_auc"`
	TrainROCAUC     float64   `json:"train_roc_auc"`
	OverfitGap      float64   `json:"overfit_gap"`
	ConfusionMatrix [2][2]int `json:"confusion_matrix"`
	CVScores        []float64 `json:"cv_scores,omitempty"`
	CVMean          float64   `json:"cv_mean,omitempty"`
	CVStd           float64   `json:"cv_std,omitempty"`
}

// confusionMatrix counts [actual][predicted] with 0 = retained, 1 = churned.
func confusionMatrix(y []int, pred []int) [2][2]int {
	var cm [2][2]int
	for i := range y {
		cm[y[i]][pred[i]]++
	}
	return cm
}

func accuracy(cm [2][2]int) float64 {
	total := cm[0][0] + cm[0][1] + cm[1][0] + cm[1][1]
	if total == 0 {
		return 0
	}
	return float64(cm[0][0]+cm[1][1]) / float64(total)
}

func precision(cm [2][2]int) float64 {
	denom := cm[0][1] + cm[1][1]
	if denom == 0 {
		return 0
	}
	return float64(cm[1][1]) / float64(denom)
}

func recall(cm [2][2]int) float64 {
	denom := cm[1][0] + cm[1][1]
	if denom == 0 {
		return 0
	}
	return float64(cm[1][1]) / float64(denom)
}

func f1Score(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// rocAUC computes the area under the ROC curve via the rank statistic, with
// tied scores receiving their average rank.
func rocAUC(y []int, scores []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		// Ranks are 1-based; ties share the average rank of their block.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var pos int
	var posRankSum float64
	for i := range y {
		if y[i] == 1 {
			pos++
			posRankSum += ranks[i]
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return 0.5
	}
	return (posRankSum - float64(pos)*float64(pos+1)/2) / (float64(pos) * float64(neg))
}

// prAUC computes average precision: the precision-recall curve summarized as
// the precision-weighted sum of recall increments.
func prAUC(y []int, scores []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	var totalPos int
	for _, label := range y {
		totalPos += label
	}
	if totalPos == 0 {
		return 0
	}

	var tp, fp int
	var auc, prevRecall float64
	for i := 0; i < n; {
		// Process tied scores as one threshold.
		j := i
		for j < n && scores[order[j]] == scores[order[i]] {
			if y[order[j]] == 1 {
				tp++
			} else {
				fp++
			}
			j++
		}
		rec := float64(tp) / float64(totalPos)
		prec := float64(tp) / float64(tp+fp)
		auc += (rec - prevRecall) * prec
		prevRecall = rec
		i = j
	}
	return auc
}

// Evaluate scores a fitted model against train and test splits.
func Evaluate(model Classifier, XTrain [][]float64, yTrain []int, XTest [][]float64, yTest []int) ModelMetrics {
	testScores := make([]float64, len(XTest))
	testPred := make([]int, len(XTest))
	for i, x := range XTest {
		testScores[i] = model.PredictProba(x)
		testPred[i] = predictLabel(testScores[i])
	}
	trainScores := make([]float64, len(XTrain))
	for i, x := range XTrain {
		trainScores[i] = model.PredictProba(x)
	}

	cm := confusionMatrix(yTest, testPred)
	p := precision(cm)
	r := recall(cm)

	metrics := ModelMetrics{
		ModelName:       model.Name(),
		Accuracy:        accuracy(cm),
		Precision:       p,
		Recall:          r,
		F1Score:         f1Score(p, r),
		ROCAUC:          rocAUC(yTest, testScores),
		PRAUC:           prAUC(yTest, testScores),
		TrainROCAUC:     rocAUC(yTrain, trainScores),
		ConfusionMatrix: cm,
	}
	metrics.OverfitGap = metrics.TrainROCAUC - metrics.ROCAUC
	return metrics
}
