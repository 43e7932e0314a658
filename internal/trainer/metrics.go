package trainer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"BitcoinTrend/internal/model"
)

// ErrSingleClass is returned when ROC-AUC is requested for labels of one class.
var ErrSingleClass = errors.New("roc auc undefined: only one class present")

// DefaultThreshold turns probabilities into predicted labels.
const DefaultThreshold = 0.5

// ROCAUC computes the area under the ROC curve of scores against 0/1 labels.
func ROCAUC(y, scores []float64) (float64, error) {
	if len(y) != len(scores) {
		return 0, fmt.Errorf("roc auc: %d labels, %d scores", len(y), len(scores))
	}
	var pos, neg int
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, ErrSingleClass
	}

	s := make([]float64, len(scores))
	copy(s, scores)
	classes := make([]bool, len(y))
	for i, v := range y {
		classes[i] = v == 1
	}
	stat.SortWeightedLabeled(s, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, s, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Score evaluates AUC, reporting an undefined metric as 0.5.
func Score(y, scores []float64) model.Metric {
	auc, err := ROCAUC(y, scores)
	if err != nil {
		return model.Metric{Value: 0.5}
	}
	return model.Metric{Value: auc, Defined: true}
}

// Confusion counts labels against predictions; a row is predicted 1 only when
// its probability is strictly above threshold.
func Confusion(name string, y, proba []float64, threshold float64) model.ConfusionMatrix {
	cm := model.ConfusionMatrix{Model: name}
	for i, v := range y {
		pred := 0
		if proba[i] > threshold {
			pred = 1
		}
		cm.Counts[int(v)][pred]++
	}
	return cm
}
