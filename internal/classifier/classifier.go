// Package classifier implements the binary classifiers fitted on the
// standardized feature matrix. Every classifier reports the probability of
// label 1 for each row.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Classifier is a binary model trained on labels 0/1.
type Classifier interface {
	Name() string
	Fit(x mat.Matrix, y []float64) error
	PredictProba(x mat.Matrix) []float64
}

// ErrNotFitted is returned when predicting with an unfitted model.
var ErrNotFitted = errors.New("classifier not fitted")

func checkTrainingData(x mat.Matrix, y []float64) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return errors.New("empty training matrix")
	}
	if r != len(y) {
		return fmt.Errorf("rows %d != labels %d", r, len(y))
	}
	for i, v := range y {
		if v != 0 && v != 1 {
			return fmt.Errorf("label %d is %v, want 0 or 1", i, v)
		}
	}
	return nil
}

// classCounts returns the number of 0 and 1 labels.
func classCounts(y []float64) (neg, pos int) {
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	return neg, pos
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

// constant predicts the same probability for every row. It stands in when
// the training labels contain a single class.
type constant struct {
	p float64
}

func (c constant) proba(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = c.p
	}
	return out
}
