package classifier

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularised linear logistic model fitted with L-BFGS.
// The objective is C * sum(logloss) + 0.5 * ||w||^2; the intercept is not penalised.
type LogisticRegression struct {
	C       float64
	MaxIter int

	Coef      []float64
	Intercept float64

	fitted bool
	fixed  *constant
}

// NewLogisticRegression returns a model with C=1 and up to 100 iterations.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1.0, MaxIter: 100}
}

func (lr *LogisticRegression) Name() string { return "LogisticRegression()" }

func (lr *LogisticRegression) Fit(x mat.Matrix, y []float64) error {
	if err := checkTrainingData(x, y); err != nil {
		return fmt.Errorf("logistic fit: %w", err)
	}
	n, p := x.Dims()
	lr.fitted = true
	lr.fixed = nil

	neg, pos := classCounts(y)
	if neg == 0 || pos == 0 {
		log.Printf("[WARN] logistic fit: single class in %d training rows, predicting a constant", n)
		lr.Coef = make([]float64, p)
		lr.Intercept = 0
		lr.fixed = &constant{p: float64(pos) / float64(n)}
		return nil
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	c := lr.C
	if c <= 0 {
		c = 1
	}

	// params = [w_0 .. w_{p-1}, b]
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			w, b := params[:p], params[p]
			loss := 0.0
			for i, row := range rows {
				z := floats.Dot(w, row) + b
				loss += softplus(z) - y[i]*z
			}
			return c*loss + 0.5*floats.Dot(w, w)
		},
		Grad: func(grad, params []float64) {
			w, b := params[:p], params[p]
			for j := range grad {
				grad[j] = 0
			}
			for i, row := range rows {
				r := sigmoid(floats.Dot(w, row)+b) - y[i]
				floats.AddScaled(grad[:p], r, row)
				grad[p] += r
			}
			floats.Scale(c, grad)
			floats.Add(grad[:p], w)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-6,
		MajorIterations:   lr.MaxIter,
	}
	x0 := make([]float64, p+1)
	result, err := optimize.Minimize(problem, x0, settings, &optimize.LBFGS{})
	if err != nil {
		if result == nil {
			return fmt.Errorf("logistic fit: %w", err)
		}
		log.Printf("[WARN] logistic fit: %v (status %v), using last iterate", err, result.Status)
	}

	lr.Coef = make([]float64, p)
	copy(lr.Coef, result.X[:p])
	lr.Intercept = result.X[p]
	return nil
}

// DecisionFunction returns the linear score w.x + b for each row.
func (lr *LogisticRegression) DecisionFunction(x mat.Matrix) []float64 {
	r, _ := x.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = floats.Dot(lr.Coef, mat.Row(nil, i, x)) + lr.Intercept
	}
	return out
}

func (lr *LogisticRegression) PredictProba(x mat.Matrix) []float64 {
	if !lr.fitted {
		panic(ErrNotFitted)
	}
	if lr.fixed != nil {
		return lr.fixed.proba(x)
	}
	scores := lr.DecisionFunction(x)
	for i, z := range scores {
		scores[i] = sigmoid(z)
	}
	return scores
}
