package classifier

import (
	"fmt"
	"log"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const tau = 1e-12

// plattFolds is the number of folds used to collect decision values for the
// probability sigmoid.
const plattFolds = 5

// SVC is a C-support vector classifier with a polynomial kernel
// K(a, b) = (gamma * a.b + coef0)^degree, trained by SMO with maximal
// violating pair selection. Probabilities come from a Platt sigmoid fitted
// on 5-fold cross-validated decision values, as libsvm does.
type SVC struct {
	C       float64
	Degree  int
	Gamma   float64 // 0 selects 1 / (n_features * Var(X))
	Coef0   float64
	Tol     float64
	MaxIter int
	Seed    uint64 // shuffles the probability folds

	gamma    float64
	support  [][]float64 // support vectors
	dualCoef []float64   // alpha_i * y_i for each support vector
	rho      float64
	platt    plattScaling

	fitted bool
	fixed  *constant
}

// NewSVC returns a degree-3 polynomial SVC with C=1 and gamma="scale".
func NewSVC() *SVC {
	return &SVC{C: 1.0, Degree: 3, Tol: 1e-3, MaxIter: 1_000_000}
}

func (s *SVC) Name() string {
	return "SVC(kernel='poly', probability=True)"
}

func (s *SVC) kernel(a, b []float64) float64 {
	return math.Pow(s.gamma*floats.Dot(a, b)+s.Coef0, float64(s.Degree))
}

// scaleGamma is 1 / (n_features * variance of all entries of x).
func scaleGamma(rows [][]float64) float64 {
	var all []float64
	for _, r := range rows {
		all = append(all, r...)
	}
	_, variance := stat.PopMeanVariance(all, nil)
	if variance == 0 || len(rows) == 0 {
		return 1
	}
	return 1 / (float64(len(rows[0])) * variance)
}

func (s *SVC) Fit(x mat.Matrix, y []float64) error {
	if err := checkTrainingData(x, y); err != nil {
		return fmt.Errorf("svc fit: %w", err)
	}
	n, _ := x.Dims()
	s.fitted = true
	s.fixed = nil

	neg, pos := classCounts(y)
	if neg == 0 || pos == 0 {
		log.Printf("[WARN] svc fit: single class in %d training rows, predicting a constant", n)
		s.fixed = &constant{p: float64(pos) / float64(n)}
		return nil
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	s.gamma = s.Gamma
	if s.gamma <= 0 {
		s.gamma = scaleGamma(rows)
	}

	// Label 1 maps to +1, label 0 to -1.
	sign := make([]float64, n)
	for i, v := range y {
		if v == 1 {
			sign[i] = 1
		} else {
			sign[i] = -1
		}
	}

	m := s.solve(rows, sign)
	s.support, s.dualCoef, s.rho = m.support, m.dualCoef, m.rho

	labels := make([]bool, n)
	for i, v := range y {
		labels[i] = v == 1
	}
	s.platt = fitPlatt(s.crossValidatedDecisions(rows, sign), labels)
	return nil
}

// svmModel is the dual solution of one SMO run.
type svmModel struct {
	support  [][]float64
	dualCoef []float64
	rho      float64
}

func (s *SVC) decision(m svmModel, row []float64) float64 {
	f := -m.rho
	for k, sv := range m.support {
		f += m.dualCoef[k] * s.kernel(sv, row)
	}
	return f
}

// crossValidatedDecisions returns out-of-fold decision values for every row.
// Rows are shuffled with Seed and split into plattFolds folds; a fold whose
// training part holds one class scores +1 or -1 for that class.
func (s *SVC) crossValidatedDecisions(rows [][]float64, sign []float64) []float64 {
	n := len(rows)
	perm := rand.New(rand.NewPCG(s.Seed, s.Seed)).Perm(n)
	dec := make([]float64, n)
	for fold := 0; fold < plattFolds; fold++ {
		lo, hi := fold*n/plattFolds, (fold+1)*n/plattFolds
		if lo == hi {
			continue
		}
		var trainRows [][]float64
		var trainSign []float64
		var pos, neg int
		for k, i := range perm {
			if k >= lo && k < hi {
				continue
			}
			trainRows = append(trainRows, rows[i])
			trainSign = append(trainSign, sign[i])
			if sign[i] > 0 {
				pos++
			} else {
				neg++
			}
		}

		var score func(row []float64) float64
		switch {
		case pos > 0 && neg > 0:
			m := s.solve(trainRows, trainSign)
			score = func(row []float64) float64 { return s.decision(m, row) }
		case pos > 0:
			score = func([]float64) float64 { return 1 }
		case neg > 0:
			score = func([]float64) float64 { return -1 }
		default:
			score = func([]float64) float64 { return 0 }
		}
		for _, i := range perm[lo:hi] {
			dec[i] = score(rows[i])
		}
	}
	return dec
}

// solve runs SMO on rows with labels sign in {-1, +1}.
func (s *SVC) solve(rows [][]float64, sign []float64) svmModel {
	n := len(rows)
	c := s.C
	if c <= 0 {
		c = 1
	}
	tol := s.Tol
	if tol <= 0 {
		tol = 1e-3
	}

	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			gram.SetSym(i, j, s.kernel(rows[i], rows[j]))
		}
	}
	q := func(i, j int) float64 { return sign[i] * sign[j] * gram.At(i, j) }

	alpha := make([]float64, n)
	grad := make([]float64, n) // gradient of 0.5 a'Qa - e'a
	for i := range grad {
		grad[i] = -1
	}

	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = 1_000_000
	}
	iter := 0
	for ; iter < maxIter; iter++ {
		i, j, gap := selectWorkingSet(alpha, grad, sign, c)
		if i < 0 || j < 0 || gap < tol {
			break
		}

		oldAi, oldAj := alpha[i], alpha[j]
		if sign[i] != sign[j] {
			quad := gram.At(i, i) + gram.At(j, j) + 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := gram.At(i, i) + gram.At(j, j) - 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dAi, dAj := alpha[i]-oldAi, alpha[j]-oldAj
		for k := 0; k < n; k++ {
			grad[k] += q(i, k)*dAi + q(j, k)*dAj
		}
	}
	if iter == maxIter {
		log.Printf("[WARN] svc fit: reached %d iterations without converging", maxIter)
	}

	m := svmModel{rho: computeRho(alpha, grad, sign, c)}
	for i, a := range alpha {
		if a > 0 {
			m.support = append(m.support, rows[i])
			m.dualCoef = append(m.dualCoef, a*sign[i])
		}
	}
	return m
}

// selectWorkingSet returns the maximal violating pair and the optimality gap.
func selectWorkingSet(alpha, grad, sign []float64, c float64) (int, int, float64) {
	gmax, gmin := math.Inf(-1), math.Inf(1)
	i, j := -1, -1
	for t := range alpha {
		v := -sign[t] * grad[t]
		if inUp(alpha[t], sign[t], c) && v > gmax {
			gmax = v
			i = t
		}
		if inLow(alpha[t], sign[t], c) && v < gmin {
			gmin = v
			j = t
		}
	}
	return i, j, gmax - gmin
}

func inUp(a, y, c float64) bool {
	return (y > 0 && a < c) || (y < 0 && a > 0)
}

func inLow(a, y, c float64) bool {
	return (y > 0 && a > 0) || (y < 0 && a < c)
}

// computeRho averages y*grad over free vectors, falling back to the bound midpoint.
func computeRho(alpha, grad, sign []float64, c float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	sumFree, nFree := 0.0, 0
	for i := range alpha {
		yg := sign[i] * grad[i]
		switch {
		case alpha[i] >= c:
			if sign[i] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[i] <= 0:
			if sign[i] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	switch {
	case nFree > 0:
		return sumFree / float64(nFree)
	case math.IsInf(ub, 1):
		return lb
	case math.IsInf(lb, -1):
		return ub
	}
	return (ub + lb) / 2
}

// DecisionFunction returns sum(alpha_i y_i K(sv_i, x)) - rho; positive favours label 1.
func (s *SVC) DecisionFunction(x mat.Matrix) []float64 {
	r, c := x.Dims()
	out := make([]float64, r)
	row := make([]float64, c)
	m := svmModel{support: s.support, dualCoef: s.dualCoef, rho: s.rho}
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		out[i] = s.decision(m, row)
	}
	return out
}

func (s *SVC) PredictProba(x mat.Matrix) []float64 {
	if !s.fitted {
		panic(ErrNotFitted)
	}
	if s.fixed != nil {
		return s.fixed.proba(x)
	}
	dec := s.DecisionFunction(x)
	for i, f := range dec {
		dec[i] = s.platt.predict(f)
	}
	return dec
}
