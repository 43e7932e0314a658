package classifier

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// linearData labels a point 1 when x0 + x1 > 0.
func linearData(n int, seed uint64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.NormFloat64(), rng.NormFloat64()
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a+b > 0 {
			y[i] = 1
		}
	}
	return x, y
}

// ringData labels a point 1 when it lies outside the unit circle.
func ringData(n int, seed uint64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(n, 2, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.Float64()*4-2, rng.Float64()*4-2
		x.Set(i, 0, a)
		x.Set(i, 1, b)
		if a*a+b*b > 1.5 {
			y[i] = 1
		}
	}
	return x, y
}

func accuracy(p, y []float64) float64 {
	hit := 0
	for i := range p {
		pred := 0.0
		if p[i] >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(y))
}

func assertProbabilities(t *testing.T, p []float64) {
	t.Helper()
	for i, v := range p {
		require.False(t, math.IsNaN(v), "row %d is NaN", i)
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}

func TestLogisticRegression_Separable(t *testing.T) {
	x, y := linearData(200, 1)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(x, y))

	p := lr.PredictProba(x)
	assertProbabilities(t, p)
	assert.Greater(t, accuracy(p, y), 0.95)
	assert.Greater(t, lr.Coef[0], 0.0)
	assert.Greater(t, lr.Coef[1], 0.0)
}

func TestSVC_Separable(t *testing.T) {
	x, y := linearData(120, 2)
	s := NewSVC()
	require.NoError(t, s.Fit(x, y))

	p := s.PredictProba(x)
	assertProbabilities(t, p)
	assert.Greater(t, accuracy(p, y), 0.85)
	assert.NotEmpty(t, s.support)
}

func TestSVC_DecisionSign(t *testing.T) {
	x, y := linearData(120, 3)
	s := NewSVC()
	require.NoError(t, s.Fit(x, y))

	probe := mat.NewDense(2, 2, []float64{2, 2, -2, -2})
	dec := s.DecisionFunction(probe)
	assert.Greater(t, dec[0], 0.0)
	assert.Less(t, dec[1], 0.0)
}

func TestSVC_CrossValidatedDecisions(t *testing.T) {
	x, y := linearData(100, 5)
	s := NewSVC()
	s.Seed = 11
	require.NoError(t, s.Fit(x, y))

	n, _ := x.Dims()
	rows := make([][]float64, n)
	sign := make([]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
		sign[i] = 2*y[i] - 1
	}
	dec := s.crossValidatedDecisions(rows, sign)
	require.Len(t, dec, n)
	agree := 0
	for i, f := range dec {
		if f*sign[i] > 0 {
			agree++
		}
	}
	assert.Greater(t, float64(agree)/float64(n), 0.75, "out-of-fold decisions should mostly match labels")

	again := NewSVC()
	again.Seed = 11
	require.NoError(t, again.Fit(x, y))
	assert.Equal(t, s.PredictProba(x), again.PredictProba(x))
}

func TestSVC_CrossValidatedSingleClassFolds(t *testing.T) {
	s := NewSVC()
	rows := [][]float64{{1, 1}, {-1, -1}}
	dec := s.crossValidatedDecisions(rows, []float64{1, -1})
	// Each held-out row is scored by a fold trained on the other class only.
	assert.Equal(t, []float64{-1, 1}, dec)
}

func TestGradientBoosting_Nonlinear(t *testing.T) {
	x, y := ringData(300, 4)
	gb := NewGradientBoosting()
	require.NoError(t, gb.Fit(x, y))

	p := gb.PredictProba(x)
	assertProbabilities(t, p)
	assert.Greater(t, accuracy(p, y), 0.95)
	assert.Len(t, gb.trees, gb.Rounds)
}

func TestGradientBoosting_BaseScoreOnly(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	y := []float64{0, 1, 0, 1}
	gb := NewGradientBoosting()
	gb.Rounds = 5
	require.NoError(t, gb.Fit(x, y))

	// No split is possible on a constant feature, and the gradients cancel.
	for _, v := range gb.PredictProba(x) {
		assert.InDelta(t, 0.5, v, 1e-12)
	}
}

func TestSingleClassPredictsConstant(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{1, 1, 1}

	for _, c := range []Classifier{NewLogisticRegression(), NewSVC()} {
		t.Run(c.Name(), func(t *testing.T) {
			require.NoError(t, c.Fit(x, y))
			for _, v := range c.PredictProba(x) {
				assert.Equal(t, 1.0, v)
			}
		})
	}

	gb := NewGradientBoosting()
	require.NoError(t, gb.Fit(x, y))
	for _, v := range gb.PredictProba(x) {
		assert.Greater(t, v, 0.5)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	x := mat.NewDense(2, 1, []float64{1, 2})
	for _, c := range []Classifier{NewLogisticRegression(), NewSVC(), NewGradientBoosting()} {
		assert.Error(t, c.Fit(x, []float64{0}), c.Name())
		assert.Error(t, c.Fit(x, []float64{0, 2}), c.Name())
	}
}

func TestPredictBeforeFitPanics(t *testing.T) {
	x := mat.NewDense(1, 1, []float64{1})
	for _, c := range []Classifier{NewLogisticRegression(), NewSVC(), NewGradientBoosting()} {
		assert.PanicsWithValue(t, ErrNotFitted, func() { c.PredictProba(x) }, c.Name())
	}
}

func TestPlattScaling_Monotonic(t *testing.T) {
	dec := []float64{-3, -2, -1.5, -0.5, 0.2, 0.7, 1.5, 2, 3, -0.1}
	labels := []bool{false, false, false, true, false, true, true, true, true, false}
	ps := fitPlatt(dec, labels)

	assert.Less(t, ps.A, 0.0, "larger decision values should raise the probability")
	prev := -1.0
	for f := -4.0; f <= 4; f += 0.5 {
		p := ps.predict(f)
		assert.Greater(t, p, prev)
		prev = p
	}
	assert.Less(t, ps.predict(-4), 0.5)
	assert.Greater(t, ps.predict(4), 0.5)
}
