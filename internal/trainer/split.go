package trainer

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"BitcoinTrend/internal/model"
)

// TrainTestSplit shuffles row indices 0..n-1 with a seeded permutation and
// puts ceil(testFraction*n) of them in the validation partition.
func TrainTestSplit(n int, testFraction float64, seed uint64) (model.Split, error) {
	if n < 2 {
		return model.Split{}, fmt.Errorf("split: need at least 2 rows, got %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return model.Split{}, fmt.Errorf("split: test fraction %v outside (0, 1)", testFraction)
	}
	nTest := int(math.Ceil(testFraction * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return model.Split{
		Valid:        perm[:nTest],
		Train:        perm[nTest:],
		TestFraction: testFraction,
		Seed:         seed,
	}, nil
}

// Rows gathers the given rows of x into a new matrix.
func Rows(x mat.Matrix, idx []int) *mat.Dense {
	_, c := x.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for i, k := range idx {
		mat.Row(row, k, x)
		out.SetRow(i, row)
	}
	return out
}

// Labels gathers the given entries of y.
func Labels(y []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = y[k]
	}
	return out
}
