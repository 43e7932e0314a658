package classifier

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// GradientBoosting is a second-order gradient boosted tree ensemble on log-loss.
// Each round fits a regression tree to the gradient and hessian of the loss
// with exact greedy splits; leaf weights are -G/(H+Lambda) scaled by LearningRate.
type GradientBoosting struct {
	Rounds         int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64 // L2 penalty on leaf weights
	Gamma          float64 // minimum gain to split
	MinChildWeight float64 // minimum hessian sum per child
	BaseScore      float64

	trees      []*treeNode
	baseMargin float64
	fitted     bool
}

// NewGradientBoosting returns 100 depth-6 trees with learning rate 0.3.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		Rounds:         100,
		MaxDepth:       6,
		LearningRate:   0.3,
		Lambda:         1,
		Gamma:          0,
		MinChildWeight: 1,
		BaseScore:      0.5,
	}
}

func (gb *GradientBoosting) Name() string { return "GradientBoostingClassifier()" }

type treeNode struct {
	leaf      bool
	weight    float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) eval(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.weight
}

func (gb *GradientBoosting) Fit(x mat.Matrix, y []float64) error {
	if err := checkTrainingData(x, y); err != nil {
		return fmt.Errorf("boosting fit: %w", err)
	}
	n, p := x.Dims()
	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, x)
	}
	// Row order of each feature, sorted once and filtered per node.
	order := make([][]int, p)
	for j := range order {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		col := cols[j]
		sort.SliceStable(idx, func(a, b int) bool { return col[idx[a]] < col[idx[b]] })
		order[j] = idx
	}

	base := gb.BaseScore
	if base <= 0 || base >= 1 {
		base = 0.5
	}
	gb.baseMargin = math.Log(base / (1 - base))
	gb.trees = gb.trees[:0]

	margin := make([]float64, n)
	for i := range margin {
		margin[i] = gb.baseMargin
	}
	grad := make([]float64, n)
	hess := make([]float64, n)

	b := &treeBuilder{gb: gb, cols: cols, order: order, grad: grad, hess: hess, member: make([]bool, n)}
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}

	for round := 0; round < gb.Rounds; round++ {
		for i := range margin {
			prob := sigmoid(margin[i])
			grad[i] = prob - y[i]
			hess[i] = math.Max(prob*(1-prob), 1e-16)
		}
		tree, err := b.build(all, 0)
		if err != nil {
			return fmt.Errorf("boosting round %d: %w", round, err)
		}
		gb.trees = append(gb.trees, tree)

		row := make([]float64, p)
		for i := range margin {
			for j := range row {
				row[j] = cols[j][i]
			}
			margin[i] += tree.eval(row)
		}
	}
	gb.fitted = true
	return nil
}

type treeBuilder struct {
	gb     *GradientBoosting
	cols   [][]float64
	order  [][]int
	grad   []float64
	hess   []float64
	member []bool
}

type splitCandidate struct {
	gain      float64
	feature   int
	threshold float64
	ok        bool
}

func (b *treeBuilder) leafWeight(g, h float64) float64 {
	return -g / (h + b.gb.Lambda) * b.gb.LearningRate
}

func (b *treeBuilder) build(rows []int, depth int) (*treeNode, error) {
	var g, h float64
	for _, i := range rows {
		g += b.grad[i]
		h += b.hess[i]
	}
	if depth >= b.gb.MaxDepth || len(rows) < 2 {
		return &treeNode{leaf: true, weight: b.leafWeight(g, h)}, nil
	}

	for _, i := range rows {
		b.member[i] = true
	}
	best := make([]splitCandidate, len(b.cols))
	var eg errgroup.Group
	for j := range b.cols {
		eg.Go(func() error {
			best[j] = b.bestSplit(j, g, h)
			return nil
		})
	}
	err := eg.Wait()
	for _, i := range rows {
		b.member[i] = false
	}
	if err != nil {
		return nil, err
	}

	chosen := splitCandidate{}
	for _, c := range best {
		if c.ok && (!chosen.ok || c.gain > chosen.gain) {
			chosen = c
		}
	}
	if !chosen.ok || chosen.gain <= b.gb.Gamma {
		return &treeNode{leaf: true, weight: b.leafWeight(g, h)}, nil
	}

	var left, right []int
	col := b.cols[chosen.feature]
	for _, i := range rows {
		if col[i] < chosen.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	ln, err := b.build(left, depth+1)
	if err != nil {
		return nil, err
	}
	rn, err := b.build(right, depth+1)
	if err != nil {
		return nil, err
	}
	return &treeNode{feature: chosen.feature, threshold: chosen.threshold, left: ln, right: rn}, nil
}

// bestSplit scans feature j in sorted order and returns the best threshold.
// It only reads shared state, so features can be scanned concurrently.
func (b *treeBuilder) bestSplit(j int, g, h float64) splitCandidate {
	lambda := b.gb.Lambda
	minChild := b.gb.MinChildWeight
	col := b.cols[j]
	parent := g * g / (h + lambda)

	best := splitCandidate{feature: j}
	var gl, hl float64
	prev := -1
	for _, i := range b.order[j] {
		if !b.member[i] {
			continue
		}
		if prev >= 0 && col[i] > col[prev] {
			gr, hr := g-gl, h-hl
			if hl >= minChild && hr >= minChild {
				gain := 0.5 * (gl*gl/(hl+lambda) + gr*gr/(hr+lambda) - parent)
				if !best.ok || gain > best.gain {
					best.gain = gain
					best.threshold = (col[prev] + col[i]) / 2
					best.ok = true
				}
			}
		}
		gl += b.grad[i]
		hl += b.hess[i]
		prev = i
	}
	return best
}

// Margin returns the raw log-odds for each row.
func (gb *GradientBoosting) Margin(x mat.Matrix) []float64 {
	r, c := x.Dims()
	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		m := gb.baseMargin
		for _, t := range gb.trees {
			m += t.eval(row)
		}
		out[i] = m
	}
	return out
}

func (gb *GradientBoosting) PredictProba(x mat.Matrix) []float64 {
	if !gb.fitted {
		panic(ErrNotFitted)
	}
	m := gb.Margin(x)
	for i, v := range m {
		m[i] = sigmoid(v)
	}
	return m
}
