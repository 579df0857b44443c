package purchase

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// GBMParams configures gradient boosting.
type GBMParams struct {
	Trees        int     `json:"trees"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`
	LearningRate float64 `json:"learning_rate"`
}

// DefaultGBMParams returns the standard boosting settings.
func DefaultGBMParams() GBMParams {
	return GBMParams{Trees: 100, MaxDepth: 3, MinLeaf: 2, LearningRate: 0.1}
}

var (
	errNoSamples      = errors.New("purchase: no training samples")
	errNonFiniteInput = errors.New("purchase: non-finite feature or target")
	errColumnMismatch = errors.New("purchase: feature columns do not match model")
)

// node is one entry of a flattened regression tree. Leaves have Left == -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (t tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Left < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// GBM is a squared-loss gradient-boosted ensemble of regression trees.
type GBM struct {
	Params   GBMParams `json:"params"`
	Init     float64   `json:"init"`
	Trees    []tree    `json:"trees"`
	Features int       `json:"features"`
}

func fitGBM(x [][]float64, y []float64, p GBMParams) (*GBM, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errNoSamples
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("purchase: row %d has %d features, want %d", i, len(row), width)
		}
		if !allFinite(row) || !allFinite(y[i:i+1]) {
			return nil, errNonFiniteInput
		}
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	g := &GBM{Params: p, Init: sum / float64(len(y)), Features: width}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.Init
	}
	resid := make([]float64, len(y))
	idx := make([]int, len(y))

	for t := 0; t < p.Trees; t++ {
		for i := range resid {
			resid[i] = y[i] - pred[i]
			idx[i] = i
		}
		b := treeBuilder{x: x, r: resid, p: p}
		b.build(idx, 0)
		tr := tree{Nodes: b.nodes}
		for i := range pred {
			pred[i] += p.LearningRate * tr.predict(x[i])
		}
		g.Trees = append(g.Trees, tr)
	}
	return g, nil
}

type treeBuilder struct {
	x     [][]float64
	r     []float64
	p     GBMParams
	nodes []node
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	self := len(b.nodes)
	b.nodes = append(b.nodes, node{Left: -1, Right: -1, Value: b.mean(idx)})

	if depth >= b.p.MaxDepth || len(idx) < 2*b.p.MinLeaf {
		return self
	}

	feat, thr, ok := b.bestSplit(idx)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[self].Feature = feat
	b.nodes[self].Threshold = thr
	b.nodes[self].Left = l
	b.nodes[self].Right = r
	return self
}

func (b *treeBuilder) mean(idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var s float64
	for _, i := range idx {
		s += b.r[i]
	}
	return s / float64(len(idx))
}

// bestSplit finds the feature and threshold with the largest reduction in
// squared error, keeping at least MinLeaf samples on each side.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	n := len(idx)
	var total float64
	for _, i := range idx {
		total += b.r[i]
	}
	base := total * total / float64(n)

	bestGain := 1e-12
	bestFeat, bestThr, found := 0, 0.0, false

	sorted := make([]int, n)
	for f := 0; f < len(b.x[idx[0]]); f++ {
		copy(sorted, idx)
		sort.Slice(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.r[sorted[k]]
			nl := k + 1
			nr := n - nl
			if nl < b.p.MinLeaf || nr < b.p.MinLeaf {
				continue
			}
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			gain := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr) - base
			if gain > bestGain {
				bestGain = gain
				bestFeat = f
				bestThr = (lo + hi) / 2
				found = true
			}
		}
	}
	return bestFeat, bestThr, found
}

// Predict scores each row. Rows must have the width the model was fitted on.
func (g *GBM) Predict(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != g.Features {
			return nil, fmt.Errorf("purchase: row %d has %d features, want %d", i, len(row), g.Features)
		}
		v := g.Init
		for _, t := range g.Trees {
			v += g.Params.LearningRate * t.predict(row)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("purchase: non-finite prediction for row %d", i)
		}
		out[i] = v
	}
	return out, nil
}

func (g *GBM) valid() bool {
	if g == nil || g.Features < 1 || math.IsNaN(g.Init) {
		return false
	}
	for _, t := range g.Trees {
		if len(t.Nodes) == 0 {
			return false
		}
		for i, n := range t.Nodes {
			if n.Left < 0 {
				continue
			}
			// Children always follow their parent, so walks terminate.
			if n.Left <= i || n.Right <= i || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return false
			}
			if n.Feature < 0 || n.Feature >= g.Features {
				return false
			}
		}
	}
	return true
}

func allFinite(xs []float64) bool {
	for _, v := range xs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
