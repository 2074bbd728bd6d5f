package model

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a CART regression tree. Split rule:
// row[Feature] <= Threshold goes left. Leaves carry the mean target of
// their training rows. Exported fields keep trees JSON-serialisable for
// model artifacts.
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

type treeOptions struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 => consider every feature
}

// growTree builds a regression tree over the rows referenced by idx,
// minimising within-node squared error. Feature subsampling (for
// forests) draws from rnd, so a seeded source makes growth
// deterministic.
func growTree(rows [][]float64, y []float64, idx []int, depth int, opt treeOptions, rnd *rand.Rand) *treeNode {
	node := &treeNode{Leaf: true, Value: meanAt(y, idx)}
	if len(idx) < 2*opt.minLeaf || depth >= opt.maxDepth {
		return node
	}

	p := len(rows[0])
	candidates := featureCandidates(p, opt.maxFeatures, rnd)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0
	parentSSE := sseAt(y, idx, node.Value)

	for _, f := range candidates {
		childSSE, threshold, ok := bestSplitForFeature(rows, y, idx, f, opt.minLeaf)
		if ok && parentSSE-childSSE > bestGain {
			bestGain = parentSSE - childSSE
			bestFeature = f
			bestThreshold = threshold
		}
	}

	if bestFeature < 0 || bestGain <= 1e-12 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < opt.minLeaf || len(right) < opt.minLeaf {
		return node
	}

	node.Leaf = false
	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.Value = 0
	node.Left = growTree(rows, y, left, depth+1, opt, rnd)
	node.Right = growTree(rows, y, right, depth+1, opt, rnd)
	return node
}

// bestSplitForFeature scans the sorted feature values and returns the
// children SSE of the best threshold, using prefix sums for an O(n log n)
// sweep per feature.
func bestSplitForFeature(rows [][]float64, y []float64, idx []int, f, minLeaf int) (childSSE, threshold float64, ok bool) {
	type pair struct{ v, y float64 }
	pairs := make([]pair, len(idx))
	for k, i := range idx {
		pairs[k] = pair{rows[i][f], y[i]}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	n := len(pairs)
	total, totalSq := 0.0, 0.0
	for _, p := range pairs {
		total += p.y
		totalSq += p.y * p.y
	}

	best := math.Inf(1)
	sumLeft, sumSqLeft := 0.0, 0.0
	for k := 0; k < n-1; k++ {
		sumLeft += pairs[k].y
		sumSqLeft += pairs[k].y * pairs[k].y

		if pairs[k].v == pairs[k+1].v {
			continue // cannot split between equal values
		}
		nl, nr := float64(k+1), float64(n-k-1)
		if k+1 < minLeaf || n-k-1 < minLeaf {
			continue
		}

		sumRight := total - sumLeft
		sumSqRight := totalSq - sumSqLeft
		sse := (sumSqLeft - sumLeft*sumLeft/nl) + (sumSqRight - sumRight*sumRight/nr)
		if sse < best {
			best = sse
			threshold = (pairs[k].v + pairs[k+1].v) / 2
			ok = true
		}
	}
	return best, threshold, ok
}

func featureCandidates(p, maxFeatures int, rnd *rand.Rand) []int {
	all := make([]int, p)
	for j := range all {
		all[j] = j
	}
	if maxFeatures <= 0 || maxFeatures >= p || rnd == nil {
		return all
	}
	rnd.Shuffle(p, func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:maxFeatures]
}

func (t *treeNode) predictRow(row []float64) float64 {
	node := t
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func sseAt(y []float64, idx []int, mean float64) float64 {
	sum := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sum += d * d
	}
	return sum
}
