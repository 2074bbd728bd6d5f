package model

import (
	"math"
	"math/rand"

	"insurisk/domain/core"
)

// forestModel is a bagged ensemble of regression trees. Trained on a
// 0/1 target the averaged leaf means are class probabilities, which
// covers both the random-forest regressor and classifier.
type forestModel struct {
	Trees []*treeNode `json:"trees"`
}

func fitForest(rows [][]float64, y []float64, p Params, seed int64) (*forestModel, error) {
	n := len(rows)
	if n == 0 {
		return nil, core.ErrEmptyFrame
	}

	nFeatures := len(rows[0])
	maxFeatures := int(math.Ceil(math.Sqrt(float64(nFeatures))))

	rnd := rand.New(rand.NewSource(seed))
	opt := treeOptions{maxDepth: p.MaxDepth, minLeaf: p.MinLeaf, maxFeatures: maxFeatures}

	forest := &forestModel{Trees: make([]*treeNode, p.Trees)}
	for t := 0; t < p.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rnd.Intn(n)
		}
		forest.Trees[t] = growTree(rows, y, sample, 0, opt, rnd)
	}
	return forest, nil
}

func (m *forestModel) predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		sum := 0.0
		for _, tree := range m.Trees {
			sum += tree.predictRow(row)
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out
}
