package model

import (
	"math"

	"insurisk/domain/core"
)

// gbmModel is a gradient-boosted ensemble of shallow regression trees.
// Regression boosts on squared-error residuals; classification boosts
// on the logistic gradient and squashes the accumulated score.
type gbmModel struct {
	Init         float64     `json:"init"`
	LearningRate float64     `json:"learning_rate"`
	Trees        []*treeNode `json:"trees"`
}

func fitGBM(rows [][]float64, y []float64, p Params, task Task) (*gbmModel, error) {
	n := len(rows)
	if n == 0 {
		return nil, core.ErrEmptyFrame
	}

	m := &gbmModel{LearningRate: p.LearningRate, Trees: make([]*treeNode, 0, p.Trees)}
	m.Init = initialScore(y, task)

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = m.Init
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	residuals := make([]float64, n)
	opt := treeOptions{maxDepth: p.MaxDepth, minLeaf: p.MinLeaf}

	for t := 0; t < p.Trees; t++ {
		for i := range residuals {
			if task == TaskClassification {
				residuals[i] = y[i] - sigmoid(scores[i])
			} else {
				residuals[i] = y[i] - scores[i]
			}
		}

		// No feature subsampling: boosting stays deterministic with no
		// random source at all.
		tree := growTree(rows, residuals, idx, 0, opt, nil)
		m.Trees = append(m.Trees, tree)

		for i, row := range rows {
			scores[i] += m.LearningRate * tree.predictRow(row)
		}
	}
	return m, nil
}

// initialScore is the loss-minimising constant: the mean for squared
// error, the log-odds of the base rate for logistic loss.
func initialScore(y []float64, task Task) float64 {
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	mean := sum / float64(len(y))

	if task != TaskClassification {
		return mean
	}
	eps := 1e-6
	mean = math.Min(math.Max(mean, eps), 1-eps)
	return math.Log(mean / (1 - mean))
}

func (m *gbmModel) predict(rows [][]float64, task Task) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		score := m.Init
		for _, tree := range m.Trees {
			score += m.LearningRate * tree.predictRow(row)
		}
		if task == TaskClassification {
			score = sigmoid(score)
		}
		out[i] = score
	}
	return out
}
