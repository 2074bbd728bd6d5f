package model

import (
	"math"

	"insurisk/domain/core"
)

// logisticModel is binary logistic regression fitted by full-batch
// gradient descent. Weights start at zero, so training is deterministic
// without any random state.
type logisticModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func fitLogistic(rows [][]float64, y []float64, lr float64, epochs int) (*logisticModel, error) {
	n := len(rows)
	if n == 0 {
		return nil, core.ErrEmptyFrame
	}
	p := len(rows[0])

	m := &logisticModel{Weights: make([]float64, p)}
	grad := make([]float64, p)

	for epoch := 0; epoch < epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradB := 0.0

		for i, row := range rows {
			d := sigmoid(m.rawScore(row)) - y[i]
			for j, v := range row {
				grad[j] += d * v
			}
			gradB += d
		}

		scale := lr / float64(n)
		for j := range m.Weights {
			m.Weights[j] -= scale * grad[j]
		}
		m.Intercept -= scale * gradB
	}
	return m, nil
}

func (m *logisticModel) rawScore(row []float64) float64 {
	sum := m.Intercept
	for j, v := range row {
		sum += m.Weights[j] * v
	}
	return sum
}

func (m *logisticModel) predictProba(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		out[i] = sigmoid(m.rawScore(row))
	}
	return out
}

func sigmoid(z float64) float64 {
	// Guard the exponent so extreme scores cannot overflow.
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
