package model

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"insurisk/domain/core"
)

// linearModel is ordinary least squares with a small ridge term for
// numerical stability on one-hot blocks that sum to a constant
type linearModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// fitLinear solves (XᵀX + λI) w = Xᵀy on the intercept-augmented design
func fitLinear(rows [][]float64, y []float64, ridge float64) (*linearModel, error) {
	n := len(rows)
	if n == 0 {
		return nil, core.ErrEmptyFrame
	}
	p := len(rows[0]) + 1 // leading intercept column

	design := mat.NewDense(n, p, nil)
	for i, row := range rows {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 1; j < p; j++ { // intercept is not penalised
		gram.Set(j, j, gram.At(j, j)+ridge)
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var coef mat.VecDense
	if err := coef.SolveVec(&gram, &xty); err != nil {
		return nil, fmt.Errorf("%w: normal equations are singular: %v", core.ErrData, err)
	}

	weights := make([]float64, p-1)
	for j := 1; j < p; j++ {
		weights[j-1] = coef.AtVec(j)
	}
	return &linearModel{Weights: weights, Intercept: coef.AtVec(0)}, nil
}

func (m *linearModel) predict(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, row := range rows {
		sum := m.Intercept
		for j, v := range row {
			sum += m.Weights[j] * v
		}
		out[i] = sum
	}
	return out
}
