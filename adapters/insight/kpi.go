// Package insight derives portfolio KPIs and runs the exploratory and
// A/B statistical analyses over a cleaned policy frame.
package insight

import (
	"math"

	"insurisk/domain/frame"
)

// Canonical column names of the policy dataset and its derived KPIs
const (
	ColTotalPremium    = "TotalPremium"
	ColTotalClaims     = "TotalClaims"
	ColMargin          = "Margin"
	ColLossRatio       = "LossRatio"
	ColLossRatioCapped = "LossRatioCapped"
	ColClaimOccurred   = "ClaimOccurred"
)

// LossRatioCap bounds the capped loss ratio against near-zero premiums
const LossRatioCap = 5.0

// AddKPIColumns returns a copy of the frame extended with the derived
// KPI columns. ClaimOccurred is 1 exactly when TotalClaims > 0, so the
// claim invariant holds by construction.
func AddKPIColumns(f *frame.Frame) (*frame.Frame, error) {
	premium, err := f.Numeric(ColTotalPremium)
	if err != nil {
		return nil, err
	}
	claims, err := f.Numeric(ColTotalClaims)
	if err != nil {
		return nil, err
	}

	n := f.Rows()
	margin := make([]float64, n)
	lossRatio := make([]float64, n)
	lossRatioCapped := make([]float64, n)
	occurred := make([]float64, n)

	for i := 0; i < n; i++ {
		margin[i] = premium[i] - claims[i]

		if premium[i] > 0 {
			lossRatio[i] = claims[i] / premium[i]
			lossRatioCapped[i] = math.Min(lossRatio[i], LossRatioCap)
		} else {
			lossRatio[i] = math.NaN()
			lossRatioCapped[i] = math.NaN()
		}

		if claims[i] > 0 {
			occurred[i] = 1
		}
	}

	out := f.Clone()
	if err := out.AddNumeric(ColMargin, margin); err != nil {
		return nil, err
	}
	if err := out.AddNumeric(ColLossRatio, lossRatio); err != nil {
		return nil, err
	}
	if err := out.AddNumeric(ColLossRatioCapped, lossRatioCapped); err != nil {
		return nil, err
	}
	if err := out.AddNumeric(ColClaimOccurred, occurred); err != nil {
		return nil, err
	}
	return out, nil
}
