package insight

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

// ColumnSummary holds descriptive statistics for one column. The
// quantile fields are only populated for numeric columns.
type ColumnSummary struct {
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	Count       int     `json:"count"`
	Missing     int     `json:"missing"`
	Cardinality int     `json:"cardinality,omitempty"`
	Mean        float64 `json:"mean,omitempty"`
	Std         float64 `json:"std,omitempty"`
	Min         float64 `json:"min,omitempty"`
	Q1          float64 `json:"q1,omitempty"`
	Median      float64 `json:"median,omitempty"`
	Q3          float64 `json:"q3,omitempty"`
	Max         float64 `json:"max,omitempty"`
}

// Describe computes per-column descriptive statistics in schema order
func Describe(f *frame.Frame) ([]ColumnSummary, error) {
	if f.Rows() == 0 {
		return nil, core.ErrEmptyFrame
	}

	summaries := make([]ColumnSummary, 0, f.Width())
	for _, name := range f.Names() {
		col := f.Column(name)
		s := ColumnSummary{
			Name:    name,
			Kind:    string(col.Kind),
			Count:   col.Len() - col.MissingCount(),
			Missing: col.MissingCount(),
		}

		if col.Kind == frame.KindCategorical {
			distinct := map[string]bool{}
			for _, v := range col.Labels {
				if v != "" {
					distinct[v] = true
				}
			}
			s.Cardinality = len(distinct)
			summaries = append(summaries, s)
			continue
		}

		observed := observedValues(col.Numeric)
		if len(observed) == 0 {
			summaries = append(summaries, s)
			continue
		}

		var err error
		if s.Mean, err = stats.Mean(observed); err != nil {
			return nil, err
		}
		if len(observed) > 1 {
			if s.Std, err = stats.StandardDeviationSample(observed); err != nil {
				return nil, err
			}
		}
		if s.Min, err = stats.Min(observed); err != nil {
			return nil, err
		}
		if s.Max, err = stats.Max(observed); err != nil {
			return nil, err
		}
		quartiles, err := stats.Quartile(observed)
		if err != nil {
			return nil, err
		}
		s.Q1, s.Median, s.Q3 = quartiles.Q1, quartiles.Q2, quartiles.Q3
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// CorrelationMatrix computes pairwise Pearson correlations over the
// numeric columns. Rows with a missing value in either column of a
// pair are dropped for that pair.
func CorrelationMatrix(f *frame.Frame) ([]string, [][]float64, error) {
	names := f.NumericNames()
	if len(names) == 0 {
		return nil, nil, core.ErrInsufficientData
	}

	columns := make([][]float64, len(names))
	for i, name := range names {
		values, err := f.Numeric(name)
		if err != nil {
			return nil, nil, err
		}
		columns[i] = values
	}

	matrix := make([][]float64, len(names))
	for i := range names {
		matrix[i] = make([]float64, len(names))
		matrix[i][i] = 1
		for j := 0; j < i; j++ {
			r := pairwiseCorrelation(columns[i], columns[j])
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}
	return names, matrix, nil
}

func pairwiseCorrelation(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func observedValues(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
