package features

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

// Encoder turns a frame into a numeric feature matrix with a fixed,
// recorded vocabulary. Numeric columns are median-imputed and
// standardised; categorical columns are mode-imputed and one-hot
// encoded. Fit on the training rows once, then applied unchanged to
// any later frame, so train and test matrices always share the same
// column set and ordering. A category never seen during Fit encodes to
// an all-zero indicator block rather than an error.
type Encoder struct {
	NumericCols     []string
	CategoricalCols []string

	Medians map[string]float64
	Means   map[string]float64
	Stds    map[string]float64
	Modes   map[string]string
	Vocab   map[string][]string

	columns []string
}

// NewEncoder creates an encoder over the given feature columns
func NewEncoder(numericCols, categoricalCols []string) *Encoder {
	return &Encoder{
		NumericCols:     append([]string(nil), numericCols...),
		CategoricalCols: append([]string(nil), categoricalCols...),
	}
}

// Fit records imputation values, scaling parameters and the categorical
// vocabulary from the training frame
func (e *Encoder) Fit(f *frame.Frame) error {
	if f.Rows() == 0 {
		return core.ErrEmptyFrame
	}

	e.Medians = make(map[string]float64, len(e.NumericCols))
	e.Means = make(map[string]float64, len(e.NumericCols))
	e.Stds = make(map[string]float64, len(e.NumericCols))
	e.Modes = make(map[string]string, len(e.CategoricalCols))
	e.Vocab = make(map[string][]string, len(e.CategoricalCols))
	e.columns = nil

	for _, name := range e.NumericCols {
		values, err := f.Numeric(name)
		if err != nil {
			return err
		}
		observed := dropNaN(values)
		if len(observed) == 0 {
			return fmt.Errorf("%w: %s", core.ErrAllMissing, name)
		}
		median, err := stats.Median(observed)
		if err != nil {
			return fmt.Errorf("median of %s: %w", name, err)
		}
		imputed := make([]float64, len(values))
		for i, v := range values {
			if math.IsNaN(v) {
				imputed[i] = median
			} else {
				imputed[i] = v
			}
		}
		mean, _ := stats.Mean(imputed)
		std, _ := stats.StandardDeviationSample(imputed)
		if std == 0 || math.IsNaN(std) {
			std = 1 // constant column, leave it centred only
		}
		e.Medians[name] = median
		e.Means[name] = mean
		e.Stds[name] = std
		e.columns = append(e.columns, name)
	}

	for _, name := range e.CategoricalCols {
		labels, err := f.Categorical(name)
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, v := range labels {
			if v != "" {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			return fmt.Errorf("%w: %s", core.ErrAllMissing, name)
		}

		vocab := make([]string, 0, len(counts))
		for v := range counts {
			vocab = append(vocab, v)
		}
		sort.Strings(vocab)

		// Mode; ties resolved lexicographically for reproducibility.
		mode := vocab[0]
		for _, v := range vocab {
			if counts[v] > counts[mode] {
				mode = v
			}
		}

		e.Modes[name] = mode
		e.Vocab[name] = vocab
		for _, v := range vocab {
			e.columns = append(e.columns, name+"="+v)
		}
	}

	return nil
}

// Columns returns the encoded column names in order
func (e *Encoder) Columns() []string {
	return append([]string(nil), e.columns...)
}

// Transform encodes a frame against the fitted vocabulary. The frame
// must carry every feature column the encoder was fitted on; anything
// else is a schema mismatch between training and inference.
func (e *Encoder) Transform(f *frame.Frame) (*Matrix, error) {
	if e.columns == nil {
		return nil, core.ErrNotFitted
	}

	rows := make([][]float64, f.Rows())
	for i := range rows {
		rows[i] = make([]float64, len(e.columns))
	}

	pos := 0
	for _, name := range e.NumericCols {
		values, err := f.Numeric(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSchemaMismatch, err)
		}
		median := e.Medians[name]
		mean, std := e.Means[name], e.Stds[name]
		for i, v := range values {
			if math.IsNaN(v) {
				v = median
			}
			rows[i][pos] = (v - mean) / std
		}
		pos++
	}

	for _, name := range e.CategoricalCols {
		labels, err := f.Categorical(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSchemaMismatch, err)
		}
		vocab := e.Vocab[name]
		index := make(map[string]int, len(vocab))
		for j, v := range vocab {
			index[v] = j
		}
		mode := e.Modes[name]
		for i, v := range labels {
			if v == "" {
				v = mode
			}
			if j, ok := index[v]; ok {
				rows[i][pos+j] = 1
			}
			// Unseen category: indicator block stays all-zero.
		}
		pos += len(vocab)
	}

	return &Matrix{Columns: e.Columns(), Rows: rows}, nil
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
