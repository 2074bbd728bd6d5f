package features

import (
	"fmt"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

// Preparer builds the train/test feature matrices and target vectors
// for one modeling task
type Preparer struct {
	TestSize       float64
	Seed           int64
	StratifyColumn string

	// Drop lists columns excluded from the feature set on top of the
	// task target, typically the other targets and the derived KPI
	// columns that would leak the outcome.
	Drop []string
}

// Prepared is the output of a Prepare call
type Prepared struct {
	Encoder *Encoder
	XTrain  *Matrix
	XTest   *Matrix
	YTrain  []float64
	YTest   []float64

	TrainIdx []int
	TestIdx  []int
}

// Prepare splits the frame stratified on the claim indicator, fits the
// encoder on the training rows only, and encodes both sides. The test
// matrix therefore carries exactly the training schema by construction.
func (p *Preparer) Prepare(f *frame.Frame, target string) (*Prepared, error) {
	if !f.Has(p.StratifyColumn) {
		return nil, fmt.Errorf("%w: %q", core.ErrStratifyColumnAbsent, p.StratifyColumn)
	}
	stratify, err := f.Numeric(p.StratifyColumn)
	if err != nil {
		return nil, err
	}
	y, err := f.Numeric(target)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx, err := StratifiedSplit(stratify, p.TestSize, p.Seed)
	if err != nil {
		return nil, err
	}

	trainFrame, err := f.Select(trainIdx)
	if err != nil {
		return nil, err
	}
	testFrame, err := f.Select(testIdx)
	if err != nil {
		return nil, err
	}

	numeric, categorical := p.featureColumns(f, target)
	if len(numeric)+len(categorical) == 0 {
		return nil, fmt.Errorf("%w: no feature columns left after drops", core.ErrInsufficientData)
	}

	enc := NewEncoder(numeric, categorical)
	if err := enc.Fit(trainFrame); err != nil {
		return nil, err
	}
	xTrain, err := enc.Transform(trainFrame)
	if err != nil {
		return nil, err
	}
	xTest, err := enc.Transform(testFrame)
	if err != nil {
		return nil, err
	}

	return &Prepared{
		Encoder:  enc,
		XTrain:   xTrain,
		XTest:    xTest,
		YTrain:   gather(y, trainIdx),
		YTest:    gather(y, testIdx),
		TrainIdx: trainIdx,
		TestIdx:  testIdx,
	}, nil
}

// featureColumns selects the usable feature columns in schema order
func (p *Preparer) featureColumns(f *frame.Frame, target string) (numeric, categorical []string) {
	excluded := map[string]bool{target: true, p.StratifyColumn: true}
	for _, name := range p.Drop {
		excluded[name] = true
	}

	for _, name := range f.NumericNames() {
		if !excluded[name] {
			numeric = append(numeric, name)
		}
	}
	for _, name := range f.CategoricalNames() {
		if !excluded[name] {
			categorical = append(categorical, name)
		}
	}
	return numeric, categorical
}

func gather(values []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for j, i := range indices {
		out[j] = values[i]
	}
	return out
}
