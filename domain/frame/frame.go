package frame

import (
	"math"

	"insurisk/domain/core"
)

// ColumnKind classifies a column for downstream statistical treatment
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// Column is a single named column. Numeric columns use NaN for missing
// values; categorical columns use the empty string.
type Column struct {
	Name    string
	Kind    ColumnKind
	Numeric []float64
	Labels  []string
}

// Len returns the number of rows in the column
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numeric)
	}
	return len(c.Labels)
}

// MissingCount counts missing entries (NaN or empty string)
func (c *Column) MissingCount() int {
	n := 0
	if c.Kind == KindNumeric {
		for _, v := range c.Numeric {
			if math.IsNaN(v) {
				n++
			}
		}
		return n
	}
	for _, v := range c.Labels {
		if v == "" {
			n++
		}
	}
	return n
}

// Frame is a column-oriented tabular dataset. Rows are policies; column
// order is the schema order and is preserved by every derived frame.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New creates an empty frame
func New() *Frame {
	return &Frame{index: make(map[string]int)}
}

// Rows returns the number of rows
func (f *Frame) Rows() int { return f.rows }

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.cols) }

// AddNumeric appends a numeric column. The first column added fixes the
// row count; later columns must match it.
func (f *Frame) AddNumeric(name string, values []float64) error {
	return f.add(&Column{Name: name, Kind: KindNumeric, Numeric: values})
}

// AddCategorical appends a categorical column
func (f *Frame) AddCategorical(name string, values []string) error {
	return f.add(&Column{Name: name, Kind: KindCategorical, Labels: values})
}

func (f *Frame) add(col *Column) error {
	if _, exists := f.index[col.Name]; exists {
		return core.NewConfigError(col.Name, "duplicate column name")
	}
	if len(f.cols) == 0 {
		f.rows = col.Len()
	} else if col.Len() != f.rows {
		return core.NewConfigError(col.Name, "column length does not match frame row count")
	}
	f.index[col.Name] = len(f.cols)
	f.cols = append(f.cols, col)
	return nil
}

// Column returns the named column, or nil if absent
func (f *Frame) Column(name string) *Column {
	i, ok := f.index[name]
	if !ok {
		return nil
	}
	return f.cols[i]
}

// Has reports whether a column exists
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Numeric returns the values of a numeric column
func (f *Frame) Numeric(name string) ([]float64, error) {
	col := f.Column(name)
	if col == nil {
		return nil, core.NewColumnNotFoundError(name)
	}
	if col.Kind != KindNumeric {
		return nil, core.NewConfigError(name, "column is not numeric")
	}
	return col.Numeric, nil
}

// Categorical returns the values of a categorical column
func (f *Frame) Categorical(name string) ([]string, error) {
	col := f.Column(name)
	if col == nil {
		return nil, core.NewColumnNotFoundError(name)
	}
	if col.Kind != KindCategorical {
		return nil, core.NewConfigError(name, "column is not categorical")
	}
	return col.Labels, nil
}

// Names returns all column names in schema order
func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

// NumericNames returns numeric column names in schema order
func (f *Frame) NumericNames() []string {
	var out []string
	for _, c := range f.cols {
		if c.Kind == KindNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalNames returns categorical column names in schema order
func (f *Frame) CategoricalNames() []string {
	var out []string
	for _, c := range f.cols {
		if c.Kind == KindCategorical {
			out = append(out, c.Name)
		}
	}
	return out
}

// Select returns a row subset as a new frame, preserving schema order.
// Indices outside [0, rows) are rejected.
func (f *Frame) Select(indices []int) (*Frame, error) {
	for _, i := range indices {
		if i < 0 || i >= f.rows {
			return nil, core.NewConfigError("indices", "row index out of range")
		}
	}
	out := New()
	for _, c := range f.cols {
		if c.Kind == KindNumeric {
			vals := make([]float64, len(indices))
			for j, i := range indices {
				vals[j] = c.Numeric[i]
			}
			if err := out.AddNumeric(c.Name, vals); err != nil {
				return nil, err
			}
			continue
		}
		vals := make([]string, len(indices))
		for j, i := range indices {
			vals[j] = c.Labels[i]
		}
		if err := out.AddCategorical(c.Name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Filter returns the rows for which keep reports true
func (f *Frame) Filter(keep func(row int) bool) (*Frame, error) {
	var indices []int
	for i := 0; i < f.rows; i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return f.Select(indices)
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	out := New()
	for _, c := range f.cols {
		if c.Kind == KindNumeric {
			vals := make([]float64, len(c.Numeric))
			copy(vals, c.Numeric)
			_ = out.AddNumeric(c.Name, vals)
			continue
		}
		vals := make([]string, len(c.Labels))
		copy(vals, c.Labels)
		_ = out.AddCategorical(c.Name, vals)
	}
	return out
}
