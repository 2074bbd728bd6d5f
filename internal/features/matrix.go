package features

// Matrix is an encoded feature matrix. It is immutable once built: the
// encoder produces it and every consumer only reads it. Columns records
// the encoded column names in order, so a trained model can verify that
// an inference matrix carries exactly the schema it was trained on.
type Matrix struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of rows
func (m *Matrix) Len() int { return len(m.Rows) }

// Width returns the number of encoded columns
func (m *Matrix) Width() int { return len(m.Columns) }

// SameSchema reports whether the other matrix has the identical column
// set and ordering
func (m *Matrix) SameSchema(columns []string) bool {
	if len(m.Columns) != len(columns) {
		return false
	}
	for i, name := range m.Columns {
		if columns[i] != name {
			return false
		}
	}
	return true
}
