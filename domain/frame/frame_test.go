package frame

import (
	"math"
	"testing"

	"insurisk/domain/core"
)

func TestFrame_AddAndAccess(t *testing.T) {
	f := New()
	if err := f.AddNumeric("premium", []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("province", []string{"A", "B", "A"}); err != nil {
		t.Fatal(err)
	}

	if f.Rows() != 3 || f.Width() != 2 {
		t.Fatalf("frame is %dx%d", f.Rows(), f.Width())
	}
	if got := f.Names(); got[0] != "premium" || got[1] != "province" {
		t.Errorf("schema order lost: %v", got)
	}
	if _, err := f.Numeric("province"); err == nil {
		t.Error("numeric access to categorical column should fail")
	}
	if _, err := f.Categorical("missing"); err == nil {
		t.Error("access to absent column should fail")
	}
}

func TestFrame_DuplicateColumn(t *testing.T) {
	f := New()
	if err := f.AddNumeric("x", []float64{1}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric("x", []float64{2}); !core.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestFrame_LengthMismatch(t *testing.T) {
	f := New()
	if err := f.AddNumeric("x", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric("y", []float64{1}); err == nil {
		t.Error("mismatched column length accepted")
	}
}

func TestFrame_SelectAndFilter(t *testing.T) {
	f := New()
	if err := f.AddNumeric("claims", []float64{0, 10, 0, 5}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("province", []string{"A", "B", "C", "D"}); err != nil {
		t.Fatal(err)
	}

	claims, _ := f.Numeric("claims")
	positive, err := f.Filter(func(row int) bool { return claims[row] > 0 })
	if err != nil {
		t.Fatal(err)
	}
	if positive.Rows() != 2 {
		t.Fatalf("filtered to %d rows, want 2", positive.Rows())
	}
	labels, _ := positive.Categorical("province")
	if labels[0] != "B" || labels[1] != "D" {
		t.Errorf("filter kept wrong rows: %v", labels)
	}

	if _, err := f.Select([]int{0, 99}); err == nil {
		t.Error("out-of-range select accepted")
	}
}

func TestFrame_MissingCount(t *testing.T) {
	f := New()
	if err := f.AddNumeric("x", []float64{1, math.NaN(), 3}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical("c", []string{"", "a", ""}); err != nil {
		t.Fatal(err)
	}
	if n := f.Column("x").MissingCount(); n != 1 {
		t.Errorf("numeric missing = %d, want 1", n)
	}
	if n := f.Column("c").MissingCount(); n != 2 {
		t.Errorf("categorical missing = %d, want 2", n)
	}
}

func TestFrame_CloneIndependent(t *testing.T) {
	f := New()
	if err := f.AddNumeric("x", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	clone := f.Clone()
	clone.Column("x").Numeric[0] = 99
	if values, _ := f.Numeric("x"); values[0] != 1 {
		t.Error("clone shares storage with the original")
	}
}
