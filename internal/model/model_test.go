package model

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"insurisk/domain/core"
	"insurisk/internal/features"
)

func regressionMatrix(n int, seed int64) (*features.Matrix, []float64) {
	rnd := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		x0 := rnd.Float64()*10 - 5
		x1 := rnd.Float64()*2 - 1
		rows[i] = []float64{x0, x1}
		y[i] = 3*x0 + 2
	}
	return &features.Matrix{Columns: []string{"x0", "x1"}, Rows: rows}, y
}

func separableMatrix(n int) (*features.Matrix, []float64) {
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range rows {
		if i%2 == 0 {
			rows[i] = []float64{1, 0.5}
			y[i] = 1
		} else {
			rows[i] = []float64{-1, -0.5}
		}
	}
	return &features.Matrix{Columns: []string{"x0", "x1"}, Rows: rows}, y
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		name string
		task Task
		want Kind
		ok   bool
	}{
		{"xgboost", TaskClassification, KindGBM, true},
		{"random_forest_cls", TaskClassification, KindRandomForest, true},
		{"logistic", TaskClassification, KindLogistic, true},
		{"linear", TaskRegression, KindLinear, true},
		{"xgboost_reg", TaskRegression, KindGBM, true},
		{"linear", TaskClassification, "", false},
		{"logistic", TaskRegression, "", false},
		{"svm", TaskClassification, "", false},
	}
	for _, c := range cases {
		kind, err := ParseKind(c.name, c.task)
		if c.ok {
			if err != nil {
				t.Errorf("ParseKind(%q, %s) failed: %v", c.name, c.task, err)
			} else if kind != c.want {
				t.Errorf("ParseKind(%q, %s) = %s, want %s", c.name, c.task, kind, c.want)
			}
			continue
		}
		if !core.IsConfigError(err) {
			t.Errorf("ParseKind(%q, %s): expected config error, got %v", c.name, c.task, err)
		}
		if !errors.Is(err, core.ErrUnknownModelKind) {
			t.Errorf("ParseKind(%q, %s): expected unknown-kind sentinel, got %v", c.name, c.task, err)
		}
	}
}

func TestLinear_RecoversCoefficients(t *testing.T) {
	x, y := regressionMatrix(200, 1)
	m, err := Train(KindLinear, TaskRegression, Params{}, x, y, 1)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	pred, err := m.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range y {
		if math.Abs(pred[i]-y[i]) > 1e-6 {
			t.Fatalf("row %d: pred %v, want %v", i, pred[i], y[i])
		}
	}
}

func TestLogistic_SeparatesClasses(t *testing.T) {
	x, y := separableMatrix(100)
	m, err := Train(KindLogistic, TaskClassification, Params{}, x, y, 1)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	proba, err := m.PredictProba(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range y {
		predicted := proba[i] >= 0.5
		if predicted != (y[i] == 1) {
			t.Fatalf("row %d misclassified: proba %v, label %v", i, proba[i], y[i])
		}
	}
}

func TestForestAndGBM_FitRegression(t *testing.T) {
	x, y := regressionMatrix(300, 2)
	for _, kind := range []Kind{KindRandomForest, KindGBM} {
		m, err := Train(kind, TaskRegression, Params{Trees: 30}, x, y, 7)
		if err != nil {
			t.Fatalf("%s train failed: %v", kind, err)
		}
		pred, err := m.Predict(x)
		if err != nil {
			t.Fatal(err)
		}
		sse, ssTot, mean := 0.0, 0.0, 0.0
		for _, v := range y {
			mean += v
		}
		mean /= float64(len(y))
		for i := range y {
			sse += (pred[i] - y[i]) * (pred[i] - y[i])
			ssTot += (y[i] - mean) * (y[i] - mean)
		}
		if r2 := 1 - sse/ssTot; r2 < 0.8 {
			t.Errorf("%s training r2 = %v, want > 0.8", kind, r2)
		}
	}
}

func TestGBM_ClassificationProbabilitiesBounded(t *testing.T) {
	x, y := separableMatrix(100)
	m, err := Train(KindGBM, TaskClassification, Params{Trees: 20}, x, y, 3)
	if err != nil {
		t.Fatal(err)
	}
	proba, err := m.PredictProba(x)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range proba {
		if p < 0 || p > 1 {
			t.Fatalf("probability %v at row %d out of [0,1]", p, i)
		}
	}
}

func TestTrain_SchemaMismatchRejected(t *testing.T) {
	x, y := regressionMatrix(50, 3)
	m, err := Train(KindLinear, TaskRegression, Params{}, x, y, 1)
	if err != nil {
		t.Fatal(err)
	}

	wrong := &features.Matrix{Columns: []string{"x0"}, Rows: [][]float64{{1}}}
	_, err = m.Predict(wrong)
	if !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("expected schema mismatch, got %v", err)
	}
	// mismatched inference input is a data problem, not config
	if !core.IsDataError(err) {
		t.Errorf("schema mismatch should be a data error, got %v", err)
	}

	renamed := &features.Matrix{Columns: []string{"x0", "other"}, Rows: x.Rows}
	if _, err := m.Predict(renamed); !errors.Is(err, core.ErrSchemaMismatch) {
		t.Errorf("renamed column should mismatch, got %v", err)
	}
}

func TestTrain_DeterministicForSeed(t *testing.T) {
	x, y := regressionMatrix(200, 5)
	for _, kind := range []Kind{KindLinear, KindRandomForest, KindGBM} {
		m1, err := Train(kind, TaskRegression, Params{Trees: 10}, x, y, 99)
		if err != nil {
			t.Fatal(err)
		}
		m2, err := Train(kind, TaskRegression, Params{Trees: 10}, x, y, 99)
		if err != nil {
			t.Fatal(err)
		}
		f1, err := m1.Fingerprint()
		if err != nil {
			t.Fatal(err)
		}
		f2, err := m2.Fingerprint()
		if err != nil {
			t.Fatal(err)
		}
		if f1 != f2 {
			t.Errorf("%s: same seed produced different parameters", kind)
		}
	}
}

func TestArtifact_SaveLoadRoundTrip(t *testing.T) {
	x, y := regressionMatrix(100, 8)
	m, err := Train(KindGBM, TaskRegression, Params{Trees: 5}, x, y, 4)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "models", "premium.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want, err := m.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Predict(x)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("row %d: loaded model predicts %v, original %v", i, got[i], want[i])
		}
	}
}

func TestPredictProba_RegressionRejected(t *testing.T) {
	x, y := regressionMatrix(50, 9)
	m, err := Train(KindLinear, TaskRegression, Params{}, x, y, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.PredictProba(x); !core.IsDataError(err) {
		t.Errorf("expected data error for regression proba, got %v", err)
	}
}
