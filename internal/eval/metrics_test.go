package eval

import (
	"math"
	"testing"

	"insurisk/domain/core"
	"insurisk/internal/features"
	"insurisk/internal/model"
)

func trainClassifier(t *testing.T) (*model.TrainedModel, *features.Matrix, []float64) {
	t.Helper()
	rows := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range rows {
		if i%3 == 0 {
			rows[i] = []float64{2}
			y[i] = 1
		} else {
			rows[i] = []float64{-2}
		}
	}
	x := &features.Matrix{Columns: []string{"x0"}, Rows: rows}
	m, err := model.Train(model.KindLogistic, model.TaskClassification, model.Params{}, x, y, 1)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	return m, x, y
}

func TestEvaluate_ClassificationMetricSet(t *testing.T) {
	m, x, y := trainClassifier(t)

	report, err := NewEvaluator(0).Evaluate(core.TaskClassifier, m, x, y)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}

	want := []string{"roc_auc", "accuracy", "precision", "recall", "f1"}
	names := report.Names()
	if len(names) != len(want) {
		t.Fatalf("got %d metrics %v, want exactly %d", len(names), names, len(want))
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("metric %d = %q, want %q", i, names[i], name)
		}
	}

	auc, _ := report.Get("roc_auc")
	if auc < 0 || auc > 1 {
		t.Errorf("roc_auc = %v, out of [0,1]", auc)
	}
	// perfectly separable data
	if auc != 1 {
		t.Errorf("roc_auc = %v, want 1 on separable data", auc)
	}
	if acc, _ := report.Get("accuracy"); acc != 1 {
		t.Errorf("accuracy = %v, want 1", acc)
	}
}

func TestClassificationReport_KnownConfusion(t *testing.T) {
	e := NewEvaluator(0.5)
	y := []float64{1, 1, 1, 0, 0, 0, 0, 0}
	proba := []float64{0.9, 0.8, 0.2, 0.7, 0.1, 0.2, 0.3, 0.4}
	// tp=2 fn=1 fp=1 tn=4

	report, err := e.classificationReport(core.TaskClassifier, y, proba)
	if err != nil {
		t.Fatal(err)
	}

	checks := map[string]float64{
		"accuracy":  6.0 / 8.0,
		"precision": 2.0 / 3.0,
		"recall":    2.0 / 3.0,
		"f1":        2.0 / 3.0,
	}
	for name, want := range checks {
		got, ok := report.Get(name)
		if !ok {
			t.Fatalf("metric %q missing", name)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestRegressionReport_KnownValues(t *testing.T) {
	e := NewEvaluator(0)
	y := []float64{1, 2, 3, 4}
	pred := []float64{1, 2, 3, 8}
	// errors: 0,0,0,4 -> rmse = 2, mae = 1

	report, err := e.regressionReport(core.TaskPremium, y, pred)
	if err != nil {
		t.Fatal(err)
	}

	if rmse, _ := report.Get("rmse"); math.Abs(rmse-2) > 1e-12 {
		t.Errorf("rmse = %v, want 2", rmse)
	}
	if mae, _ := report.Get("mae"); math.Abs(mae-1) > 1e-12 {
		t.Errorf("mae = %v, want 1", mae)
	}
	r2, _ := report.Get("r2")
	// ssTot = 5, sse = 16
	if math.Abs(r2-(1-16.0/5.0)) > 1e-12 {
		t.Errorf("r2 = %v, want %v", r2, 1-16.0/5.0)
	}
	if report.Len() != 3 {
		t.Errorf("regression report has %d metrics, want 3", report.Len())
	}
}

func TestRegressionReport_ConstantTarget(t *testing.T) {
	e := NewEvaluator(0)
	report, err := e.regressionReport(core.TaskSeverity, []float64{5, 5, 5}, []float64{4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if r2, _ := report.Get("r2"); r2 != 0 {
		t.Errorf("r2 on constant target = %v, want 0", r2)
	}
}

func TestROCAUC(t *testing.T) {
	y := []float64{0, 0, 1, 1}
	if auc := rocAUC(y, []float64{0.1, 0.2, 0.8, 0.9}); auc != 1 {
		t.Errorf("separable auc = %v, want 1", auc)
	}
	if auc := rocAUC(y, []float64{0.9, 0.8, 0.2, 0.1}); auc != 0 {
		t.Errorf("inverted auc = %v, want 0", auc)
	}
	if auc := rocAUC(y, []float64{0.5, 0.5, 0.5, 0.5}); auc != 0.5 {
		t.Errorf("tied auc = %v, want 0.5", auc)
	}
	if auc := rocAUC([]float64{1, 1}, []float64{0.4, 0.6}); auc != 0.5 {
		t.Errorf("single-class auc = %v, want 0.5", auc)
	}
}

func TestEvaluate_LengthMismatch(t *testing.T) {
	m, x, _ := trainClassifier(t)
	_, err := NewEvaluator(0).Evaluate(core.TaskClassifier, m, x, []float64{1})
	if !core.IsDataError(err) {
		t.Errorf("expected data error, got %v", err)
	}
}

func TestMetricsReport_AppendOnly(t *testing.T) {
	r := NewMetricsReport(core.TaskClassifier)
	if err := r.Add("roc_auc", 0.9); err != nil {
		t.Fatal(err)
	}
	if err := r.Add("roc_auc", 0.5); !core.IsDataError(err) {
		t.Errorf("expected rejection of duplicate metric, got %v", err)
	}
	if v, _ := r.Get("roc_auc"); v != 0.9 {
		t.Errorf("original value overwritten: %v", v)
	}
}
