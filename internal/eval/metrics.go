// Package eval computes fit metrics for trained models. Classification
// reports roc_auc, accuracy, precision, recall and f1 at a decision
// threshold; regression reports rmse, mae and r2.
package eval

import (
	"fmt"
	"math"
	"sort"

	"insurisk/domain/core"
	"insurisk/internal/features"
	"insurisk/internal/model"
)

// DefaultThreshold is the decision threshold used when none is configured
const DefaultThreshold = 0.5

// Evaluator scores a trained model against held-out data
type Evaluator struct {
	Threshold float64
}

// NewEvaluator returns an evaluator with the given decision threshold;
// zero selects the default.
func NewEvaluator(threshold float64) *Evaluator {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{Threshold: threshold}
}

// Evaluate computes the metric set appropriate to the model's task
func (e *Evaluator) Evaluate(task core.TaskKey, m *model.TrainedModel, x *features.Matrix, y []float64) (*MetricsReport, error) {
	if x.Len() != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", core.ErrData, x.Len(), len(y))
	}
	if m.Task == model.TaskClassification {
		proba, err := m.PredictProba(x)
		if err != nil {
			return nil, err
		}
		return e.classificationReport(task, y, proba)
	}
	pred, err := m.Predict(x)
	if err != nil {
		return nil, err
	}
	return e.regressionReport(task, y, pred)
}

func (e *Evaluator) classificationReport(task core.TaskKey, y, proba []float64) (*MetricsReport, error) {
	report := NewMetricsReport(task)

	tp, fp, tn, fn := 0, 0, 0, 0
	for i, p := range proba {
		predicted := p >= e.Threshold
		actual := y[i] != 0
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && !actual:
			tn++
		default:
			fn++
		}
	}

	precision, recall, f1 := 0.0, 0.0, 0.0
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	for _, m := range []struct {
		name  string
		value float64
	}{
		{"roc_auc", rocAUC(y, proba)},
		{"accuracy", float64(tp+tn) / float64(len(y))},
		{"precision", precision},
		{"recall", recall},
		{"f1", f1},
	} {
		if err := report.Add(m.name, m.value); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (e *Evaluator) regressionReport(task core.TaskKey, y, pred []float64) (*MetricsReport, error) {
	report := NewMetricsReport(task)

	n := float64(len(y))
	sse, sae, mean := 0.0, 0.0, 0.0
	for _, v := range y {
		mean += v
	}
	mean /= n

	ssTot := 0.0
	for i := range y {
		d := y[i] - pred[i]
		sse += d * d
		sae += math.Abs(d)
		t := y[i] - mean
		ssTot += t * t
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - sse/ssTot
	}

	for _, m := range []struct {
		name  string
		value float64
	}{
		{"rmse", math.Sqrt(sse / n)},
		{"mae", sae / n},
		{"r2", r2},
	} {
		if err := report.Add(m.name, m.value); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// rocAUC computes the area under the ROC curve by the rank statistic,
// with midranks for tied scores. Returns 0.5 when only one class is
// present, where the curve is undefined.
func rocAUC(y, proba []float64) float64 {
	n := len(y)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return proba[order[a]] < proba[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && proba[order[j]] == proba[order[i]] {
			j++
		}
		midrank := float64(i+j+1) / 2 // average of 1-based ranks i+1..j
		for k := i; k < j; k++ {
			ranks[order[k]] = midrank
		}
		i = j
	}

	nPos, nNeg, rankSum := 0.0, 0.0, 0.0
	for i := range y {
		if y[i] != 0 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}
