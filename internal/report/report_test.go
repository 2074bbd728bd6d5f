package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insurisk/domain/core"
	"insurisk/internal/eval"
)

func sampleBundle(t *testing.T) *Bundle {
	t.Helper()
	cls := eval.NewMetricsReport(core.TaskClassifier)
	require.NoError(t, cls.Add("roc_auc", 0.91))
	require.NoError(t, cls.Add("accuracy", 0.97))

	reg := eval.NewMetricsReport(core.TaskPremium)
	require.NoError(t, reg.Add("rmse", 42.5))

	b := &Bundle{RunID: core.NewRunID()}
	b.Add(core.TaskClassifier, "xgboost", cls)
	b.Add(core.TaskPremium, "linear", reg)
	return b
}

func TestBundle_WriteJSON(t *testing.T) {
	b := sampleBundle(t)
	dir := t.TempDir()

	require.NoError(t, b.WriteJSON(dir))

	data, err := os.ReadFile(filepath.Join(dir, "classifier_metrics.json"))
	require.NoError(t, err, "classifier metrics not written")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	metrics, ok := payload["metrics"].(map[string]any)
	require.True(t, ok, "metrics object missing: %v", payload)
	assert.Equal(t, 0.91, metrics["roc_auc"])
	assert.Equal(t, "xgboost", payload["kind"])
	assert.Equal(t, string(b.RunID), payload["run_id"])
}

func TestBundle_ComparisonMarkdown(t *testing.T) {
	md := sampleBundle(t).ComparisonMarkdown()

	for _, want := range []string{"## classifier", "## premium", "| xgboost |", "| linear |", "roc_auc", "rmse", "0.9100", "42.5000"} {
		assert.Contains(t, md, want)
	}
}

func TestBundle_WriteComparisonRendersHTML(t *testing.T) {
	b := sampleBundle(t)
	dir := t.TempDir()

	require.NoError(t, b.WriteComparison(dir))

	html, err := os.ReadFile(filepath.Join(dir, "comparison.html"))
	require.NoError(t, err, "html not written")
	assert.Contains(t, string(html), "<table>")

	_, err = os.Stat(filepath.Join(dir, "comparison.md"))
	assert.NoError(t, err, "markdown not written")
}

func TestBundle_WriteWorkbook(t *testing.T) {
	b := sampleBundle(t)
	path := filepath.Join(t.TempDir(), "metrics.xlsx")

	require.NoError(t, b.WriteWorkbook(path))

	info, err := os.Stat(path)
	require.NoError(t, err, "workbook not written")
	assert.NotZero(t, info.Size())
}

func TestMetricColumns_UnionInFirstSeenOrder(t *testing.T) {
	r1 := eval.NewMetricsReport(core.TaskClassifier)
	require.NoError(t, r1.Add("roc_auc", 0.9))
	r2 := eval.NewMetricsReport(core.TaskClassifier)
	require.NoError(t, r2.Add("roc_auc", 0.8))
	require.NoError(t, r2.Add("f1", 0.5))

	cols := metricColumns([]Entry{
		{Task: core.TaskClassifier, Kind: "a", Metrics: r1},
		{Task: core.TaskClassifier, Kind: "b", Metrics: r2},
	})
	assert.Equal(t, []string{"roc_auc", "f1"}, cols)
}
