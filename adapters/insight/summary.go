package insight

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "insurisk/internal/errors"
)

// EDAResult bundles the outputs of one exploratory run
type EDAResult struct {
	Summaries        []ColumnSummary `json:"summaries"`
	CorrelationNames []string        `json:"correlation_names"`
	Correlation      [][]float64     `json:"correlation"`
}

// WriteJSON persists the EDA result under dir as eda.json
func (r *EDAResult) WriteJSON(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "marshal eda result")
	}
	if err := os.WriteFile(filepath.Join(dir, "eda.json"), data, 0o644); err != nil {
		return apperrors.IOError("write eda result", err)
	}
	return nil
}

// Markdown renders the column summaries and correlation matrix
func (r *EDAResult) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# Exploratory summary\n\n")
	sb.WriteString("| column | kind | count | missing | mean | std | min | median | max | cardinality |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, s := range r.Summaries {
		if s.Kind == "numeric" {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %.4g | %.4g | %.4g | %.4g | %.4g | - |\n",
				s.Name, s.Kind, s.Count, s.Missing, s.Mean, s.Std, s.Min, s.Median, s.Max))
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | - | - | - | - | - | %d |\n",
			s.Name, s.Kind, s.Count, s.Missing, s.Cardinality))
	}

	if len(r.CorrelationNames) > 0 {
		sb.WriteString("\n## Correlation\n\n|  |")
		for _, n := range r.CorrelationNames {
			sb.WriteString(" " + n + " |")
		}
		sb.WriteString("\n|---|")
		for range r.CorrelationNames {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for i, n := range r.CorrelationNames {
			sb.WriteString("| " + n + " |")
			for j := range r.CorrelationNames {
				sb.WriteString(fmt.Sprintf(" %.3f |", r.Correlation[i][j]))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// TestSummaryMarkdown renders the hypothesis results as one table
func TestSummaryMarkdown(results []*TestResult, alpha float64) string {
	var sb strings.Builder
	sb.WriteString("# Hypothesis tests\n\n")
	sb.WriteString(fmt.Sprintf("alpha = %.3f\n\n", alpha))
	sb.WriteString("| test | feature | groups | kpi | n_a | n_b | statistic | p-value | decision |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, r := range results {
		decision := "fail to reject"
		if r.Reject {
			decision = "reject"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s vs %s | %s | %d | %d | %.4f | %.4g | %s |\n",
			r.Kind, r.Feature, r.GroupA, r.GroupB, r.KPI, r.NA, r.NB, r.Statistic, r.PValue, decision))
	}
	return sb.String()
}

// WriteTestSummary writes the hypothesis markdown and raw JSON under dir
func WriteTestSummary(dir string, results []*TestResult, alpha float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}
	md := TestSummaryMarkdown(results, alpha)
	if err := os.WriteFile(filepath.Join(dir, "hypothesis.md"), []byte(md), 0o644); err != nil {
		return apperrors.IOError("write hypothesis summary", err)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "marshal hypothesis results")
	}
	if err := os.WriteFile(filepath.Join(dir, "hypothesis.json"), data, 0o644); err != nil {
		return apperrors.IOError("write hypothesis results", err)
	}
	return nil
}
