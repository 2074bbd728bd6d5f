// Package report persists evaluation results: per-task metrics JSON, a
// model comparison table in markdown and HTML, and a metrics workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/xuri/excelize/v2"

	"insurisk/domain/core"
	apperrors "insurisk/internal/errors"
	"insurisk/internal/eval"
)

// Entry pairs one evaluated model with its metrics
type Entry struct {
	Task    core.TaskKey
	Kind    string
	Metrics *eval.MetricsReport
}

// Bundle collects all evaluated models of one run
type Bundle struct {
	RunID   core.RunID
	Entries []Entry
}

// Add appends an evaluated model to the bundle
func (b *Bundle) Add(task core.TaskKey, kind string, metrics *eval.MetricsReport) {
	b.Entries = append(b.Entries, Entry{Task: task, Kind: kind, Metrics: metrics})
}

// WriteJSON writes one metrics file per task under dir, named
// "<task>_metrics.json"
func (b *Bundle) WriteJSON(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}
	for _, e := range b.Entries {
		payload := map[string]any{
			"run_id":  b.RunID,
			"task":    e.Task,
			"kind":    e.Kind,
			"metrics": e.Metrics,
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return apperrors.Wrap(err, "marshal metrics")
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_metrics.json", e.Task))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return apperrors.IOError("write metrics file", err)
		}
	}
	return nil
}

// ComparisonMarkdown renders one table per task, rows ordered by entry
// insertion, columns ordered by first occurrence of each metric name
func (b *Bundle) ComparisonMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Model comparison\n\n")
	sb.WriteString(fmt.Sprintf("Run `%s`\n", b.RunID))

	for _, task := range b.tasks() {
		entries := b.byTask(task)
		cols := metricColumns(entries)

		sb.WriteString(fmt.Sprintf("\n## %s\n\n", task))
		sb.WriteString("| model |")
		for _, c := range cols {
			sb.WriteString(" " + c + " |")
		}
		sb.WriteString("\n|---|")
		for range cols {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")

		for _, e := range entries {
			sb.WriteString("| " + e.Kind + " |")
			for _, c := range cols {
				if v, ok := e.Metrics.Get(c); ok {
					sb.WriteString(fmt.Sprintf(" %.4f |", v))
				} else {
					sb.WriteString(" - |")
				}
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// WriteComparison writes the comparison as comparison.md and
// comparison.html under dir
func (b *Bundle) WriteComparison(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}

	md := b.ComparisonMarkdown()
	if err := os.WriteFile(filepath.Join(dir, "comparison.md"), []byte(md), 0o644); err != nil {
		return apperrors.IOError("write comparison markdown", err)
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	rendered := markdown.ToHTML([]byte(md), p, renderer)
	if err := os.WriteFile(filepath.Join(dir, "comparison.html"), rendered, 0o644); err != nil {
		return apperrors.IOError("write comparison html", err)
	}
	return nil
}

// WriteWorkbook writes every entry's metrics to one sheet per task in
// an xlsx workbook
func (b *Bundle) WriteWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, task := range b.tasks() {
		entries := b.byTask(task)
		cols := metricColumns(entries)

		sheet := string(task)
		if first {
			// rename the default sheet instead of leaving it empty
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return apperrors.Wrap(err, "rename sheet")
			}
			first = false
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return apperrors.Wrap(err, "create sheet")
			}
		}

		headers := append([]string{"model"}, cols...)
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			if err := f.SetCellValue(sheet, cell, h); err != nil {
				return apperrors.Wrap(err, "write header cell")
			}
		}

		for r, e := range entries {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetCellValue(sheet, cell, e.Kind); err != nil {
				return apperrors.Wrap(err, "write model cell")
			}
			for c, name := range cols {
				v, ok := e.Metrics.Get(name)
				if !ok {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+2, r+2)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return apperrors.Wrap(err, "write metric cell")
				}
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.IOError("save metrics workbook", err)
	}
	return nil
}

func (b *Bundle) tasks() []core.TaskKey {
	seen := map[core.TaskKey]bool{}
	var out []core.TaskKey
	for _, e := range b.Entries {
		if !seen[e.Task] {
			seen[e.Task] = true
			out = append(out, e.Task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *Bundle) byTask(task core.TaskKey) []Entry {
	var out []Entry
	for _, e := range b.Entries {
		if e.Task == task {
			out = append(out, e)
		}
	}
	return out
}

func metricColumns(entries []Entry) []string {
	seen := map[string]bool{}
	var cols []string
	for _, e := range entries {
		for _, name := range e.Metrics.Names() {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	return cols
}
