package explain

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	apperrors "insurisk/internal/errors"
)

// SaveJSON persists the ranked attribution list
func (s *AttributionSummary) SaveJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "marshal attribution summary")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.IOError("create reports directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.IOError("write attribution summary", err)
	}
	return nil
}

// RenderBarChart draws the top-n features by mean absolute attribution
// as a horizontal-axis bar chart PNG
func (s *AttributionSummary) RenderBarChart(path string, topN int) error {
	top := s.Top(topN)

	values := make(plotter.Values, len(top))
	names := make([]string, len(top))
	for i, fa := range top {
		values[i] = fa.MeanAbs
		names[i] = fa.Name
	}

	p := plot.New()
	p.Title.Text = "Mean |attribution|: " + string(s.Task)
	p.Y.Label.Text = "mean |attribution|"
	p.X.Tick.Label.Rotation = 0.9
	p.X.Tick.Label.XAlign = -0.9

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return apperrors.Wrap(err, "build bar chart")
	}
	p.Add(bars)
	p.NominalX(names...)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.IOError("create plots directory", err)
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return apperrors.IOError("save attribution plot", err)
	}
	return nil
}
