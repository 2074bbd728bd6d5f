package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"insurisk/adapters/insight"
	"insurisk/domain/core"
	"insurisk/internal/config"
	apperrors "insurisk/internal/errors"
)

// InsightService drives the exploratory and hypothesis-testing stages
type InsightService struct {
	cfg *config.Pipeline
}

func NewInsightService(cfg *config.Pipeline) *InsightService {
	return &InsightService{cfg: cfg}
}

// RunEDA computes descriptive statistics and the correlation matrix
// over the cleaned, KPI-extended dataset and writes eda.json plus a
// markdown summary
func (s *InsightService) RunEDA(ctx context.Context) (*insight.EDAResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := loadFrame(s.cfg)
	if err != nil {
		return nil, err
	}
	f, err = insight.AddKPIColumns(f)
	if err != nil {
		return nil, err
	}

	summaries, err := insight.Describe(f)
	if err != nil {
		return nil, err
	}
	names, corr, err := insight.CorrelationMatrix(f)
	if err != nil {
		return nil, err
	}

	result := &insight.EDAResult{
		Summaries:        summaries,
		CorrelationNames: names,
		Correlation:      corr,
	}
	if err := result.WriteJSON(s.cfg.Output.ReportsDir); err != nil {
		return nil, err
	}
	mdPath := filepath.Join(s.cfg.Output.ReportsDir, "eda.md")
	if err := os.WriteFile(mdPath, []byte(result.Markdown()), 0o644); err != nil {
		return nil, apperrors.IOError("write eda summary", err)
	}
	log.Info().Int("columns", len(summaries)).Msg("eda complete")
	return result, nil
}

// RunHypothesisTests runs every configured A/B test and writes the
// summary table. Tests with too little data are skipped with a warning
// rather than failing the run.
func (s *InsightService) RunHypothesisTests(ctx context.Context) ([]*insight.TestResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := loadFrame(s.cfg)
	if err != nil {
		return nil, err
	}
	f, err = insight.AddKPIColumns(f)
	if err != nil {
		return nil, err
	}

	tester := &insight.Tester{Alpha: s.cfg.Hypothesis.Alpha}
	var results []*insight.TestResult
	for _, spec := range s.cfg.Hypothesis.Tests {
		kind, err := insight.ParseTestKind(spec.Kind)
		if err != nil {
			return nil, err
		}
		result, err := tester.Run(f, kind, spec.Feature, spec.GroupA, spec.GroupB, spec.KPI)
		if err != nil {
			if !core.IsDataError(err) {
				return nil, err
			}
			log.Warn().Err(err).Str("kpi", spec.KPI).Str("feature", spec.Feature).Msg("hypothesis test skipped")
			continue
		}
		results = append(results, result)
	}

	if err := insight.WriteTestSummary(s.cfg.Output.ReportsDir, results, s.cfg.Hypothesis.Alpha); err != nil {
		return nil, err
	}
	log.Info().Int("tests", len(results)).Msg("hypothesis run complete")
	return results, nil
}
