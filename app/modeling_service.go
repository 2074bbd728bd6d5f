// Package app orchestrates the pipeline stages: ingest, KPI
// derivation, feature preparation, training, evaluation, attribution
// and reporting. Services hold no mutable global state; everything
// flows through the pipeline configuration.
package app

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"insurisk/adapters/ingest"
	"insurisk/adapters/insight"
	"insurisk/domain/core"
	"insurisk/domain/frame"
	"insurisk/internal/config"
	"insurisk/internal/eval"
	"insurisk/internal/explain"
	"insurisk/internal/features"
	"insurisk/internal/model"
	"insurisk/internal/report"
	"insurisk/internal/runstore"
)

// derivedColumns lists the KPI columns that would leak the outcome if
// they entered a feature matrix
var derivedColumns = []string{
	insight.ColMargin,
	insight.ColLossRatio,
	insight.ColLossRatioCapped,
	insight.ColClaimOccurred,
}

// TaskStatus is the per-task outcome of one modeling run
type TaskStatus struct {
	Task    core.TaskKey       `json:"task"`
	Kind    string             `json:"kind"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Err     string             `json:"error,omitempty"`
}

// RunSummary reports what each task produced
type RunSummary struct {
	RunID core.RunID   `json:"run_id"`
	Tasks []TaskStatus `json:"tasks"`
}

// ModelingService drives the train/evaluate/explain pipeline
type ModelingService struct {
	cfg *config.Pipeline
}

func NewModelingService(cfg *config.Pipeline) *ModelingService {
	return &ModelingService{cfg: cfg}
}

// taskSpec binds one modeling task to its target and model selection
type taskSpec struct {
	key          core.TaskKey
	target       string
	task         model.Task
	modelCfg     config.ModelConfig
	positiveOnly bool // restrict to claiming policies before preparation
}

// Run executes the three modeling tasks. A data error halts only the
// affected task; configuration and IO errors abort the run.
func (s *ModelingService) Run(ctx context.Context) (*RunSummary, error) {
	f, err := loadFrame(s.cfg)
	if err != nil {
		return nil, err
	}
	f, err = insight.AddKPIColumns(f)
	if err != nil {
		return nil, err
	}

	runID := core.NewRunID()
	summary := &RunSummary{RunID: runID}
	bundle := &report.Bundle{RunID: runID}

	store, err := runstore.Open(s.cfg.Output.LedgerDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	tasks := []taskSpec{
		{key: core.TaskClassifier, target: insight.ColClaimOccurred, task: model.TaskClassification, modelCfg: s.cfg.Classifier},
		{key: core.TaskPremium, target: insight.ColTotalPremium, task: model.TaskRegression, modelCfg: s.cfg.Premium},
		{key: core.TaskSeverity, target: insight.ColTotalClaims, task: model.TaskRegression, modelCfg: s.cfg.Severity, positiveOnly: true},
	}

	for _, spec := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		status := TaskStatus{Task: spec.key, Kind: spec.modelCfg.Kind}
		metrics, err := s.runTask(f, spec, bundle)
		if err != nil {
			if !core.IsDataError(err) {
				return nil, err
			}
			// this task halts, the remaining tasks still run
			log.Warn().Err(err).Str("task", string(spec.key)).Msg("task halted on data error")
			status.Err = err.Error()
			summary.Tasks = append(summary.Tasks, status)
			continue
		}

		status.Metrics = metrics.Map()
		summary.Tasks = append(summary.Tasks, status)

		if err := store.Append(runstore.Record{
			RunID:     runID,
			Task:      spec.key,
			Kind:      spec.modelCfg.Kind,
			Metrics:   metrics.Map(),
			Timestamp: time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
	}

	if err := bundle.WriteJSON(s.cfg.Output.ReportsDir); err != nil {
		return nil, err
	}
	if err := bundle.WriteComparison(s.cfg.Output.ReportsDir); err != nil {
		return nil, err
	}
	if err := bundle.WriteWorkbook(filepath.Join(s.cfg.Output.ReportsDir, "metrics.xlsx")); err != nil {
		return nil, err
	}
	log.Info().Str("run_id", string(runID)).Int("tasks", len(summary.Tasks)).Msg("modeling run complete")
	return summary, nil
}

func (s *ModelingService) runTask(f *frame.Frame, spec taskSpec, bundle *report.Bundle) (*eval.MetricsReport, error) {
	taskFrame := f
	if spec.positiveOnly {
		claims, err := f.Numeric(insight.ColTotalClaims)
		if err != nil {
			return nil, err
		}
		// zero-claim rows never reach preparation, training or scoring
		taskFrame, err = f.Filter(func(row int) bool { return claims[row] > 0 })
		if err != nil {
			return nil, err
		}
		if taskFrame.Rows() == 0 {
			return nil, core.ErrInsufficientData
		}
	}

	drop := make([]string, 0, len(derivedColumns)+2)
	drop = append(drop, derivedColumns...)
	drop = append(drop, insight.ColTotalPremium, insight.ColTotalClaims)

	preparer := &features.Preparer{
		TestSize:       s.cfg.Split.TestSize,
		Seed:           s.cfg.Split.Seed,
		StratifyColumn: s.cfg.Split.StratifyColumn,
		Drop:           drop,
	}
	prepared, err := preparer.Prepare(taskFrame, spec.target)
	if err != nil {
		return nil, err
	}

	kind := spec.modelCfg.ResolvedKind()
	trained, err := model.Train(kind, spec.task, spec.modelCfg.Params, prepared.XTrain, prepared.YTrain, s.cfg.Split.Seed)
	if err != nil {
		return nil, err
	}

	evaluator := eval.NewEvaluator(s.cfg.Evaluation.Threshold)
	metrics, err := evaluator.Evaluate(spec.key, trained, prepared.XTest, prepared.YTest)
	if err != nil {
		return nil, err
	}
	bundle.Add(spec.key, spec.modelCfg.Kind, metrics)

	artifactPath := filepath.Join(s.cfg.Output.ModelsDir, string(spec.key)+".json")
	if err := trained.Save(artifactPath); err != nil {
		return nil, err
	}
	log.Info().
		Str("task", string(spec.key)).
		Str("kind", string(kind)).
		Int("train_rows", prepared.XTrain.Len()).
		Int("test_rows", prepared.XTest.Len()).
		Msg("model trained")

	if s.cfg.Interpret.Enabled {
		if err := s.explainTask(spec.key, trained, prepared.XTest); err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (s *ModelingService) explainTask(task core.TaskKey, trained *model.TrainedModel, x *features.Matrix) error {
	summary, err := explain.Explain(task, trained, x, explain.Options{
		SampleSize:   s.cfg.Interpret.SampleSize,
		Permutations: s.cfg.Interpret.Permutations,
		Seed:         s.cfg.Split.Seed,
	})
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(s.cfg.Output.ReportsDir, string(task)+"_attribution.json")
	if err := summary.SaveJSON(jsonPath); err != nil {
		return err
	}
	plotPath := filepath.Join(s.cfg.Output.PlotsDir, string(task)+"_attribution.png")
	return summary.RenderBarChart(plotPath, s.cfg.Interpret.TopN)
}

// loadFrame reads and cleans the configured dataset
func loadFrame(cfg *config.Pipeline) (*frame.Frame, error) {
	reader := ingest.NewReader(cfg.Data.Path, cfg.Data.Delimiter)
	reader.ConvertCSV = cfg.Data.ConvertCSV
	f, err := reader.Read()
	if err != nil {
		return nil, err
	}
	cleaner := &ingest.Cleaner{
		DateColumns: cfg.Data.DateColumns,
		BoolColumns: cfg.Data.BoolColumns,
	}
	return cleaner.Clean(f)
}
