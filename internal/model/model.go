// Package model implements the trainable models of the pipeline: a
// closed set of regressors and classifiers selected once at
// configuration-parse time. Every model records the encoded feature
// schema it was trained on and refuses inference against anything else.
package model

import (
	"fmt"

	"insurisk/domain/core"
	"insurisk/internal/features"
)

// Kind identifies a model family from the closed set
type Kind string

const (
	KindLinear       Kind = "linear"
	KindLogistic     Kind = "logistic"
	KindRandomForest Kind = "random_forest"
	KindGBM          Kind = "gbm"
)

// Task distinguishes classification from regression
type Task string

const (
	TaskClassification Task = "classification"
	TaskRegression     Task = "regression"
)

// kindAliases maps accepted configuration spellings to kinds. The
// boosted-tree aliases mirror the names used in earlier report configs.
var kindAliases = map[string]Kind{
	"linear":            KindLinear,
	"logistic":          KindLogistic,
	"random_forest":     KindRandomForest,
	"random_forest_cls": KindRandomForest,
	"gbm":               KindGBM,
	"xgboost":           KindGBM,
	"xgboost_reg":       KindGBM,
}

// classifierKinds and regressorKinds are the per-task closed sets
var (
	classifierKinds = map[Kind]bool{KindLogistic: true, KindRandomForest: true, KindGBM: true}
	regressorKinds  = map[Kind]bool{KindLinear: true, KindRandomForest: true, KindGBM: true}
)

// ParseKind resolves a configured model name for a task. Unknown names
// and task/kind mismatches are configuration errors.
func ParseKind(name string, task Task) (Kind, error) {
	kind, ok := kindAliases[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownModelKind, name)
	}
	allowed := regressorKinds
	if task == TaskClassification {
		allowed = classifierKinds
	}
	if !allowed[kind] {
		return "", fmt.Errorf("%w: %q is not a %s model", core.ErrUnknownModelKind, name, task)
	}
	return kind, nil
}

// Params holds the hyperparameters shared across the model families.
// Zero values are replaced by per-family defaults at train time.
type Params struct {
	Trees        int     `yaml:"trees" json:"trees,omitempty"`
	MaxDepth     int     `yaml:"max_depth" json:"max_depth,omitempty"`
	MinLeaf      int     `yaml:"min_leaf" json:"min_leaf,omitempty"`
	LearningRate float64 `yaml:"learning_rate" json:"learning_rate,omitempty"`
	Epochs       int     `yaml:"epochs" json:"epochs,omitempty"`
	Ridge        float64 `yaml:"ridge" json:"ridge,omitempty"`
}

func (p Params) withDefaults(kind Kind) Params {
	switch kind {
	case KindRandomForest:
		if p.Trees == 0 {
			p.Trees = 100
		}
		if p.MaxDepth == 0 {
			p.MaxDepth = 8
		}
		if p.MinLeaf == 0 {
			p.MinLeaf = 2
		}
	case KindGBM:
		if p.Trees == 0 {
			p.Trees = 100
		}
		if p.MaxDepth == 0 {
			p.MaxDepth = 3
		}
		if p.MinLeaf == 0 {
			p.MinLeaf = 1
		}
		if p.LearningRate == 0 {
			p.LearningRate = 0.1
		}
	case KindLogistic:
		if p.LearningRate == 0 {
			p.LearningRate = 0.5
		}
		if p.Epochs == 0 {
			p.Epochs = 300
		}
	case KindLinear:
		if p.Ridge == 0 {
			p.Ridge = 1e-6
		}
	}
	return p
}

// TrainedModel owns the fitted parameters of one task's model together
// with the feature schema it was trained on
type TrainedModel struct {
	Kind   Kind
	Task   Task
	Params Params
	Seed   int64
	Schema []string

	linear   *linearModel
	logistic *logisticModel
	forest   *forestModel
	gbm      *gbmModel
}

// Train fits a model of the given kind on the feature matrix.
// Deterministic for a fixed seed.
func Train(kind Kind, task Task, p Params, x *features.Matrix, y []float64, seed int64) (*TrainedModel, error) {
	if x.Len() == 0 {
		return nil, core.ErrEmptyFrame
	}
	if x.Len() != len(y) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", core.ErrData, x.Len(), len(y))
	}

	p = p.withDefaults(kind)
	m := &TrainedModel{
		Kind:   kind,
		Task:   task,
		Params: p,
		Seed:   seed,
		Schema: append([]string(nil), x.Columns...),
	}

	var err error
	switch kind {
	case KindLinear:
		if task != TaskRegression {
			return nil, fmt.Errorf("%w: linear is regression-only", core.ErrUnknownModelKind)
		}
		m.linear, err = fitLinear(x.Rows, y, p.Ridge)
	case KindLogistic:
		if task != TaskClassification {
			return nil, fmt.Errorf("%w: logistic is classification-only", core.ErrUnknownModelKind)
		}
		m.logistic, err = fitLogistic(x.Rows, y, p.LearningRate, p.Epochs)
	case KindRandomForest:
		m.forest, err = fitForest(x.Rows, y, p, seed)
	case KindGBM:
		m.gbm, err = fitGBM(x.Rows, y, p, task)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownModelKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Predict returns the regression predictions for a matrix carrying the
// training schema. For classification models it returns the positive
// class probability, matching PredictProba.
func (m *TrainedModel) Predict(x *features.Matrix) ([]float64, error) {
	if err := m.checkSchema(x); err != nil {
		return nil, err
	}
	return m.scoreRows(x.Rows), nil
}

// PredictProba returns positive-class probabilities. Only valid for
// classification models.
func (m *TrainedModel) PredictProba(x *features.Matrix) ([]float64, error) {
	if m.Task != TaskClassification {
		return nil, fmt.Errorf("%w: %s model has no probability output", core.ErrData, m.Task)
	}
	return m.Predict(x)
}

// scoreRows scores raw encoded rows without a schema check. Callers
// must only pass rows built against the training schema.
func (m *TrainedModel) scoreRows(rows [][]float64) []float64 {
	switch m.Kind {
	case KindLinear:
		return m.linear.predict(rows)
	case KindLogistic:
		return m.logistic.predictProba(rows)
	case KindRandomForest:
		return m.forest.predict(rows)
	case KindGBM:
		return m.gbm.predict(rows, m.Task)
	}
	return nil
}

// ScoreRows exposes raw-row scoring for attribution, where synthetic
// rows are assembled in the training schema by construction.
func (m *TrainedModel) ScoreRows(rows [][]float64) []float64 {
	return m.scoreRows(rows)
}

func (m *TrainedModel) checkSchema(x *features.Matrix) error {
	if !x.SameSchema(m.Schema) {
		return core.NewSchemaMismatchError(len(m.Schema), x.Width())
	}
	return nil
}
