package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"insurisk/domain/core"
	apperrors "insurisk/internal/errors"
)

// artifact is the serialised form of a trained model: the fitted
// parameters plus the feature schema, so a reloaded model keeps
// rejecting mismatched inference matrices.
type artifact struct {
	Kind   Kind     `json:"kind"`
	Task   Task     `json:"task"`
	Params Params   `json:"params"`
	Seed   int64    `json:"seed"`
	Schema []string `json:"schema"`

	Linear   *linearModel   `json:"linear,omitempty"`
	Logistic *logisticModel `json:"logistic,omitempty"`
	Forest   *forestModel   `json:"forest,omitempty"`
	GBM      *gbmModel      `json:"gbm,omitempty"`
}

// Save writes the model artifact as indented JSON, creating parent
// directories as needed
func (m *TrainedModel) Save(path string) error {
	a := artifact{
		Kind:     m.Kind,
		Task:     m.Task,
		Params:   m.Params,
		Seed:     m.Seed,
		Schema:   m.Schema,
		Linear:   m.linear,
		Logistic: m.logistic,
		Forest:   m.forest,
		GBM:      m.gbm,
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "marshal model artifact")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.IOError("create model directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.IOError("write model artifact", err)
	}
	return nil
}

// Load reads a model artifact back into a usable TrainedModel
func Load(path string) (*TrainedModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.IOError("read model artifact", err)
	}
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, apperrors.Wrap(err, "parse model artifact")
	}
	if len(a.Schema) == 0 {
		return nil, fmt.Errorf("%w: artifact has no feature schema", core.ErrData)
	}
	return &TrainedModel{
		Kind:     a.Kind,
		Task:     a.Task,
		Params:   a.Params,
		Seed:     a.Seed,
		Schema:   a.Schema,
		linear:   a.Linear,
		logistic: a.Logistic,
		forest:   a.Forest,
		gbm:      a.GBM,
	}, nil
}

// Fingerprint hashes the fitted parameters for determinism checks
// across runs
func (m *TrainedModel) Fingerprint() (string, error) {
	return core.Fingerprint(artifact{
		Kind:     m.Kind,
		Task:     m.Task,
		Params:   m.Params,
		Seed:     m.Seed,
		Schema:   m.Schema,
		Linear:   m.linear,
		Logistic: m.logistic,
		Forest:   m.forest,
		GBM:      m.gbm,
	})
}
