package core

import (
	"github.com/google/uuid"
)

// RunID uniquely identifies a single pipeline run
type RunID string

// NewRunID creates a new random run identifier
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func (id RunID) String() string {
	return string(id)
}

// IsZero reports whether the ID is unset
func (id RunID) IsZero() bool {
	return id == ""
}

// TaskKey identifies one of the modeling tasks within a run
type TaskKey string

const (
	TaskClassifier TaskKey = "classifier"
	TaskPremium    TaskKey = "premium"
	TaskSeverity   TaskKey = "severity"
)
