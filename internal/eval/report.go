package eval

import (
	"encoding/json"
	"fmt"

	"insurisk/domain/core"
)

// MetricsReport is an append-only, ordered mapping from metric name to
// scalar, produced once per trained model
type MetricsReport struct {
	Task  core.TaskKey
	names []string
	value map[string]float64
}

// NewMetricsReport creates an empty report for a task
func NewMetricsReport(task core.TaskKey) *MetricsReport {
	return &MetricsReport{Task: task, value: make(map[string]float64)}
}

// Add appends a metric. Re-adding a name is rejected: reports are
// append-only and never rewritten.
func (r *MetricsReport) Add(name string, v float64) error {
	if _, exists := r.value[name]; exists {
		return fmt.Errorf("%w: metric %q already recorded", core.ErrData, name)
	}
	r.names = append(r.names, name)
	r.value[name] = v
	return nil
}

// Get returns a recorded metric
func (r *MetricsReport) Get(name string) (float64, bool) {
	v, ok := r.value[name]
	return v, ok
}

// Names returns metric names in insertion order
func (r *MetricsReport) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of recorded metrics
func (r *MetricsReport) Len() int { return len(r.names) }

// Map returns a copy of the underlying mapping
func (r *MetricsReport) Map() map[string]float64 {
	out := make(map[string]float64, len(r.value))
	for k, v := range r.value {
		out[k] = v
	}
	return out
}

// MarshalJSON renders the report as a flat JSON object in insertion order
func (r *MetricsReport) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, name := range r.names {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.value[name])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}
