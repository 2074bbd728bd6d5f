// Package explain computes per-feature attribution values for trained
// models. Attribution is estimated by Monte-Carlo sampling of Shapley
// values: feature values are swapped in one at a time along random
// permutations against background rows, and the marginal change in the
// model score is credited to the swapped feature. The estimator only
// needs a scoring function, so it treats tree ensembles and linear
// models uniformly through the predict / predict-proba capability set.
package explain

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"insurisk/domain/core"
	"insurisk/internal/features"
	"insurisk/internal/model"
)

// Options bounds the attribution sample for cost control
type Options struct {
	SampleSize   int // rows to explain; 0 => DefaultSampleSize
	Permutations int // permutations per row; 0 => DefaultPermutations
	Seed         int64
}

const (
	DefaultSampleSize   = 100
	DefaultPermutations = 16
)

// FeatureAttribution is the aggregate attribution of one encoded feature
type FeatureAttribution struct {
	Name    string  `json:"name"`
	MeanAbs float64 `json:"mean_abs"`
	Mean    float64 `json:"mean"`
}

// AttributionSummary ranks features by mean absolute attribution
type AttributionSummary struct {
	Task         core.TaskKey         `json:"task"`
	Sampled      int                  `json:"sampled"`
	Permutations int                  `json:"permutations"`
	Ranking      []FeatureAttribution `json:"ranking"`
}

// Top returns the n highest-ranked features
func (s *AttributionSummary) Top(n int) []FeatureAttribution {
	if n > len(s.Ranking) {
		n = len(s.Ranking)
	}
	return s.Ranking[:n]
}

// Explain estimates Shapley attributions for a bounded sample of rows
func Explain(task core.TaskKey, m *model.TrainedModel, x *features.Matrix, opts Options) (*AttributionSummary, error) {
	if !x.SameSchema(m.Schema) {
		return nil, fmt.Errorf("%w: attribution matrix does not match training schema", core.ErrSchemaMismatch)
	}
	if x.Len() == 0 {
		return nil, core.ErrEmptyFrame
	}

	sampleSize := opts.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	permutations := opts.Permutations
	if permutations <= 0 {
		permutations = DefaultPermutations
	}

	rnd := rand.New(rand.NewSource(opts.Seed))
	rows := x.Rows
	sample := sampleRows(rows, sampleSize, rnd)
	p := x.Width()

	sumAbs := make([]float64, p)
	sum := make([]float64, p)

	batch := make([][]float64, p+1)
	for _, row := range sample {
		for mIter := 0; mIter < permutations; mIter++ {
			background := rows[rnd.Intn(len(rows))]
			perm := rnd.Perm(p)

			// Walk the permutation from the background row towards the
			// explained row, scoring after every single-feature swap.
			current := append([]float64(nil), background...)
			batch[0] = append([]float64(nil), current...)
			for step, j := range perm {
				current[j] = row[j]
				batch[step+1] = append([]float64(nil), current...)
			}

			scores := m.ScoreRows(batch)
			for step, j := range perm {
				delta := scores[step+1] - scores[step]
				sum[j] += delta
				sumAbs[j] += math.Abs(delta)
			}
		}
	}

	total := float64(len(sample) * permutations)
	ranking := make([]FeatureAttribution, p)
	for j, name := range x.Columns {
		ranking[j] = FeatureAttribution{
			Name:    name,
			MeanAbs: sumAbs[j] / total,
			Mean:    sum[j] / total,
		}
	}
	sort.SliceStable(ranking, func(a, b int) bool {
		return ranking[a].MeanAbs > ranking[b].MeanAbs
	})

	return &AttributionSummary{
		Task:         task,
		Sampled:      len(sample),
		Permutations: permutations,
		Ranking:      ranking,
	}, nil
}

func sampleRows(rows [][]float64, n int, rnd *rand.Rand) [][]float64 {
	if n >= len(rows) {
		return rows
	}
	picked := rnd.Perm(len(rows))[:n]
	sort.Ints(picked)
	out := make([][]float64, n)
	for i, idx := range picked {
		out[i] = rows[idx]
	}
	return out
}
