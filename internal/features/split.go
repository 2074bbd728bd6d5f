package features

import (
	"math"
	"math/rand"

	"insurisk/domain/core"
)

// StratifiedSplit partitions row indices into train and test sets,
// preserving the per-class proportions of the stratify labels. The
// claim indicator is severely imbalanced (~0.26% positive), so a plain
// random split could easily land every positive row on one side.
// Deterministic for a fixed seed.
func StratifiedSplit(labels []float64, testSize float64, seed int64) (trainIdx, testIdx []int, err error) {
	if len(labels) == 0 {
		return nil, nil, core.ErrEmptyFrame
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, core.NewConfigError("test_size", "must be in (0, 1)")
	}

	byClass := make(map[float64][]int)
	var classes []float64
	for i, v := range labels {
		if _, seen := byClass[v]; !seen {
			classes = append(classes, v)
		}
		byClass[v] = append(byClass[v], i)
	}

	rnd := rand.New(rand.NewSource(seed))
	for _, class := range classes {
		indices := byClass[class]
		rnd.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(float64(len(indices)) * testSize))
		if nTest == 0 && len(indices) > 1 {
			nTest = 1 // keep at least one row of every class on each side
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}

		testIdx = append(testIdx, indices[:nTest]...)
		trainIdx = append(trainIdx, indices[nTest:]...)
	}

	return trainIdx, testIdx, nil
}

// PositiveRatio returns the share of non-zero labels among the given indices
func PositiveRatio(labels []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	n := 0
	for _, i := range indices {
		if labels[i] != 0 {
			n++
		}
	}
	return float64(n) / float64(len(indices))
}
