package features

import (
	"math"
	"testing"

	"insurisk/domain/core"
)

func TestStratifiedSplit_PreservesPositiveRatio(t *testing.T) {
	labels := make([]float64, 1000)
	for i := 0; i < 5; i++ {
		labels[i*200] = 1
	}

	trainIdx, testIdx, err := StratifiedSplit(labels, 0.2, 42)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(trainIdx)+len(testIdx) != len(labels) {
		t.Fatalf("split lost rows: %d + %d != %d", len(trainIdx), len(testIdx), len(labels))
	}

	overall := PositiveRatio(labels, allIndices(len(labels)))
	for name, idx := range map[string][]int{"train": trainIdx, "test": testIdx} {
		ratio := PositiveRatio(labels, idx)
		if math.Abs(ratio-overall) > 0.01 {
			t.Errorf("%s positive ratio %.4f deviates more than 1%% from overall %.4f", name, ratio, overall)
		}
	}

	// every positive row must land somewhere, none duplicated
	seen := map[int]int{}
	for _, i := range trainIdx {
		seen[i]++
	}
	for _, i := range testIdx {
		seen[i]++
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("row %d assigned %d times", i, n)
		}
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	labels := []float64{0, 0, 1, 0, 1, 0, 0, 0, 1, 0}

	train1, test1, err := StratifiedSplit(labels, 0.3, 7)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	train2, test2, err := StratifiedSplit(labels, 0.3, 7)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}

	if !equalInts(train1, train2) || !equalInts(test1, test2) {
		t.Error("same seed produced different splits")
	}
}

func TestStratifiedSplit_BadTestSize(t *testing.T) {
	if _, _, err := StratifiedSplit([]float64{0, 1}, 1.5, 1); !core.IsConfigError(err) {
		t.Errorf("expected config error, got %v", err)
	}
	if _, _, err := StratifiedSplit(nil, 0.2, 1); err == nil {
		t.Error("expected error on empty labels")
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
