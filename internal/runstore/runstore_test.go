package runstore

import (
	"testing"
	"time"

	"insurisk/domain/core"
)

func TestStore_AppendAndList(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{RunID: core.NewRunID(), Task: core.TaskClassifier, Kind: "xgboost", Metrics: map[string]float64{"roc_auc": 0.9}, Timestamp: base},
		{RunID: core.NewRunID(), Task: core.TaskClassifier, Kind: "logistic", Metrics: map[string]float64{"roc_auc": 0.8}, Timestamp: base.Add(time.Hour)},
		{RunID: core.NewRunID(), Task: core.TaskPremium, Kind: "linear", Metrics: map[string]float64{"rmse": 10}, Timestamp: base},
	}
	for _, rec := range records {
		if err := store.Append(rec); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	classifiers, err := store.List(core.TaskClassifier)
	if err != nil {
		t.Fatal(err)
	}
	if len(classifiers) != 2 {
		t.Fatalf("got %d classifier records, want 2", len(classifiers))
	}
	if classifiers[0].Kind != "xgboost" || classifiers[1].Kind != "logistic" {
		t.Errorf("records out of time order: %+v", classifiers)
	}
	if classifiers[0].Metrics["roc_auc"] != 0.9 {
		t.Errorf("metrics lost: %+v", classifiers[0])
	}

	all, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d total records, want 3", len(all))
	}
}

func TestStore_AppendFillsTimestamp(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Append(Record{RunID: core.NewRunID(), Task: core.TaskSeverity, Kind: "gbm"}); err != nil {
		t.Fatal(err)
	}
	records, err := store.List(core.TaskSeverity)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Timestamp.IsZero() {
		t.Errorf("timestamp not filled: %+v", records)
	}
}
