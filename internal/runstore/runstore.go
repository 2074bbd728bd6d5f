// Package runstore keeps an append-only ledger of modeling runs in a
// local BoltDB file. Each trained model contributes one record keyed by
// task and timestamp, so past runs can be listed and compared without
// re-reading report files.
package runstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"insurisk/domain/core"
	apperrors "insurisk/internal/errors"
)

const runsBucket = "runs"

// Record is one persisted modeling outcome
type Record struct {
	RunID     core.RunID         `json:"run_id"`
	Task      core.TaskKey       `json:"task"`
	Kind      string             `json:"kind"`
	Metrics   map[string]float64 `json:"metrics"`
	Timestamp time.Time          `json:"timestamp"`
}

// Store is the BoltDB-backed run ledger
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the ledger under dataPath
func Open(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "insurisk-runs.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, apperrors.IOError("open run ledger", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, apperrors.IOError("create runs bucket", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database file
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores one run record. Keys are "task_timestampNanos" so a
// cursor scan yields records per task in time order.
func (s *Store) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return apperrors.Wrap(err, "marshal run record")
		}

		key := fmt.Sprintf("%s_%d", rec.Task, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// List returns records for a task in time order. An empty task lists
// every record.
func (s *Store) List(task core.TaskKey) ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		c := b.Cursor()

		prefix := []byte(string(task) + "_")
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if task != "" && !bytes.HasPrefix(k, prefix) {
				continue
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
