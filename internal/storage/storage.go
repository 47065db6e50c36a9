// Package storage provides persistent prediction history for the risk service.
// It uses BoltDB as the underlying storage engine; records are JSON values keyed
// by their timestamp so time-range queries are cursor scans.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// DBFile is the database file name created inside the data path.
const DBFile = "diabetes-risk.db"

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	ModelVersion  string         `json:"model_version"`
	Class         int            `json:"class"`
	Probabilities [2]float64     `json:"probabilities"`
	RiskScore     float64        `json:"risk_score"`
	Confidence    float64        `json:"confidence"`
	Threshold     float64        `json:"threshold"`
	Features      []float64      `json:"features"`
	Input         map[string]any `json:"input,omitempty"`
}

// Store provides persistent storage for prediction records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath.
func New(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data path: %w", err)
	}
	dbPath := filepath.Join(dataPath, DBFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction persists a prediction record.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}
		return b.Put(recordKey(rec.Timestamp, rec.ID), data)
	})
}

// GetPredictions returns records with start <= timestamp <= end, oldest first.
func (s *Store) GetPredictions(start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		startKey := tsPrefix(start)
		endKey := tsPrefix(end)

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k[:len(endKey)], endKey) <= 0; k, v = c.Next() {
			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Key timestamps are clamped to the range UnixNano can represent.
var (
	minKeyTime = time.Unix(0, 0)
	maxKeyTime = time.Unix(0, math.MaxInt64)
)

// tsPrefix is a fixed-width, lexically sortable timestamp.
func tsPrefix(t time.Time) []byte {
	if t.Before(minKeyTime) {
		t = minKeyTime
	} else if t.After(maxKeyTime) {
		t = maxKeyTime
	}
	return []byte(fmt.Sprintf("%020d", t.UnixNano()))
}

func recordKey(t time.Time, id string) []byte {
	return append(tsPrefix(t), []byte("_"+id)...)
}
