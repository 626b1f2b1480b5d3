package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrEmptySample is returned when a sample has no feature values.
var ErrEmptySample = errors.New("sample has no features")

// Sample is one recorded feature vector for a label.
type Sample struct {
	ID         string    `json:"id"`
	LabelIndex int       `json:"label_index"`
	Features   []float64 `json:"features"`
	CreatedAt  time.Time `json:"created_at"`
}

// SampleRepository provides CRUD operations for training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create inserts samples for a label in a single transaction, creating the
// label row if needed. It returns the stored samples with their new IDs.
func (r *SampleRepository) Create(labelIndex int, features [][]float64) ([]Sample, error) {
	if len(features) == 0 {
		return nil, ErrEmptySample
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO labels (label_index) VALUES (?)`, labelIndex); err != nil {
		return nil, err
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (id, label_index, features, created_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	now := time.Now()
	samples := make([]Sample, 0, len(features))
	for i, v := range features {
		if len(v) == 0 {
			return nil, fmt.Errorf("sample %d: %w", i, ErrEmptySample)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		s := Sample{ID: uuid.New().String(), LabelIndex: labelIndex, Features: v, CreatedAt: now}
		if _, err := stmt.Exec(s.ID, s.LabelIndex, string(data), s.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return samples, nil
}

// ListByLabel retrieves the samples of one label, oldest first.
func (r *SampleRepository) ListByLabel(labelIndex int) ([]Sample, error) {
	return r.query(
		`SELECT id, label_index, features, created_at FROM samples
		 WHERE label_index = ? ORDER BY created_at, rowid`,
		labelIndex,
	)
}

// All returns every sample's features grouped by label index.
func (r *SampleRepository) All() (map[int][][]float64, error) {
	samples, err := r.query(`SELECT id, label_index, features, created_at FROM samples ORDER BY label_index, created_at, rowid`)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[int][][]float64)
	for _, s := range samples {
		byLabel[s.LabelIndex] = append(byLabel[s.LabelIndex], s.Features)
	}
	return byLabel, nil
}

// CountByLabel returns the number of samples per label index.
func (r *SampleRepository) CountByLabel() (map[int]int, error) {
	rows, err := r.db.Query(`SELECT label_index, COUNT(*) FROM samples GROUP BY label_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var idx, n int
		if err := rows.Scan(&idx, &n); err != nil {
			return nil, err
		}
		counts[idx] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// DeleteByLabel removes all samples of a label and returns how many were
// removed.
func (r *SampleRepository) DeleteByLabel(labelIndex int) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM samples WHERE label_index = ?`, labelIndex)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SampleRepository) query(q string, args ...any) ([]Sample, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		var data string
		if err := rows.Scan(&s.ID, &s.LabelIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &s.Features); err != nil {
			return nil, fmt.Errorf("sample %s: %w", s.ID, err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}
