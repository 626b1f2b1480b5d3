package store

import (
	"database/sql"
	"errors"
	"time"
)

// Label holds the stored settings of one label table index.
type Label struct {
	Index     int       `json:"index"`
	Symbol    string    `json:"symbol"`
	Tolerance float64   `json:"tolerance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LabelRepository provides CRUD operations for label settings.
type LabelRepository struct {
	db *sql.DB
}

// Labels returns the label repository for this store.
func (s *Store) Labels() *LabelRepository {
	return &LabelRepository{db: s.db}
}

// Upsert inserts or replaces the settings of a label.
func (r *LabelRepository) Upsert(l *Label) error {
	l.UpdatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO labels (label_index, symbol, tolerance, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(label_index) DO UPDATE SET
			symbol = excluded.symbol,
			tolerance = excluded.tolerance,
			updated_at = excluded.updated_at`,
		l.Index, l.Symbol, l.Tolerance, l.UpdatedAt,
	)
	return err
}

// Get retrieves a label by index.
func (r *LabelRepository) Get(index int) (*Label, error) {
	l := &Label{}
	err := r.db.QueryRow(
		`SELECT label_index, symbol, tolerance, updated_at FROM labels WHERE label_index = ?`,
		index,
	).Scan(&l.Index, &l.Symbol, &l.Tolerance, &l.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

// List retrieves all labels ordered by index.
func (r *LabelRepository) List() ([]*Label, error) {
	rows, err := r.db.Query(
		`SELECT label_index, symbol, tolerance, updated_at FROM labels ORDER BY label_index`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []*Label
	for rows.Next() {
		l := &Label{}
		if err := rows.Scan(&l.Index, &l.Symbol, &l.Tolerance, &l.UpdatedAt); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// Delete removes a label and, by cascade, its samples.
func (r *LabelRepository) Delete(index int) error {
	result, err := r.db.Exec(`DELETE FROM labels WHERE label_index = ?`, index)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
