package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Per-label classifier settings, keyed by label table index.
		`CREATE TABLE IF NOT EXISTS labels (
			label_index INTEGER PRIMARY KEY,
			symbol TEXT NOT NULL DEFAULT '',
			tolerance REAL NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Recorded landmark feature vectors used to train templates.
		`CREATE TABLE IF NOT EXISTS samples (
			id TEXT PRIMARY KEY,
			label_index INTEGER NOT NULL REFERENCES labels(label_index) ON DELETE CASCADE,
			features TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_samples_label_index ON samples(label_index)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
