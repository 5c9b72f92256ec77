package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Athletes table - stores user profiles that tune recognition and fatigue
		`CREATE TABLE IF NOT EXISTS athletes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			flexibility TEXT NOT NULL DEFAULT '',
			age INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Sessions table - one row per continuous observation
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			athlete_id TEXT REFERENCES athletes(id) ON DELETE SET NULL,
			exercise TEXT NOT NULL DEFAULT 'unknown',
			user_flexibility TEXT NOT NULL DEFAULT '',
			user_age INTEGER,
			frames INTEGER NOT NULL DEFAULT 0,
			fatigue_alarms INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Frame results table - per-frame analysis output
		`CREATE TABLE IF NOT EXISTS frame_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			exercise TEXT NOT NULL,
			confidence REAL NOT NULL,
			phase TEXT NOT NULL,
			severity TEXT NOT NULL CHECK(severity IN ('good', 'moderate', 'severe')),
			mistakes TEXT NOT NULL DEFAULT '[]',
			fatigue_overall REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(session_id, seq)
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_frame_results_session_id ON frame_results(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
