package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			course_id INTEGER NOT NULL,
			target INTEGER NOT NULL,
			started_at_unix INTEGER NOT NULL,
			-- 0 while the run is in progress.
			ended_at_unix INTEGER NOT NULL DEFAULT 0,
			answered INTEGER NOT NULL DEFAULT 0,
			correct INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			submission_id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			question_uuid TEXT NOT NULL,
			description TEXT NOT NULL,
			answer TEXT NOT NULL,
			correct INTEGER NOT NULL,
			message TEXT NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		// The service may omit the question uuid; only known uuids are deduplicated.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_submissions_run_uuid ON submissions(run_id, question_uuid) WHERE question_uuid != '';`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_run_submitted_at ON submissions(run_id, submitted_at_unix);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
