package sqlite

import (
	"context"
	"errors"
	"time"

	"quiz-autopilot/internal/history"
)

func (s *SQLiteStore) BeginRun(ctx context.Context, run history.Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, course_id, target, started_at_unix) VALUES (?, ?, ?, ?)`,
		run.ID,
		run.CourseID,
		run.Target,
		run.StartedAt.UnixNano(),
	)
	return err
}

// FinishRun stores the final counters and stop reason of a run that was
// begun earlier.
func (s *SQLiteStore) FinishRun(ctx context.Context, run history.Run) error {
	if run.EndedAt.IsZero() {
		run.EndedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET ended_at_unix = ?, answered = ?, correct = ?, reason = ? WHERE run_id = ?`,
		run.EndedAt.UnixNano(),
		run.Answered,
		run.Correct,
		run.Reason,
		run.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return history.ErrRunNotFound
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]history.Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, course_id, target, started_at_unix, ended_at_unix, answered, correct, reason
		 FROM runs
		 ORDER BY started_at_unix DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]history.Run, 0)
	for rows.Next() {
		var (
			run           history.Run
			startedAtUnix int64
			endedAtUnix   int64
		)
		if err := rows.Scan(&run.ID, &run.CourseID, &run.Target, &startedAtUnix, &endedAtUnix, &run.Answered, &run.Correct, &run.Reason); err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(0, startedAtUnix).UTC()
		if endedAtUnix != 0 {
			run.EndedAt = time.Unix(0, endedAtUnix).UTC()
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *SQLiteStore) runExists(ctx context.Context, q queryer, runID string) (bool, error) {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM runs WHERE run_id = ?)`, runID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}
