package sqlite

import (
	"context"
	"database/sql"
	"time"

	"quiz-autopilot/internal/history"
)

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RecordSubmission appends a confirmed submission to its run. A second
// record for the same (run, non-empty question uuid) is ignored so a
// replayed event never overwrites the first answer.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, submission history.Submission) error {
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	exists, err := s.runExists(ctx, tx, submission.RunID)
	if err != nil {
		return err
	}
	if !exists {
		return history.ErrRunNotFound
	}

	correct := 0
	if submission.Correct {
		correct = 1
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO submissions (run_id, question_uuid, description, answer, correct, message, submitted_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		submission.RunID,
		submission.UUID,
		submission.Description,
		submission.Answer,
		correct,
		submission.Message,
		submission.SubmittedAt.UnixNano(),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetRunSubmissions(ctx context.Context, runID string) ([]history.Submission, error) {
	exists, err := s.runExists(ctx, s.db, runID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, history.ErrRunNotFound
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT question_uuid, description, answer, correct, message, submitted_at_unix
		 FROM submissions
		 WHERE run_id = ?
		 ORDER BY submitted_at_unix ASC, submission_id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]history.Submission, 0)
	for rows.Next() {
		var (
			submission      history.Submission
			correct         int
			submittedAtUnix int64
		)
		if err := rows.Scan(&submission.UUID, &submission.Description, &submission.Answer, &correct, &submission.Message, &submittedAtUnix); err != nil {
			return nil, err
		}
		submission.RunID = runID
		submission.Correct = correct == 1
		submission.SubmittedAt = time.Unix(0, submittedAtUnix).UTC()
		submissions = append(submissions, submission)
	}

	return submissions, rows.Err()
}

var _ history.Store = (*SQLiteStore)(nil)
