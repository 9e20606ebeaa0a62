package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SubmissionByID loads a submission by id.
func (s *Store) SubmissionByID(ctx context.Context, id int64) (*Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, queue_url, claimed_by, completed_by, removed_from_queue,
		        approved, create_time, complete_time
		 FROM submissions WHERE id = ?`, id)
	return scanSubmission(row)
}

func scanSubmission(row *sql.Row) (*Submission, error) {
	var (
		sub      Submission
		url      sql.NullString
		queueURL sql.NullString
		claimed  sql.NullInt64
		complete sql.NullInt64
		done     sql.NullTime
	)
	err := row.Scan(&sub.ID, &url, &queueURL, &claimed, &complete,
		&sub.RemovedFromQueue, &sub.Approved, &sub.CreateTime, &done)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	sub.URL = url.String
	sub.QueueURL = queueURL.String
	if claimed.Valid {
		sub.ClaimedBy = &claimed.Int64
	}
	if complete.Valid {
		sub.CompletedBy = &complete.Int64
	}
	if done.Valid {
		t := done.Time
		sub.CompleteTime = &t
	}
	return &sub, nil
}

// SetSubmissionRemoved sets the removed-from-queue flag and returns the
// updated submission. Removal clears the approval flag in the same
// statement: a submission cannot be both approved and removed. Setting the
// flag to its current value is a no-op that still succeeds.
func (s *Store) SetSubmissionRemoved(ctx context.Context, id int64, removed bool) (*Submission, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE submissions
		 SET removed_from_queue = ?,
		     approved = CASE WHEN ? THEN 0 ELSE approved END
		 WHERE id = ?`, removed, removed, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.SubmissionByID(ctx, id)
}

// CreateSubmission inserts a submission; zero-valued fields stay NULL.
func (s *Store) CreateSubmission(ctx context.Context, sub Submission) (*Submission, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO submissions (url, queue_url, claimed_by, completed_by, removed_from_queue, approved)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(sub.URL), nullString(sub.QueueURL), sub.ClaimedBy, sub.CompletedBy,
		sub.RemovedFromQueue, sub.Approved)
	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new submission id: %w", err)
	}
	return s.SubmissionByID(ctx, id)
}

// CreateTranscription inserts a transcription for a submission.
func (s *Store) CreateTranscription(ctx context.Context, tr Transcription) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcriptions (submission_id, author_id, original_id, text)
		 VALUES (?, ?, ?, ?)`,
		tr.SubmissionID, tr.AuthorID, tr.OriginalID, tr.Text)
	if err != nil {
		return fmt.Errorf("failed to create transcription: %w", err)
	}
	return nil
}

// CreateCheck inserts a transcription check with the given status.
func (s *Store) CreateCheck(ctx context.Context, transcriptionID int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcription_checks (transcription_id, status) VALUES (?, ?)`,
		transcriptionID, status)
	if err != nil {
		return fmt.Errorf("failed to create check: %w", err)
	}
	return nil
}

// TranscriptionsBySubmission lists the transcriptions attached to a
// submission, oldest first.
func (s *Store) TranscriptionsBySubmission(ctx context.Context, submissionID int64) ([]Transcription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, submission_id, author_id, original_id, text, create_time
		 FROM transcriptions WHERE submission_id = ? ORDER BY create_time`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	defer rows.Close()

	var result []Transcription
	for rows.Next() {
		var tr Transcription
		if err := rows.Scan(&tr.ID, &tr.SubmissionID, &tr.AuthorID, &tr.OriginalID, &tr.Text, &tr.CreateTime); err != nil {
			return nil, fmt.Errorf("failed to scan transcription: %w", err)
		}
		result = append(result, tr)
	}
	return result, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
