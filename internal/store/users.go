package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UserByUsername finds a volunteer by case-insensitive exact username match.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, blacklisted, accepted_coc, is_bot, date_joined
		 FROM users WHERE username = ? COLLATE NOCASE`, username)
	return scanUser(row)
}

// UserByID finds a volunteer by internal id.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, blacklisted, accepted_coc, is_bot, date_joined
		 FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Blacklisted, &u.AcceptedCoC, &u.IsBot, &u.DateJoined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// CreateUser creates a volunteer with the given username. Usernames are
// unique; a duplicate returns an error from the unique constraint.
func (s *Store) CreateUser(ctx context.Context, username string) (*User, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (username) VALUES (?)`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user id: %w", err)
	}
	return s.UserByID(ctx, id)
}

// UserExists reports whether a volunteer with the username exists
// (case-insensitive).
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE`, username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return n > 0, nil
}

// ToggleBlacklisted flips the blacklist flag in a single statement and
// returns the new value.
func (s *Store) ToggleBlacklisted(ctx context.Context, userID int64) (bool, error) {
	return s.toggleFlag(ctx, "blacklisted", userID)
}

// ToggleAcceptedCoC flips the Code of Conduct acceptance flag in a single
// statement and returns the new value.
func (s *Store) ToggleAcceptedCoC(ctx context.Context, userID int64) (bool, error) {
	return s.toggleFlag(ctx, "accepted_coc", userID)
}

func (s *Store) toggleFlag(ctx context.Context, column string, userID int64) (bool, error) {
	// column is always one of our own identifiers, never user input.
	var value bool
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = 1 - %s WHERE id = ? RETURNING %s`, column, column, column),
		userID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", column, err)
	}
	return value, nil
}

// AcceptCoC marks the volunteer as having accepted the Code of Conduct.
// It reports whether the flag actually changed.
func (s *Store) AcceptCoC(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET accepted_coc = 1 WHERE id = ? AND accepted_coc = 0`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to accept code of conduct: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Gamma counts the volunteer's completed transcriptions.
func (s *Store) Gamma(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcriptions WHERE author_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count transcriptions: %w", err)
	}
	return n, nil
}

// GammaSince counts the volunteer's transcriptions created at or after the
// given time.
func (s *Store) GammaSince(ctx context.Context, userID int64, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcriptions WHERE author_id = ? AND create_time >= ?`,
		userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent transcriptions: %w", err)
	}
	return n, nil
}

// LastActive returns the creation time of the volunteer's most recent
// transcription, or nil if they have none.
func (s *Store) LastActive(ctx context.Context, userID int64) (*time.Time, error) {
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(create_time) FROM transcriptions WHERE author_id = ?`, userID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to load last activity: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

// CountChecks aggregates the review history for the volunteer's
// transcriptions: total checks, comment-category checks and
// warning-category checks.
func (s *Store) CountChecks(ctx context.Context, userID int64) (CheckCounts, error) {
	var counts CheckCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN c.status IN (?, ?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN c.status IN (?, ?, ?) THEN 1 ELSE 0 END), 0)
		 FROM transcription_checks c
		 JOIN transcriptions t ON t.id = c.transcription_id
		 WHERE t.author_id = ?`,
		CheckCommentPending, CheckCommentResolved, CheckCommentUnfixed,
		CheckWarningPending, CheckWarningResolved, CheckWarningUnfixed,
		userID).Scan(&counts.Total, &counts.Comments, &counts.Warnings)
	if err != nil {
		return CheckCounts{}, fmt.Errorf("failed to count checks: %w", err)
	}
	return counts, nil
}

// WatchStatus computes the review status string for a volunteer. The
// low-activity exemption is intentionally not applied here: callers asked
// for the raw reason, so even barely-active volunteers get a real answer.
func (s *Store) WatchStatus(ctx context.Context, userID int64) (string, error) {
	gamma, err := s.Gamma(ctx, userID)
	if err != nil {
		return "", err
	}
	counts, err := s.CountChecks(ctx, userID)
	if err != nil {
		return "", err
	}

	switch {
	case gamma == 0:
		return "Automatic (no transcriptions yet)", nil
	case counts.Total == 0:
		return "Automatic (no checks yet)", nil
	}

	warningRate := float64(counts.Warnings) / float64(counts.Total)
	if warningRate >= 0.05 {
		return fmt.Sprintf("Watched (%.1f%% warning rate)", warningRate*100), nil
	}
	return "Automatic (everything looks good)", nil
}
