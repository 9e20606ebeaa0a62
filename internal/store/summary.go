package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// GenerateSummary builds the server-wide statistics report shown by the
// bare `info` command.
func (s *Store) GenerateSummary(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE is_bot = 0`).Scan(&summary.Volunteers)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count volunteers: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transcriptions`).Scan(&summary.Transcriptions)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count transcriptions: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed_by IS NOT NULL THEN 1 ELSE 0 END), 0)
		 FROM submissions`).Scan(&summary.Submissions, &summary.Completed)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to count submissions: %w", err)
	}

	var first sql.NullTime
	err = s.db.QueryRowContext(ctx,
		`SELECT MIN(create_time) FROM submissions`).Scan(&first)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load first submission time: %w", err)
	}
	if first.Valid {
		summary.DaysSinceStart = int(now.Sub(first.Time).Hours() / 24)
	}

	return summary, nil
}
