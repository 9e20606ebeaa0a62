package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides access to volunteer, submission and transcription records.
// All mutations are single SQL statements, so concurrent webhook requests
// never race a read-modify-write cycle.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (and migrates) the SQLite database at the given path. Use
// ":memory:" for tests.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With().Str("module", "store").Logger(),
	}

	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info().Str("path", path).Msg("Store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	username     TEXT    NOT NULL UNIQUE,
	blacklisted  INTEGER NOT NULL DEFAULT 0,
	accepted_coc INTEGER NOT NULL DEFAULT 0,
	is_bot       INTEGER NOT NULL DEFAULT 0,
	date_joined  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS submissions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	url                TEXT,
	queue_url          TEXT,
	claimed_by         INTEGER REFERENCES users(id),
	completed_by       INTEGER REFERENCES users(id),
	removed_from_queue INTEGER NOT NULL DEFAULT 0,
	approved           INTEGER NOT NULL DEFAULT 0,
	create_time        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	complete_time      TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transcriptions (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	submission_id INTEGER NOT NULL REFERENCES submissions(id),
	author_id     INTEGER NOT NULL REFERENCES users(id),
	original_id   TEXT    NOT NULL,
	text          TEXT    NOT NULL DEFAULT '',
	create_time   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transcription_checks (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	transcription_id INTEGER NOT NULL REFERENCES transcriptions(id),
	status           TEXT    NOT NULL DEFAULT 'pending',
	create_time      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transcriptions_author ON transcriptions(author_id);
CREATE INDEX IF NOT EXISTS idx_checks_transcription ON transcription_checks(transcription_id);
`
