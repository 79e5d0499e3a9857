package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mvidal/replydraft/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// LoadToken returns the stored OAuth token record, or nil when no token
// has been persisted yet.
func (s *SQLiteStore) LoadToken(ctx context.Context) (*model.Token, error) {
	var t model.Token
	err := s.db.GetContext(ctx, &t,
		"SELECT * FROM oauth_tokens ORDER BY id DESC LIMIT 1",
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}
	return &t, nil
}

// ReplaceToken deletes any existing token rows and inserts the given one in
// a single transaction. The token table holds at most one row.
func (s *SQLiteStore) ReplaceToken(ctx context.Context, t model.Token) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM oauth_tokens"); err != nil {
		return fmt.Errorf("clearing token table: %w", err)
	}

	const query = `
		INSERT INTO oauth_tokens (
			access_token, refresh_token, token_type,
			api_domain, account_id, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, query,
		t.AccessToken, t.RefreshToken, t.TokenType,
		t.APIDomain, t.AccountID, t.ExpiresAt.UTC(), now, now,
	)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	return tx.Commit()
}

// UpdateAccountID persists the resolved account id onto the stored token
// record. A no-op when no token row exists.
func (s *SQLiteStore) UpdateAccountID(ctx context.Context, accountID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE oauth_tokens SET account_id = ?, updated_at = ?",
		accountID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("updating account id: %w", err)
	}
	return nil
}

// IsProcessed reports whether a draft was already created for the message.
func (s *SQLiteStore) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM processed_messages WHERE message_id = ?",
		messageID,
	)
	if err != nil {
		return false, fmt.Errorf("checking processed message %s: %w", messageID, err)
	}
	return count > 0, nil
}

// MarkProcessed records the message id. Inserting an id that is already
// present is not an error; the unique index keeps the set deduplicated.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, messageID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO processed_messages (message_id, created_at) VALUES (?, ?)",
		messageID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("marking message %s processed: %w", messageID, err)
	}
	return nil
}
