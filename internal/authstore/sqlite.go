// ABOUTME: SQLite implementation of the delegated-credential store using modernc.org/sqlite
// ABOUTME: WAL mode, automatic schema creation, upsert keyed on (user_id, connection_id, provider_class)

package authstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store at the given path. The schema is
// created if it doesn't exist; parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "authstore")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("auth store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS delegated_tokens (
			user_id INTEGER NOT NULL,
			connection_id TEXT NOT NULL,
			provider_class TEXT NOT NULL,
			access_token TEXT NOT NULL,
			token_type TEXT NOT NULL DEFAULT 'Bearer',
			expires_at DATETIME,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, connection_id, provider_class)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Put upserts the token for (UserID, ConnectionID, ProviderClass).
func (s *SQLiteStore) Put(ctx context.Context, token *Token) error {
	if token.UpdatedAt.IsZero() {
		token.UpdatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO delegated_tokens (user_id, connection_id, provider_class, access_token, token_type, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, connection_id, provider_class) DO UPDATE SET
			access_token = excluded.access_token,
			token_type = excluded.token_type,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`
	var expires any
	if !token.ExpiresAt.IsZero() {
		expires = token.ExpiresAt.UTC()
	}
	_, err := s.db.ExecContext(ctx, query,
		token.UserID, token.ConnectionID, token.ProviderClass, token.AccessToken, token.TokenType, expires, token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("storing delegated token: %w", err)
	}
	return nil
}

// Get returns the stored token or ErrNoToken.
func (s *SQLiteStore) Get(ctx context.Context, userID int64, connectionID, providerClass string) (*Token, error) {
	query := `
		SELECT user_id, connection_id, provider_class, access_token, token_type, expires_at, updated_at
		FROM delegated_tokens
		WHERE user_id = ? AND connection_id = ? AND provider_class = ?
	`
	var (
		token   Token
		expires sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, userID, connectionID, providerClass).Scan(
		&token.UserID, &token.ConnectionID, &token.ProviderClass, &token.AccessToken, &token.TokenType,
		&expires, &token.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("loading delegated token: %w", err)
	}
	if expires.Valid {
		token.ExpiresAt = expires.Time
	}
	return &token, nil
}

// Delete removes the token if present.
func (s *SQLiteStore) Delete(ctx context.Context, userID int64, connectionID, providerClass string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM delegated_tokens WHERE user_id = ? AND connection_id = ? AND provider_class = ?`,
		userID, connectionID, providerClass)
	if err != nil {
		return fmt.Errorf("deleting delegated token: %w", err)
	}
	return nil
}

// Authorization loads the token and renders the Authorization header
// value, refusing tokens past their effective expiry. Satisfies the
// registry's TokenSource.
func (s *SQLiteStore) Authorization(ctx context.Context, userID int64, connectionID, providerClass string) (string, error) {
	token, err := s.Get(ctx, userID, connectionID, providerClass)
	if err != nil {
		return "", err
	}
	if token.Expired(time.Now()) {
		return "", ErrTokenExpired
	}
	return token.Authorization(), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
