package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"miso/internal/platform/authctx"
	"miso/internal/platform/clock"
	apperrors "miso/internal/platform/errors"
)

// SQLiteUserStore keeps the single signed-in user in a one-row table.
type SQLiteUserStore struct {
	db    *sql.DB
	clock clock.Clock
}

func NewSQLiteUserStore(ctx context.Context, db *sql.DB, clk clock.Clock) (authctx.Store, error) {
	store := &SQLiteUserStore{db: db, clock: clk}
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteUserStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS signed_in_user (
  slot INTEGER PRIMARY KEY CHECK (slot = 1),
  id TEXT NOT NULL,
  email TEXT NOT NULL,
  username TEXT NOT NULL,
  signed_in_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create signed_in_user table: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) Load(ctx context.Context) (authctx.User, error) {
	user := authctx.User{}
	err := s.db.QueryRowContext(ctx, `SELECT id, email, username FROM signed_in_user WHERE slot = 1`).
		Scan(&user.ID, &user.Email, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return authctx.User{}, apperrors.ErrNotSignedIn
	}
	if err != nil {
		return authctx.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *SQLiteUserStore) Save(ctx context.Context, user authctx.User) error {
	const stmt = `
INSERT INTO signed_in_user (slot, id, email, username, signed_in_at)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
  id=excluded.id,
  email=excluded.email,
  username=excluded.username,
  signed_in_at=excluded.signed_in_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, user.ID, user.Email, user.Username, s.clock.Now().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM signed_in_user`); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}
