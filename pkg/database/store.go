// Copyright 2024-2026 Aiku AI

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aiku/yarrbot/pkg/errs"
)

// Store provides record access for users, webhooks, and room bindings.
type Store struct {
	db *sql.DB
}

// NewStore wraps an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// wrapErr translates database/sql failures into the shared error classes:
// missing rows become ErrNotFound, everything else ErrTransient.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", errs.ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", errs.ErrTransient, op, err)
}

// GetUserByMatrixID looks up an administrator by Matrix user ID.
func (s *Store) GetUserByMatrixID(ctx context.Context, matrixID string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, matrix_id, user_role FROM users WHERE matrix_id = ?`, matrixID)
	var u User
	var id string
	if err := row.Scan(&id, &u.MatrixID, &u.Role); err != nil {
		return nil, wrapErr("get user", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: get user: corrupt id %q", errs.ErrTransient, id)
	}
	u.ID = parsed
	return &u, nil
}

// CreateUser inserts a new administrator record.
func (s *Store) CreateUser(ctx context.Context, matrixID string, role UserRole) (*User, error) {
	u := &User{ID: uuid.New(), MatrixID: matrixID, Role: role}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, matrix_id, user_role) VALUES (?, ?, ?)`,
		u.ID.String(), u.MatrixID, string(u.Role))
	if err != nil {
		return nil, wrapErr("create user", err)
	}
	return u, nil
}

// HasUsers reports whether any administrator exists. Used by the
// first-run bootstrap.
func (s *Store) HasUsers(ctx context.Context) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users)`)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, wrapErr("count users", err)
	}
	return exists, nil
}
