// Copyright 2024-2026 Aiku AI

package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// CreateWebhook inserts a new webhook owned by the given user and returns
// the stored record.
func (s *Store) CreateWebhook(ctx context.Context, arrType ArrType, username string, passwordHash []byte, owner *User) (*Webhook, error) {
	w := &Webhook{
		ID:           uuid.New(),
		ArrType:      arrType,
		Username:     username,
		PasswordHash: passwordHash,
		UserID:       owner.ID,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhooks (id, arr_type, username, password_hash, user_id) VALUES (?, ?, ?, ?, ?)`,
		w.ID.String(), string(w.ArrType), w.Username, w.PasswordHash, w.UserID.String())
	if err != nil {
		return nil, wrapErr("create webhook", err)
	}
	return w, nil
}

// GetWebhook looks up a webhook by its UUID.
func (s *Store) GetWebhook(ctx context.Context, id uuid.UUID) (*Webhook, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, arr_type, username, password_hash, user_id FROM webhooks WHERE id = ?`,
		id.String())
	var w Webhook
	var rawID, rawUserID string
	if err := row.Scan(&rawID, &w.ArrType, &w.Username, &w.PasswordHash, &rawUserID); err != nil {
		return nil, wrapErr("get webhook", err)
	}
	w.ID, _ = uuid.Parse(rawID)
	w.UserID, _ = uuid.Parse(rawUserID)
	return &w, nil
}

// DeleteWebhook removes a webhook. Its room bindings cascade.
func (s *Store) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id.String()); err != nil {
		return wrapErr("delete webhook", err)
	}
	return nil
}

// ListWebhooksByUser returns the webhooks owned by the given user.
func (s *Store) ListWebhooksByUser(ctx context.Context, userID uuid.UUID) ([]*Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, arr_type, username, password_hash, user_id FROM webhooks WHERE user_id = ? ORDER BY id`,
		userID.String())
	if err != nil {
		return nil, wrapErr("list webhooks", err)
	}
	defer rows.Close()
	return scanWebhooks(rows)
}

// ListAllWebhooks returns every webhook in the system. Only offered to
// system administrators by the command layer.
func (s *Store) ListAllWebhooks(ctx context.Context) ([]*Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, arr_type, username, password_hash, user_id FROM webhooks ORDER BY id`)
	if err != nil {
		return nil, wrapErr("list all webhooks", err)
	}
	defer rows.Close()
	return scanWebhooks(rows)
}

func scanWebhooks(rows *sql.Rows) ([]*Webhook, error) {
	var webhooks []*Webhook
	for rows.Next() {
		var w Webhook
		var rawID, rawUserID string
		if err := rows.Scan(&rawID, &w.ArrType, &w.Username, &w.PasswordHash, &rawUserID); err != nil {
			return nil, wrapErr("scan webhook", err)
		}
		w.ID, _ = uuid.Parse(rawID)
		w.UserID, _ = uuid.Parse(rawUserID)
		webhooks = append(webhooks, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate webhooks", err)
	}
	return webhooks, nil
}
