// Copyright 2024-2026 Aiku AI

package database

import (
	"context"

	"github.com/google/uuid"
)

// CreateRoomBinding associates a webhook with a Matrix room.
func (s *Store) CreateRoomBinding(ctx context.Context, roomID string, webhookID uuid.UUID) (*RoomBinding, error) {
	b := &RoomBinding{ID: uuid.New(), RoomID: roomID, WebhookID: webhookID}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO matrix_rooms (id, room_id, webhook_id) VALUES (?, ?, ?)`,
		b.ID.String(), b.RoomID, b.WebhookID.String())
	if err != nil {
		return nil, wrapErr("create room binding", err)
	}
	return b, nil
}

// ListRoomsByWebhook returns the room IDs bound to a webhook.
func (s *Store) ListRoomsByWebhook(ctx context.Context, webhookID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id FROM matrix_rooms WHERE webhook_id = ?`, webhookID.String())
	if err != nil {
		return nil, wrapErr("list rooms", err)
	}
	defer rows.Close()
	var roomIDs []string
	for rows.Next() {
		var roomID string
		if err := rows.Scan(&roomID); err != nil {
			return nil, wrapErr("scan room", err)
		}
		roomIDs = append(roomIDs, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate rooms", err)
	}
	return roomIDs, nil
}

// ListAllRooms returns every distinct bound room ID. Used at startup to
// re-join rooms the bot should already be in.
func (s *Store) ListAllRooms(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT room_id FROM matrix_rooms`)
	if err != nil {
		return nil, wrapErr("list all rooms", err)
	}
	defer rows.Close()
	var roomIDs []string
	for rows.Next() {
		var roomID string
		if err := rows.Scan(&roomID); err != nil {
			return nil, wrapErr("scan room", err)
		}
		roomIDs = append(roomIDs, roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate rooms", err)
	}
	return roomIDs, nil
}
