// Copyright 2024-2026 Aiku AI

// Package shortid converts UUIDs to and from "short IDs": the unpadded
// URL-safe base64 form of the 16 raw UUID bytes, 22 characters long.
// Short IDs appear in webhook URLs and chat command replies.
package shortid

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"

	"github.com/aiku/yarrbot/pkg/errs"
)

var encoding = base64.RawURLEncoding

// Encode returns the short ID for the given UUID.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Decode parses a short ID back into a UUID. Any input that is not the
// unpadded URL-safe base64 form of exactly 16 bytes fails with
// errs.ErrValidation.
func Decode(shortID string) (uuid.UUID, error) {
	raw, err := encoding.DecodeString(shortID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: malformed short ID %q", errs.ErrValidation, shortID)
	}
	if len(raw) != 16 {
		return uuid.Nil, fmt.Errorf("%w: short ID %q decodes to %d bytes, want 16", errs.ErrValidation, shortID, len(raw))
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return id, nil
}
