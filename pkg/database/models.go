// Copyright 2024-2026 Aiku AI

package database

import "github.com/google/uuid"

// UserRole is the privilege level of a bot administrator. Users that only
// receive relayed messages need no record at all.
type UserRole string

const (
	// RoleSystemAdmin may manage any webhook and other administrators.
	RoleSystemAdmin UserRole = "system_administrator"
	// RoleAdmin may manage webhooks they own.
	RoleAdmin UserRole = "administrator"
)

// ArrType tags which media manager a webhook belongs to.
type ArrType string

const (
	ArrSonarr ArrType = "sonarr"
	ArrRadarr ArrType = "radarr"
)

// ParseArrType parses the user-facing source type names.
func ParseArrType(s string) (ArrType, bool) {
	switch s {
	case "sonarr":
		return ArrSonarr, true
	case "radarr":
		return ArrRadarr, true
	default:
		return "", false
	}
}

// User is an administrator identified by their Matrix user ID.
type User struct {
	ID       uuid.UUID
	MatrixID string
	Role     UserRole
}

// IsSystemAdmin reports whether the user holds the system administrator role.
func (u *User) IsSystemAdmin() bool {
	return u.Role == RoleSystemAdmin
}

// Webhook is a configured inbound endpoint. The plaintext password is
// never stored; only its bcrypt hash is retained.
type Webhook struct {
	ID           uuid.UUID
	ArrType      ArrType
	Username     string
	PasswordHash []byte
	UserID       uuid.UUID
}

// RoomBinding associates a webhook with one Matrix room that receives its
// events.
type RoomBinding struct {
	ID        uuid.UUID
	RoomID    string
	WebhookID uuid.UUID
}
