// Copyright 2024-2026 Aiku AI

// Package errs defines the error classes shared across the bot. Callers
// classify failures with errors.Is and wrap with fmt.Errorf("...: %w", err)
// so the original cause stays attached.
package errs

import "errors"

var (
	// ErrAuthentication indicates bad or missing credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization indicates a role or ownership violation.
	ErrAuthorization = errors.New("not authorized")
	// ErrNotFound indicates an unknown webhook, user, room, or short ID.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input or an unrecognized event shape.
	ErrValidation = errors.New("validation failed")
	// ErrTransient indicates the datastore or homeserver was unreachable.
	// It is retried only on the invite-accept path.
	ErrTransient = errors.New("transient infrastructure failure")
	// ErrProtocol indicates the homeserver rejected an operation.
	ErrProtocol = errors.New("protocol error")
)
