// Copyright 2024-2026 Aiku AI

// Package crypto holds the password primitives used for webhook
// credentials: bcrypt hashing and random password generation.
package crypto

import (
	cryptorand "crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/aiku/yarrbot/pkg/errs"
)

// DefaultPasswordLength is used when a webhook is created without an
// explicit password.
const DefaultPasswordLength = 15

// Generated passwords draw from the printable ASCII range '!' (0x21)
// through '~' (0x7E) inclusive.
const (
	passwordCharMin = 0x21
	passwordCharMax = 0x7e
)

// Hash returns the bcrypt hash of the given plaintext password.
func Hash(password string) ([]byte, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}

// Verify reports whether the plaintext password matches the stored hash.
// An unparseable hash counts as a mismatch.
func Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// GeneratePassword returns a random password of the given length. Pass 0
// for the default length. Every character lies in the printable ASCII
// range 0x21-0x7E.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	const span = passwordCharMax - passwordCharMin + 1
	// Rejection sampling keeps the distribution uniform: 256 is not a
	// multiple of 94, so plain modulo would bias the low characters.
	const limit = 256 - (256 % span)
	buf := make([]byte, length)
	raw := make([]byte, 1)
	for i := 0; i < length; {
		if _, err := cryptorand.Read(raw); err != nil {
			return "", fmt.Errorf("%w: reading random bytes: %v", errs.ErrTransient, err)
		}
		if raw[0] >= limit {
			continue
		}
		buf[i] = passwordCharMin + raw[0]%span
		i++
	}
	return string(buf), nil
}
