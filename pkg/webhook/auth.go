// Copyright 2024-2026 Aiku AI

package webhook

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aiku/yarrbot/pkg/crypto"
	"github.com/aiku/yarrbot/pkg/database"
	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/shortid"
)

// WebhookGetter is the slice of the datastore the authenticator needs.
type WebhookGetter interface {
	GetWebhook(ctx context.Context, id uuid.UUID) (*database.Webhook, error)
}

// Authenticator resolves and authorizes inbound webhook calls. Read-only;
// it never mutates any record.
type Authenticator struct {
	store WebhookGetter
	log   zerolog.Logger
}

// NewAuthenticator creates an Authenticator over the given store.
func NewAuthenticator(store WebhookGetter, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		store: store,
		log:   log.With().Str("component", "webhook_auth").Logger(),
	}
}

// basicAuth is the decoded username and password from an Authorization
// header.
type basicAuth struct {
	user     string
	password string
}

// parseBasicAuth decodes a "Basic <base64(user:pass)>" header value.
// Returns false for anything else.
func parseBasicAuth(header string) (basicAuth, bool) {
	scheme, payload, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "basic") {
		return basicAuth{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return basicAuth{}, false
	}
	user, password, found := strings.Cut(string(raw), ":")
	if !found {
		return basicAuth{}, false
	}
	return basicAuth{user: user, password: password}, true
}

// Authenticate resolves the short ID to a webhook and verifies the Basic
// credentials against it. Failure classes:
//   - malformed or absent header, or hash mismatch: errs.ErrAuthentication
//   - malformed short ID or no matching record: errs.ErrNotFound
//   - datastore failure: errs.ErrTransient
func (a *Authenticator) Authenticate(ctx context.Context, shortID, authHeader string) (*database.Webhook, error) {
	auth, ok := parseBasicAuth(authHeader)
	if !ok {
		return nil, fmt.Errorf("%w: missing or malformed Authorization header", errs.ErrAuthentication)
	}

	id, err := shortid.Decode(shortID)
	if err != nil {
		// A bad short ID is indistinguishable from an unknown webhook to
		// the caller.
		return nil, fmt.Errorf("%w: webhook %q", errs.ErrNotFound, shortID)
	}

	webhook, err := a.store.GetWebhook(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: webhook %q", errs.ErrNotFound, shortID)
		}
		a.log.Error().Err(err).Str("webhook_id", shortID).Msg("Failed to look up webhook")
		return nil, err
	}

	if webhook.Username != auth.user || !crypto.Verify(auth.password, webhook.PasswordHash) {
		a.log.Debug().Str("webhook_id", shortID).Msg("Webhook credentials rejected")
		return nil, fmt.Errorf("%w: webhook %q", errs.ErrAuthentication, shortID)
	}

	a.log.Info().Str("webhook_id", shortID).Str("webhook_uuid", webhook.ID.String()).Msg("Webhook request authorized")
	return webhook, nil
}
