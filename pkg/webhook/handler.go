// Copyright 2024-2026 Aiku AI

package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
)

// maxBodyBytes caps inbound webhook payloads. Sonarr and Radarr payloads
// are a few kilobytes at most.
const maxBodyBytes = 262144

// RoomLister is the slice of the datastore the handler needs to fan out
// a message.
type RoomLister interface {
	ListRoomsByWebhook(ctx context.Context, webhookID uuid.UUID) ([]string, error)
}

// MessageSender enqueues a rendered message for delivery to one room.
// Implementations must not block; a full queue is an error.
type MessageSender interface {
	Enqueue(roomID string, msg message.Data) error
}

// Handler serves the webhook ingress endpoint.
type Handler struct {
	auth        *Authenticator
	transformer *Transformer
	rooms       RoomLister
	sender      MessageSender
	log         zerolog.Logger
}

// NewHandler creates a Handler wired to the given collaborators.
func NewHandler(auth *Authenticator, transformer *Transformer, rooms RoomLister, sender MessageSender, log zerolog.Logger) *Handler {
	return &Handler{
		auth:        auth,
		transformer: transformer,
		rooms:       rooms,
		sender:      sender,
		log:         log.With().Str("component", "webhook_handler").Logger(),
	}
}

// Router returns the ingress routes. Sonarr and Radarr can be configured
// with either POST or PUT, so both are accepted.
func (h *Handler) Router() *httprouter.Router {
	router := httprouter.New()
	router.POST("/api/v1/webhook/:shortid", h.receive)
	router.PUT("/api/v1/webhook/:shortid", h.receive)
	return router
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	ctx := r.Context()
	shortID := params.ByName("shortid")

	webhook, err := h.auth.Authenticate(ctx, shortID, r.Header.Get("Authorization"))
	if err != nil {
		h.writeError(w, shortID, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.log.Error().Err(err).Str("webhook_id", shortID).Msg("Failed to read webhook body")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	msg, err := h.transformer.Transform(webhook.ArrType, body)
	if err != nil {
		h.writeError(w, shortID, err)
		return
	}

	roomIDs, err := h.rooms.ListRoomsByWebhook(ctx, webhook.ID)
	if err != nil {
		h.writeError(w, shortID, err)
		return
	}

	// Delivery failures past this point don't affect the response; the
	// caller has no way to act on them.
	for _, roomID := range roomIDs {
		if err := h.sender.Enqueue(roomID, msg); err != nil {
			h.log.Error().Err(err).
				Str("webhook_id", shortID).
				Str("room_id", roomID).
				Msg("Dropping webhook message")
		}
	}

	w.WriteHeader(http.StatusOK)
}

// writeError maps internal error classes to HTTP statuses without
// leaking internal detail into the body.
func (h *Handler) writeError(w http.ResponseWriter, shortID string, err error) {
	switch {
	case errors.Is(err, errs.ErrAuthentication):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errs.ErrValidation):
		http.Error(w, "bad request", http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Str("webhook_id", shortID).Msg("Webhook request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
