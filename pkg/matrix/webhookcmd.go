// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"maunium.net/go/mautrix/event"

	"github.com/aiku/yarrbot/pkg/crypto"
	"github.com/aiku/yarrbot/pkg/database"
	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
	"github.com/aiku/yarrbot/pkg/shortid"
)

// commandStore is the slice of the datastore the command layer needs.
type commandStore interface {
	GetUserByMatrixID(ctx context.Context, matrixID string) (*database.User, error)
	CreateWebhook(ctx context.Context, arrType database.ArrType, username string, passwordHash []byte, owner *database.User) (*database.Webhook, error)
	GetWebhook(ctx context.Context, id uuid.UUID) (*database.Webhook, error)
	DeleteWebhook(ctx context.Context, id uuid.UUID) error
	ListWebhooksByUser(ctx context.Context, userID uuid.UUID) ([]*database.Webhook, error)
	ListAllWebhooks(ctx context.Context) ([]*database.Webhook, error)
	CreateRoomBinding(ctx context.Context, roomID string, webhookID uuid.UUID) (*database.RoomBinding, error)
}

// handleWebhook routes "!yarrbot webhook ..." subcommands. These manage
// credentials, so they're only honored in a direct chat with the bot.
func (h *CommandHandler) handleWebhook(ctx context.Context, evt *event.Event, args []string) message.Data {
	if len(args) == 0 {
		return message.FromText("Not enough arguments.")
	}
	direct, err := h.client.IsDirectChat(ctx, evt.RoomID)
	if err != nil {
		h.log.Error().Err(err).Str("room_id", evt.RoomID.String()).Msg("Failed to count room members")
		return message.FromText("Yarrbot encountered an error communicating with the homeserver.")
	}
	if !direct {
		return message.FromText("Yarrbot will only respond to webhook commands in a private room.")
	}

	switch strings.ToLower(args[0]) {
	case "add":
		return h.webhookAdd(ctx, evt, args[1:])
	case "remove":
		return h.webhookRemove(ctx, evt, args[1:])
	case "list":
		return h.webhookList(ctx, evt, args[1:])
	default:
		return message.FromText(fmt.Sprintf("Unknown webhook command %q.", args[0]))
	}
}

// requireUser resolves the sender to an administrator record, returning a
// user-facing refusal or error message when it can't.
func (h *CommandHandler) requireUser(ctx context.Context, matrixID string) (*database.User, *message.Data) {
	user, err := h.store.GetUserByMatrixID(ctx, matrixID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			h.log.Warn().Str("sender", matrixID).Msg("Unauthorized user attempted to modify webhooks")
			refusal := message.FromText("You are not allowed to modify webhooks.")
			return nil, &refusal
		}
		h.log.Error().Err(err).Str("sender", matrixID).Msg("Failed to look up user")
		failure := message.FromText("Yarrbot encountered an error communicating with the database.")
		return nil, &failure
	}
	return user, nil
}

func (h *CommandHandler) webhookAdd(ctx context.Context, evt *event.Event, args []string) message.Data {
	user, reply := h.requireUser(ctx, evt.Sender.String())
	if reply != nil {
		return *reply
	}
	if len(args) < 3 {
		return message.FromText("Adding a new webhook requires collection manager type, room alias, a username, and optionally a password.")
	}

	arrType, ok := database.ParseArrType(strings.ToLower(args[0]))
	if !ok {
		return message.FromText(fmt.Sprintf("Unknown collection manager type %q.", args[0]))
	}

	rawRoom := args[1]
	roomID, err := h.client.JoinRoom(ctx, rawRoom)
	if err != nil {
		h.log.Error().Err(err).Str("room", rawRoom).Msg("Failed to join room for new webhook")
		return message.FromText("Encountered issue while attempting to join room. You may need to invite yarrbot to the room first.")
	}

	username := args[2]
	var password string
	if len(args) > 3 {
		password = args[3]
	} else {
		password, err = crypto.GeneratePassword(crypto.DefaultPasswordLength)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to generate webhook password")
			return message.FromText("Failed to create new webhook.")
		}
	}

	hash, err := crypto.Hash(password)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to hash webhook password")
		return message.FromText("Failed to create new webhook.")
	}
	webhook, err := h.store.CreateWebhook(ctx, arrType, username, hash, user)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create webhook")
		return message.FromText("Failed to create new webhook.")
	}
	if _, err := h.store.CreateRoomBinding(ctx, string(roomID), webhook.ID); err != nil {
		h.log.Error().Err(err).Str("webhook_id", webhook.ID.String()).Msg("Failed to bind room to webhook")
		return message.FromText("There was an issue completing the webhook; you may need to remove it and then recreate it.")
	}

	webhookID := shortid.Encode(webhook.ID)
	h.log.Info().Str("webhook_id", webhookID).Str("webhook_uuid", webhook.ID.String()).Msg("Webhook created")
	var b message.Builder
	b.AddLine(fmt.Sprintf("Set up a new webhook for %s.", rawRoom))
	b.AddKeyValueCode("ID", webhookID)
	b.AddKeyValueCode("Username", username)
	b.AddKeyValueCode("Password", password)
	return b.Message()
}

func (h *CommandHandler) webhookRemove(ctx context.Context, evt *event.Event, args []string) message.Data {
	user, reply := h.requireUser(ctx, evt.Sender.String())
	if reply != nil {
		return *reply
	}
	if len(args) == 0 {
		return message.FromText("No webhook specified.")
	}

	webhookID, err := shortid.Decode(args[0])
	if err != nil {
		return message.FromText("That webhook doesn't exist.")
	}
	webhook, err := h.store.GetWebhook(ctx, webhookID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return message.FromText("That webhook doesn't exist.")
		}
		h.log.Error().Err(err).Str("webhook_id", args[0]).Msg("Failed to look up webhook")
		return message.FromText("Error encountered while looking up the webhook.")
	}
	if webhook.UserID != user.ID && !user.IsSystemAdmin() {
		return message.FromText("You are not allowed to modify this webhook.")
	}

	if err := h.store.DeleteWebhook(ctx, webhook.ID); err != nil {
		h.log.Error().Err(err).Str("webhook_id", args[0]).Msg("Failed to delete webhook")
		return message.FromText("Failed to delete webhook. Please try again.")
	}
	h.log.Info().Str("webhook_id", args[0]).Msg("Webhook deleted")
	return message.FromText("Webhook removed.")
}

// webhookList lists the caller's webhooks; "list all" lists everyone's,
// for system administrators only.
func (h *CommandHandler) webhookList(ctx context.Context, evt *event.Event, args []string) message.Data {
	user, reply := h.requireUser(ctx, evt.Sender.String())
	if reply != nil {
		return *reply
	}

	var webhooks []*database.Webhook
	var err error
	if len(args) > 0 && strings.EqualFold(args[0], "all") && user.IsSystemAdmin() {
		webhooks, err = h.store.ListAllWebhooks(ctx)
	} else {
		webhooks, err = h.store.ListWebhooksByUser(ctx, user.ID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list webhooks")
		return message.FromText("Couldn't retrieve the list of webhooks, please try again later.")
	}

	ids := make([]string, len(webhooks))
	for i, w := range webhooks {
		ids[i] = shortid.Encode(w.ID)
	}
	return message.FromText("Webhooks: " + strings.Join(ids, " | "))
}
