// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/yarrbot/pkg/message"
)

// commandPrefix is the first word of every message addressed to the bot.
// Matched case-insensitively.
const commandPrefix = "!yarrbot"

const sourceURL = "https://github.com/aiku/yarrbot"

type commandClient interface {
	UserID() id.UserID
	IsDirectChat(ctx context.Context, roomID id.RoomID) (bool, error)
	JoinRoom(ctx context.Context, roomIDOrAlias string) (id.RoomID, error)
}

type replySender interface {
	Enqueue(roomID string, msg message.Data) error
}

// CommandHandler parses "!yarrbot ..." messages and queues the replies.
type CommandHandler struct {
	client  commandClient
	store   commandStore
	replies replySender
	log     zerolog.Logger
}

// NewCommandHandler creates a CommandHandler.
func NewCommandHandler(client commandClient, store commandStore, replies replySender, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{
		client:  client,
		store:   store,
		replies: replies,
		log:     log.With().Str("component", "commands").Logger(),
	}
}

// HandleEvent inspects one room event and, if it is a command addressed
// to the bot, queues a reply into the send queue.
func (h *CommandHandler) HandleEvent(ctx context.Context, evt *event.Event) {
	if evt.Type != event.EventMessage || evt.Sender == h.client.UserID() {
		return
	}
	content := evt.Content.AsMessage()
	if content == nil || content.MsgType != event.MsgText {
		return
	}
	fields := strings.Fields(content.Body)
	if len(fields) == 0 || !strings.EqualFold(fields[0], commandPrefix) {
		return
	}

	h.log.Info().
		Str("sender", evt.Sender.String()).
		Str("room_id", evt.RoomID.String()).
		Msg("Received command")

	reply := h.execute(ctx, evt, fields[1:])
	if err := h.replies.Enqueue(string(evt.RoomID), reply); err != nil {
		h.log.Error().Err(err).Str("room_id", evt.RoomID.String()).Msg("Failed to queue command reply")
	}
}

func (h *CommandHandler) execute(ctx context.Context, evt *event.Event, args []string) message.Data {
	if len(args) == 0 {
		return message.FromText("Unrecognized command.")
	}
	switch strings.ToLower(args[0]) {
	case "ping":
		return message.FromText("pong")
	case "help":
		return helpMessage()
	case "sourcecode":
		return message.FromText("The source code for this bot is available at: " + sourceURL)
	case "webhook":
		return h.handleWebhook(ctx, evt, args[1:])
	default:
		return message.FromText("Unrecognized command.")
	}
}

func helpMessage() message.Data {
	var b message.Builder
	b.AddKeyValueCode("Check that Yarrbot is online", "!yarrbot ping")
	b.AddKeyValueCode("View this help message", "!yarrbot help")
	b.AddKeyValueCode("Get the sourcecode for Yarrbot", "!yarrbot sourcecode")
	b.AddKeyValueCode("Add a new webhook", "!yarrbot webhook add sonarr|radarr roomOrAliasId username [password]")
	b.AddKeyValueCode("List configured webhooks", "!yarrbot webhook list [all]")
	b.AddKeyValueCode("Remove a webhook", "!yarrbot webhook remove webhookId")
	return b.Message()
}
