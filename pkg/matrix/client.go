// Copyright 2024-2026 Aiku AI

// Package matrix connects yarrbot to its homeserver: the client wrapper,
// the event dispatch workers, command handling, and invite handling.
package matrix

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
)

// Client wraps the homeserver connection with the handful of operations
// the bot needs.
type Client struct {
	mx  *mautrix.Client
	log zerolog.Logger
}

// Connect logs into the homeserver with the bot account's credentials.
func Connect(ctx context.Context, homeserverURL, username, password string, log zerolog.Logger) (*Client, error) {
	mx, err := mautrix.NewClient(homeserverURL, "", "")
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	mx.Log = log.With().Str("component", "mautrix").Logger()

	_, err = mx.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: username,
		},
		Password:                 password,
		InitialDeviceDisplayName: "yarrbot",
		StoreCredentials:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("matrix login: %w", err)
	}

	log.Info().Str("user_id", mx.UserID.String()).Msg("Logged into homeserver")
	return &Client{mx: mx, log: log.With().Str("component", "matrix_client").Logger()}, nil
}

// UserID returns the bot's own Matrix user ID.
func (c *Client) UserID() id.UserID {
	return c.mx.UserID
}

// OnEvent registers a handler for one event type. Must be called before
// Sync starts.
func (c *Client) OnEvent(eventType event.Type, handler mautrix.EventHandler) {
	c.mx.Syncer.(*mautrix.DefaultSyncer).OnEventType(eventType, handler)
}

// Sync runs the homeserver sync loop until ctx is canceled or the
// connection fails.
func (c *Client) Sync(ctx context.Context) error {
	return c.mx.SyncWithContext(ctx)
}

// SendNotice posts a message as an m.notice with an HTML alternative.
// Notices keep other bots from responding to yarrbot's own output.
func (c *Client) SendNotice(ctx context.Context, roomID id.RoomID, msg message.Data) error {
	content := &event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    msg.Plain,
	}
	if msg.HTML != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = msg.HTML
	}
	if _, err := c.mx.SendMessageEvent(ctx, roomID, event.EventMessage, content); err != nil {
		return fmt.Errorf("%w: send notice to %s: %v", errs.ErrProtocol, roomID, err)
	}
	return nil
}

// JoinRoom joins a room by ID or alias, routing through the bot's own
// homeserver.
func (c *Client) JoinRoom(ctx context.Context, roomIDOrAlias string) (id.RoomID, error) {
	resp, err := c.mx.JoinRoom(ctx, roomIDOrAlias, &mautrix.ReqJoinRoom{
		Via: []string{c.mx.UserID.Homeserver()},
	})
	if err != nil {
		return "", fmt.Errorf("%w: join room %s: %v", errs.ErrProtocol, roomIDOrAlias, err)
	}
	return resp.RoomID, nil
}

// JoinRoomByID accepts an invitation to the given room.
func (c *Client) JoinRoomByID(ctx context.Context, roomID id.RoomID) error {
	if _, err := c.mx.JoinRoomByID(ctx, roomID); err != nil {
		return fmt.Errorf("%w: join room %s: %v", errs.ErrProtocol, roomID, err)
	}
	return nil
}

// LeaveRoom leaves (or declines an invitation to) the given room.
func (c *Client) LeaveRoom(ctx context.Context, roomID id.RoomID) error {
	if _, err := c.mx.LeaveRoom(ctx, roomID); err != nil {
		return fmt.Errorf("%w: leave room %s: %v", errs.ErrProtocol, roomID, err)
	}
	return nil
}

// IsDirectChat reports whether the room holds exactly the bot and one
// other user. The m.direct account data flag is unreliable across
// clients, so member count is used instead.
func (c *Client) IsDirectChat(ctx context.Context, roomID id.RoomID) (bool, error) {
	resp, err := c.mx.JoinedMembers(ctx, roomID)
	if err != nil {
		return false, fmt.Errorf("%w: list members of %s: %v", errs.ErrTransient, roomID, err)
	}
	return len(resp.Joined) == 2, nil
}
