// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/yarrbot/pkg/database"
	"github.com/aiku/yarrbot/pkg/errs"
)

// joinAttempts bounds the retries when accepting an invitation. Synapse
// can deliver an invite before it's ready for the join, so the first
// attempts are expected to fail sometimes.
const joinAttempts = 5

type inviteClient interface {
	UserID() id.UserID
	JoinRoomByID(ctx context.Context, roomID id.RoomID) error
	LeaveRoom(ctx context.Context, roomID id.RoomID) error
}

type userGetter interface {
	GetUserByMatrixID(ctx context.Context, matrixID string) (*database.User, error)
}

// InviteHandler accepts room invitations from known administrators and
// declines everyone else's.
type InviteHandler struct {
	client inviteClient
	store  userGetter
	log    zerolog.Logger

	// Injection points for tests.
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewInviteHandler creates an InviteHandler.
func NewInviteHandler(client inviteClient, store userGetter, log zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		client: client,
		store:  store,
		log:    log.With().Str("component", "invites").Logger(),
		sleep:  time.Sleep,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(1001)) * time.Millisecond
		},
	}
}

// HandleEvent inspects one room event and, if it invites the bot, joins
// or declines the room.
func (h *InviteHandler) HandleEvent(ctx context.Context, evt *event.Event) {
	if evt.Type != event.StateMember {
		return
	}
	// Membership changes for other users arrive through the same event
	// type; only the bot's own invite matters here.
	if key := evt.GetStateKey(); key != string(h.client.UserID()) {
		return
	}
	content := evt.Content.AsMember()
	if content == nil || content.Membership != event.MembershipInvite {
		return
	}

	inviter := evt.Sender.String()
	roomID := evt.RoomID

	_, err := h.store.GetUserByMatrixID(ctx, inviter)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			h.log.Error().Err(err).Str("sender", inviter).Msg("Failed to look up inviting user")
			return
		}
		if declineErr := h.client.LeaveRoom(ctx, roomID); declineErr != nil {
			h.log.Error().Err(declineErr).
				Str("sender", inviter).
				Str("room_id", roomID.String()).
				Msg("Failed to decline room invitation")
			return
		}
		h.log.Warn().
			Str("sender", inviter).
			Str("room_id", roomID.String()).
			Msg("Declined room invitation from unauthorized user")
		return
	}

	h.join(ctx, roomID, inviter)
}

// join accepts the invitation, retrying with exponential backoff and
// jitter. Gives up after joinAttempts tries.
func (h *InviteHandler) join(ctx context.Context, roomID id.RoomID, inviter string) {
	var lastErr error
	for i := 0; i < joinAttempts; i++ {
		err := h.client.JoinRoomByID(ctx, roomID)
		if err == nil {
			h.log.Info().
				Str("room_id", roomID.String()).
				Str("sender", inviter).
				Msg("Joined room after invitation")
			return
		}
		lastErr = err
		delay := time.Duration(1<<i)*100*time.Millisecond + h.jitter()
		h.log.Debug().Err(err).
			Str("room_id", roomID.String()).
			Dur("delay", delay).
			Msg("Failed to join room, delaying before retry")
		h.sleep(delay)
	}
	h.log.Error().Err(lastErr).
		Str("room_id", roomID.String()).
		Int("attempts", joinAttempts).
		Msg("Giving up on joining room")
}
