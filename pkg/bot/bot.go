// Copyright 2024-2026 Aiku AI

package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"

	"github.com/aiku/yarrbot/pkg/database"
	"github.com/aiku/yarrbot/pkg/matrix"
	"github.com/aiku/yarrbot/pkg/webhook"
)

// shutdownTimeout bounds how long shutdown waits for the workers to
// finish and the queued messages to flush.
const shutdownTimeout = 10 * time.Second

// Run wires up the bot and blocks until ctx is canceled or a component
// fails to start.
func Run(ctx context.Context, cfg *Config, log zerolog.Logger) error {
	db, err := database.Open(cfg.DatabasePath, cfg.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	store := database.NewStore(db)

	client, err := matrix.Connect(ctx, cfg.HomeserverURL, cfg.Username, cfg.Password, log)
	if err != nil {
		return err
	}

	if err := bootstrap(ctx, store, string(client.UserID()), log); err != nil {
		return err
	}

	dispatcher := matrix.NewDispatcher(client, client, cfg.SendQueueSize, log)
	dispatcher.AddHandler(matrix.NewCommandHandler(client, store, dispatcher, log))
	dispatcher.AddHandler(matrix.NewInviteHandler(client, store, log))
	client.OnEvent(event.EventMessage, dispatcher.Deliver)
	client.OnEvent(event.StateMember, dispatcher.Deliver)

	rejoinRooms(ctx, client, store, log)

	handler := webhook.NewHandler(
		webhook.NewAuthenticator(store, log),
		webhook.NewTransformer(cfg.ServerName, log),
		store,
		dispatcher,
		log,
	)
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Router(),
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Webhook ingress listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	dispatcher.Start(runCtx)
	log.Info().Msg("Yarrbot is running")

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Webhook ingress failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Webhook ingress did not shut down cleanly")
	}

	cancel()
	if !dispatcher.Stop(shutdownTimeout) {
		log.Warn().Msg("Timed out waiting for workers to finish, possible data loss")
	}
	return nil
}

// bootstrap creates the first system administrator on an empty database.
// The bot's own account gets the role so its operator can administer it
// from any Matrix client.
func bootstrap(ctx context.Context, store *database.Store, matrixID string, log zerolog.Logger) error {
	exists, err := store.HasUsers(ctx)
	if err != nil {
		return fmt.Errorf("check for existing users: %w", err)
	}
	if exists {
		return nil
	}
	user, err := store.CreateUser(ctx, matrixID, database.RoleSystemAdmin)
	if err != nil {
		return fmt.Errorf("create initial administrator: %w", err)
	}
	log.Info().Str("matrix_id", matrixID).Str("user_id", user.ID.String()).Msg("Created initial system administrator")
	return nil
}

// rejoinRooms joins every room with a stored webhook binding. The bot may
// have been removed or the homeserver may have forgotten the membership
// while it was offline; failures are logged and skipped so one bad room
// can't block startup.
func rejoinRooms(ctx context.Context, client *matrix.Client, store *database.Store, log zerolog.Logger) {
	roomIDs, err := store.ListAllRooms(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list bound rooms, skipping re-join")
		return
	}
	for _, roomID := range roomIDs {
		if _, err := client.JoinRoom(ctx, roomID); err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("Failed to re-join bound room")
		}
	}
	if len(roomIDs) > 0 {
		log.Info().Int("rooms", len(roomIDs)).Msg("Re-joined bound rooms")
	}
}
