// Copyright 2024-2026 Aiku AI

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/aiku/yarrbot/pkg/errs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(":memory:", 1)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestCreateAndGetUser(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateUser(ctx, "@admin:example.org", RoleSystemAdmin)
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	got, err := store.GetUserByMatrixID(ctx, "@admin:example.org")
	if err != nil {
		t.Fatalf("GetUserByMatrixID returned error: %v", err)
	}
	if got.ID != created.ID || got.Role != RoleSystemAdmin {
		t.Errorf("got %+v, want id %s role %s", got, created.ID, RoleSystemAdmin)
	}
	if !got.IsSystemAdmin() {
		t.Error("IsSystemAdmin returned false for a system administrator")
	}
}

func TestGetUserNotFound(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	_, err := store.GetUserByMatrixID(context.Background(), "@ghost:example.org")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("GetUserByMatrixID: error %v is not ErrNotFound", err)
	}
}

func TestHasUsers(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	exists, err := store.HasUsers(ctx)
	if err != nil {
		t.Fatalf("HasUsers returned error: %v", err)
	}
	if exists {
		t.Error("HasUsers reported users in an empty database")
	}
	if _, err := store.CreateUser(ctx, "@admin:example.org", RoleAdmin); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	exists, err = store.HasUsers(ctx)
	if err != nil {
		t.Fatalf("HasUsers returned error: %v", err)
	}
	if !exists {
		t.Error("HasUsers reported no users after CreateUser")
	}
}

func TestWebhookLifecycle(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	owner, err := store.CreateUser(ctx, "@admin:example.org", RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	created, err := store.CreateWebhook(ctx, ArrSonarr, "sonarr-user", []byte("hash"), owner)
	if err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}

	got, err := store.GetWebhook(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetWebhook returned error: %v", err)
	}
	if got.ArrType != ArrSonarr || got.Username != "sonarr-user" || got.UserID != owner.ID {
		t.Errorf("GetWebhook: got %+v", got)
	}
	if string(got.PasswordHash) != "hash" {
		t.Errorf("GetWebhook: password hash %q", got.PasswordHash)
	}

	mine, err := store.ListWebhooksByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListWebhooksByUser returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Errorf("ListWebhooksByUser: got %d webhooks", len(mine))
	}

	if err := store.DeleteWebhook(ctx, created.ID); err != nil {
		t.Fatalf("DeleteWebhook returned error: %v", err)
	}
	if _, err := store.GetWebhook(ctx, created.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("GetWebhook after delete: error %v is not ErrNotFound", err)
	}
}

func TestDeleteWebhookCascadesBindings(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, "@admin:example.org", RoleAdmin)
	webhook, err := store.CreateWebhook(ctx, ArrRadarr, "radarr-user", []byte("hash"), owner)
	if err != nil {
		t.Fatalf("CreateWebhook returned error: %v", err)
	}
	if _, err := store.CreateRoomBinding(ctx, "!movies:example.org", webhook.ID); err != nil {
		t.Fatalf("CreateRoomBinding returned error: %v", err)
	}
	if _, err := store.CreateRoomBinding(ctx, "!alerts:example.org", webhook.ID); err != nil {
		t.Fatalf("CreateRoomBinding returned error: %v", err)
	}

	rooms, err := store.ListRoomsByWebhook(ctx, webhook.ID)
	if err != nil {
		t.Fatalf("ListRoomsByWebhook returned error: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("ListRoomsByWebhook: got %d rooms, want 2", len(rooms))
	}

	if err := store.DeleteWebhook(ctx, webhook.ID); err != nil {
		t.Fatalf("DeleteWebhook returned error: %v", err)
	}
	rooms, err = store.ListRoomsByWebhook(ctx, webhook.ID)
	if err != nil {
		t.Fatalf("ListRoomsByWebhook returned error: %v", err)
	}
	if len(rooms) != 0 {
		t.Errorf("bindings survived webhook deletion: %v", rooms)
	}
}

func TestListAllRoomsDeduplicates(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, "@admin:example.org", RoleAdmin)
	first, _ := store.CreateWebhook(ctx, ArrSonarr, "a", []byte("h"), owner)
	second, _ := store.CreateWebhook(ctx, ArrRadarr, "b", []byte("h"), owner)
	store.CreateRoomBinding(ctx, "!shared:example.org", first.ID)
	store.CreateRoomBinding(ctx, "!shared:example.org", second.ID)
	store.CreateRoomBinding(ctx, "!solo:example.org", second.ID)

	rooms, err := store.ListAllRooms(ctx)
	if err != nil {
		t.Fatalf("ListAllRooms returned error: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("ListAllRooms: got %v, want two distinct rooms", rooms)
	}
}

func TestListAllWebhooksSeesOtherOwners(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	alice, _ := store.CreateUser(ctx, "@alice:example.org", RoleAdmin)
	bob, _ := store.CreateUser(ctx, "@bob:example.org", RoleAdmin)
	store.CreateWebhook(ctx, ArrSonarr, "a", []byte("h"), alice)
	store.CreateWebhook(ctx, ArrRadarr, "b", []byte("h"), bob)

	all, err := store.ListAllWebhooks(ctx)
	if err != nil {
		t.Fatalf("ListAllWebhooks returned error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListAllWebhooks: got %d, want 2", len(all))
	}
	mine, err := store.ListWebhooksByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListWebhooksByUser returned error: %v", err)
	}
	if len(mine) != 1 {
		t.Errorf("ListWebhooksByUser: got %d, want 1", len(mine))
	}
}

func TestGetWebhookUnknownID(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	_, err := store.GetWebhook(context.Background(), uuid.New())
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("GetWebhook: error %v is not ErrNotFound", err)
	}
}

