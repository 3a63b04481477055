// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []sendTask
	err     error
	started chan struct{} // closed on first send when non-nil
	block   chan struct{} // sends wait on this when non-nil
}

func (r *recordingSender) SendNotice(_ context.Context, roomID id.RoomID, msg message.Data) error {
	r.mu.Lock()
	if r.started != nil {
		select {
		case <-r.started:
		default:
			close(r.started)
		}
	}
	block := r.block
	r.mu.Unlock()
	if block != nil {
		<-block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sendTask{roomID: roomID, msg: msg})
	return nil
}

func (r *recordingSender) messages() []sendTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sendTask(nil), r.sent...)
}

type blockingSyncer struct{}

func (blockingSyncer) Sync(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

type recordingHandler struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *recordingHandler) HandleEvent(_ context.Context, evt *event.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingHandler) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDispatcherDeliversQueuedMessages(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{}
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue("!room:example.com", message.FromText("hello")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	waitFor(t, func() bool { return len(sender.messages()) == 1 }, "message was never sent")

	got := sender.messages()[0]
	if got.roomID != "!room:example.com" || got.msg.Plain != "hello" {
		t.Errorf("sent %+v, want hello to !room:example.com", got)
	}

	cancel()
	if !d.Stop(2 * time.Second) {
		t.Error("Stop timed out")
	}
}

func TestEnqueueRefusesWhenQueueFull(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(&recordingSender{}, blockingSyncer{}, 1, zerolog.Nop())

	if err := d.Enqueue("!room:example.com", message.FromText("one")); err != nil {
		t.Fatalf("first Enqueue returned error: %v", err)
	}
	if err := d.Enqueue("!room:example.com", message.FromText("two")); !errors.Is(err, errs.ErrTransient) {
		t.Errorf("second Enqueue error = %v, want ErrTransient", err)
	}
}

func TestEnqueueRefusesAfterStop(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{}
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	if !d.Stop(2 * time.Second) {
		t.Fatal("Stop timed out")
	}

	if err := d.Enqueue("!room:example.com", message.FromText("late")); !errors.Is(err, errs.ErrTransient) {
		t.Errorf("Enqueue after Stop error = %v, want ErrTransient", err)
	}
}

func TestStopCompletesInFlightSend(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue("!room:example.com", message.FromText("in flight")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	<-sender.started

	stopped := make(chan bool)
	go func() {
		cancel()
		stopped <- d.Stop(2 * time.Second)
	}()
	close(sender.block)
	if !<-stopped {
		t.Fatal("Stop timed out waiting for the in-flight send")
	}
	if got := len(sender.messages()); got != 1 {
		t.Errorf("sent %d messages, want the in-flight one", got)
	}
}

func TestStopTimesOutOnStuckSend(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	defer close(sender.block)
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	if err := d.Enqueue("!room:example.com", message.FromText("stuck")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	<-sender.started

	cancel()
	if d.Stop(50 * time.Millisecond) {
		t.Error("Stop reported a clean shutdown with a send in flight")
	}
}

func TestDeliverDispatchesToHandlers(t *testing.T) {
	t.Parallel()
	handler := &recordingHandler{}
	d := NewDispatcher(&recordingSender{}, blockingSyncer{}, 8, zerolog.Nop())
	d.AddHandler(handler)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	evt := &event.Event{
		Type:      event.EventMessage,
		RoomID:    "!room:example.com",
		Timestamp: time.Now().UnixMilli(),
	}
	d.Deliver(context.Background(), evt)
	waitFor(t, func() bool { return handler.count() == 1 }, "event was never dispatched")

	cancel()
	d.Stop(2 * time.Second)
}

func TestDeliverDropsSyncBacklog(t *testing.T) {
	t.Parallel()
	handler := &recordingHandler{}
	d := NewDispatcher(&recordingSender{}, blockingSyncer{}, 8, zerolog.Nop())
	d.AddHandler(handler)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	stale := &event.Event{
		Type:      event.EventMessage,
		RoomID:    "!room:example.com",
		Timestamp: time.Now().Add(-time.Hour).UnixMilli(),
	}
	fresh := &event.Event{
		Type:      event.EventMessage,
		RoomID:    "!room:example.com",
		Timestamp: time.Now().Add(time.Minute).UnixMilli(),
	}
	d.Deliver(context.Background(), stale)
	d.Deliver(context.Background(), fresh)
	waitFor(t, func() bool { return handler.count() == 1 }, "fresh event was never dispatched")

	handler.mu.Lock()
	got := handler.events[0]
	handler.mu.Unlock()
	if got != fresh {
		t.Error("stale backlog event was dispatched")
	}

	cancel()
	d.Stop(2 * time.Second)
}

func TestDeliverKeepsInvitesWithoutTimestamp(t *testing.T) {
	t.Parallel()
	handler := &recordingHandler{}
	d := NewDispatcher(&recordingSender{}, blockingSyncer{}, 8, zerolog.Nop())
	d.AddHandler(handler)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	// Invites come through sync as stripped state with no origin
	// timestamp; the zero value must not look like backlog.
	invite := inviteEvent(adminUser, testRoom, string(botUser))
	if invite.Timestamp != 0 {
		t.Fatalf("invite timestamp = %d, want 0", invite.Timestamp)
	}
	d.Deliver(context.Background(), invite)
	waitFor(t, func() bool { return handler.count() == 1 }, "invite event was never dispatched")

	handler.mu.Lock()
	got := handler.events[0]
	handler.mu.Unlock()
	if got != invite {
		t.Error("dispatched event is not the invite")
	}

	cancel()
	d.Stop(2 * time.Second)
}

func TestStopDoesNotDequeueNewItems(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{
		started: make(chan struct{}),
		block:   make(chan struct{}),
	}
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	if err := d.Enqueue("!room:example.com", message.FromText("in flight")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	<-sender.started
	// Queued behind the in-flight send; must never go out once shutdown
	// has begun.
	if err := d.Enqueue("!room:example.com", message.FromText("queued")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}

	stopped := make(chan bool)
	go func() {
		cancel()
		stopped <- d.Stop(2 * time.Second)
	}()
	// Release the in-flight send only after the shutdown signal has
	// fired, so the worker's next loop iteration sees it.
	<-d.stopChan
	close(sender.block)

	if !<-stopped {
		t.Fatal("Stop timed out")
	}
	sent := sender.messages()
	if len(sent) != 1 || sent[0].msg.Plain != "in flight" {
		t.Errorf("sent %v, want only the in-flight message", sent)
	}
}

func TestSendFailureIsDropped(t *testing.T) {
	t.Parallel()
	sender := &recordingSender{err: errors.New("homeserver is down")}
	d := NewDispatcher(sender, blockingSyncer{}, 8, zerolog.Nop())

	if err := d.Enqueue("!room:example.com", message.FromText("doomed")); err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()
	if !d.Stop(2 * time.Second) {
		t.Error("Stop timed out; a failed send should not wedge the worker")
	}
}
