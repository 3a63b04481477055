// Copyright 2024-2026 Aiku AI

package matrix

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/yarrbot/pkg/errs"
	"github.com/aiku/yarrbot/pkg/message"
)

// DefaultSendQueueSize bounds the outbound message queue when the config
// doesn't override it.
const DefaultSendQueueSize = 32

// inboxSize bounds the inbound event queue. Sync batches are small; the
// bound only matters when a handler wedges.
const inboxSize = 64

// syncRetryDelay is the pause before restarting a failed sync loop.
const syncRetryDelay = 5 * time.Second

// sendTimeout bounds a single outbound send.
const sendTimeout = 10 * time.Second

type noticeSender interface {
	SendNotice(ctx context.Context, roomID id.RoomID, msg message.Data) error
}

type eventSyncer interface {
	Sync(ctx context.Context) error
}

// EventHandler consumes one inbound Matrix event. Handlers run on the
// dispatcher's inbox worker, one event at a time.
type EventHandler interface {
	HandleEvent(ctx context.Context, evt *event.Event)
}

type sendTask struct {
	roomID id.RoomID
	msg    message.Data
}

// Dispatcher owns the bot's worker goroutines: a sync loop pulling events
// from the homeserver, an inbox worker feeding them to handlers, and a
// send worker draining the outbound queue. Outbound failures are logged
// and dropped; a webhook caller has no way to act on them.
type Dispatcher struct {
	sender   noticeSender
	syncer   eventSyncer
	handlers []EventHandler

	sendQueue chan sendTask
	inbox     chan *event.Event

	// Events older than startTime are sync backlog from before this
	// process started and must not trigger replies.
	startTime int64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewDispatcher creates a stopped Dispatcher. queueSize <= 0 selects
// DefaultSendQueueSize.
func NewDispatcher(sender noticeSender, syncer eventSyncer, queueSize int, log zerolog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}
	return &Dispatcher{
		sender:    sender,
		syncer:    syncer,
		sendQueue: make(chan sendTask, queueSize),
		inbox:     make(chan *event.Event, inboxSize),
		startTime: time.Now().UnixMilli(),
		stopChan:  make(chan struct{}),
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// AddHandler registers an event handler. Must be called before Start.
func (d *Dispatcher) AddHandler(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(3)
	go d.sendWorker(ctx)
	go d.inboxWorker(ctx)
	go d.syncWorker(ctx)
}

// Stop asks the workers to finish and waits up to timeout for them. The
// send worker completes an in-flight send but takes nothing new off the
// queue. Returns false if the workers didn't finish in time.
func (d *Dispatcher) Stop(timeout time.Duration) bool {
	d.stopOnce.Do(func() {
		close(d.stopChan)
	})
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Enqueue queues a message for delivery to one room. Refused with
// errs.ErrTransient when the queue is full or the bot is shutting down.
// Implements the webhook handler's sender interface.
func (d *Dispatcher) Enqueue(roomID string, msg message.Data) error {
	select {
	case <-d.stopChan:
		return fmt.Errorf("%w: bot is shutting down", errs.ErrTransient)
	default:
	}
	select {
	case d.sendQueue <- sendTask{roomID: id.RoomID(roomID), msg: msg}:
		return nil
	default:
		return fmt.Errorf("%w: send queue is full", errs.ErrTransient)
	}
}

// Deliver accepts one event from the sync loop. Matches the mautrix
// handler signature so it can be registered directly. Backlog from
// before startup and overflow are dropped.
func (d *Dispatcher) Deliver(_ context.Context, evt *event.Event) {
	// The cutoff only applies to message events. Invites arrive as
	// stripped state without an origin timestamp, and invites issued
	// while the bot was offline still need handling.
	if evt.Type != event.StateMember && evt.Timestamp < d.startTime {
		return
	}
	select {
	case <-d.stopChan:
		return
	default:
	}
	select {
	case d.inbox <- evt:
	default:
		d.log.Warn().
			Str("event_id", evt.ID.String()).
			Str("room_id", evt.RoomID.String()).
			Msg("Inbox is full, dropping event")
	}
}

func (d *Dispatcher) sendWorker(ctx context.Context) {
	defer d.wg.Done()
	// Shutdown cancels ctx to stop the sync loop; queued messages should
	// still go out, so sends run on a detached context with their own
	// timeout.
	sendCtx := context.WithoutCancel(ctx)
	for {
		// Check the stop signal before touching the queue, so the blocking
		// select below can't race a close against a ready queue and keep
		// dequeuing. An in-flight send completes; anything still queued is
		// dropped. Delivery is at-most-once.
		select {
		case <-d.stopChan:
			return
		default:
		}
		select {
		case task := <-d.sendQueue:
			d.send(sendCtx, task)
		case <-d.stopChan:
			return
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, task sendTask) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := d.sender.SendNotice(ctx, task.roomID, task.msg); err != nil {
		d.log.Error().Err(err).Str("room_id", task.roomID.String()).Msg("Dropping undeliverable message")
	}
}

func (d *Dispatcher) inboxWorker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.inbox:
			for _, h := range d.handlers {
				h.HandleEvent(ctx, evt)
			}
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) syncWorker(ctx context.Context) {
	defer d.wg.Done()
	for {
		err := d.syncer.Sync(ctx)
		select {
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}
		if err != nil {
			d.log.Error().Err(err).Dur("retry_in", syncRetryDelay).Msg("Sync loop failed, restarting")
		}
		select {
		case <-time.After(syncRetryDelay):
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}
