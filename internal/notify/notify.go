// Package notify carries interaction notifications to item authors. The
// contract is strictly best-effort: a failed or dropped notification never
// affects the mutation that produced it.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"lumen-board/feedcore/internal/apperr"
	"lumen-board/feedcore/internal/models"
)

// Notifier is the hook the reaction engine calls on notifying transitions.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationKind, message, actorAvatarURL string) error
}

// message is one queued notification.
type message struct {
	recipientID    string
	kind           models.NotificationKind
	body           string
	actorAvatarURL string
}

// Dispatcher decouples mutation paths from the notifier behind a buffered
// channel with a single worker, so "never blocks, never fails the parent
// operation" holds structurally rather than by convention.
type Dispatcher struct {
	sink    Notifier
	queue   chan message
	done    chan struct{}
	once    sync.Once
	timeout time.Duration
}

const defaultQueueSize = 256

// NewDispatcher starts the worker goroutine. Close must be called to drain.
func NewDispatcher(sink Notifier) *Dispatcher {
	d := &Dispatcher{
		sink:    sink,
		queue:   make(chan message, defaultQueueSize),
		done:    make(chan struct{}),
		timeout: 10 * time.Second,
	}
	go d.run()
	return d
}

// Enqueue hands a notification to the worker. It never blocks: when the
// queue is full the notification is dropped and logged.
func (d *Dispatcher) Enqueue(recipientID string, kind models.NotificationKind, body, actorAvatarURL string) {
	select {
	case d.queue <- message{recipientID: recipientID, kind: kind, body: body, actorAvatarURL: actorAvatarURL}:
	default:
		notifications.WithLabelValues("dropped").Inc()
		log.Warn().
			Str("recipient", recipientID).
			Str("kind", string(kind)).
			Msg("Notification queue full, dropping")
	}
}

// Close stops accepting notifications and waits for the worker to drain the
// queue.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.Notify(ctx, msg.recipientID, msg.kind, msg.body, msg.actorAvatarURL)
		cancel()
		if err != nil {
			notifications.WithLabelValues("failed").Inc()
			log.Error().
				Err(apperr.Wrap(apperr.KindNotificationDelivery, "notification sink rejected message", err)).
				Str("recipient", msg.recipientID).
				Str("kind", string(msg.kind)).
				Msg("Notification delivery failed")
		} else {
			notifications.WithLabelValues("delivered").Inc()
		}
	}
}
