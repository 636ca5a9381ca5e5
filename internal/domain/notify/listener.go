package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Listener consumes "document added" events on the order collection and
// enqueues one notification task per new order. Historical backlog is
// filtered by creation time so a restart never re-notifies old orders.
type Listener struct {
	feed  ChangeFeed
	store OrderStore
	enq   Enqueuer

	mu         sync.Mutex
	active     bool
	subscribed bool
	startedAt  time.Time
	now        func() time.Time
}

// NewListener creates a new change feed listener.
func NewListener(feed ChangeFeed, store OrderStore, enq Enqueuer) *Listener {
	return &Listener{
		feed:  feed,
		store: store,
		enq:   enq,
		now:   time.Now,
	}
}

// Start subscribes to the change feed and begins handling events.
// Idempotent: a second call while active is a no-op. The subscription
// start time becomes the cutoff for historical documents.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.active {
		l.mu.Unlock()
		slog.Warn("listener already active")
		return nil
	}
	l.active = true
	l.startedAt = l.now()
	resubscribe := !l.subscribed
	l.subscribed = true
	l.mu.Unlock()

	// A restart after Stop reuses the original subscription: its
	// forwarding goroutine is still ranging the feed and resumes acting
	// on events now that the flag is back. A second subscription would
	// double-handle every event.
	if !resubscribe {
		slog.Info("order listener reactivated", "cutoff", l.startedAt)
		return nil
	}

	events, err := l.feed.Subscribe(ctx)
	if err != nil {
		l.mu.Lock()
		l.active = false
		l.subscribed = false
		l.mu.Unlock()
		return err
	}

	slog.Info("order listener started", "cutoff", l.startedAt)

	go func() {
		for ev := range events {
			if !l.Active() {
				continue
			}
			// Each event is handled independently and concurrently;
			// the store delivers no ordering guarantee anyway.
			go l.handle(ctx, ev)
		}
		slog.Info("order change feed closed")
	}()

	return nil
}

// Stop marks the listener inactive. The underlying subscription may
// keep existing at the infrastructure level; the listener just stops
// acting on its events. In-flight handlers run to completion.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active {
		return
	}
	l.active = false
	slog.Info("order listener stopped")
}

// Active reports whether the listener is acting on events.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// handle filters one added-document event and enqueues it when it is a
// genuinely new, not-yet-notified order.
func (l *Listener) handle(ctx context.Context, ev Event) {
	l.mu.Lock()
	cutoff := l.startedAt
	l.mu.Unlock()

	// Missing or old creation times are historical backlog.
	if ev.CreatedAt.IsZero() || !ev.CreatedAt.After(cutoff) {
		slog.Debug("skipping historical order", "doc_id", ev.ID, "created_at", ev.CreatedAt)
		return
	}

	doc, err := l.store.Get(ctx, ev.ID)
	if err != nil {
		slog.Error("failed to read order document", "doc_id", ev.ID, "error", err)
		return
	}
	if doc == nil {
		slog.Warn("order document vanished before handling", "doc_id", ev.ID)
		return
	}

	if doc.NotificationSent {
		slog.Info("skipping order: notification already sent", "doc_id", ev.ID)
		return
	}

	if err := l.enq.EnqueueOrderNotification(ev.ID); err != nil {
		slog.Error("failed to enqueue order notification", "doc_id", ev.ID, "error", err)
		return
	}

	slog.Info("new order queued for notification", "doc_id", ev.ID, "created_at", ev.CreatedAt)
}
