package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"orderpulse/internal/domain/order"
)

// Worker processes order notification tasks: it re-checks the notified
// flag, normalizes the raw document, fans out to the customer and admin
// channels, and marks the document notified.
//
// The document is marked regardless of whether any send succeeded: the
// pipeline promises one notification attempt per order, not guaranteed
// delivery. A permanently misconfigured transport therefore drops
// notifications for documents already seen; operators are expected to
// watch the per-channel outcome logs.
type Worker struct {
	store    OrderStore
	notifier *Notifier
}

// NewWorker creates a new order notification worker.
func NewWorker(store OrderStore, notifier *Notifier) *Worker {
	return &Worker{store: store, notifier: notifier}
}

// ProcessTask handles one order notification task. It only returns an
// error for conditions worth surfacing to the queue (missing document,
// store failure); send failures are recorded in outcomes, never retried.
func (w *Worker) ProcessTask(ctx context.Context, docID string) error {
	start := time.Now()

	doc, err := w.store.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("fetching order document %s: %w", docID, err)
	}
	if doc == nil {
		return fmt.Errorf("order document not found: %s", docID)
	}

	// The listener already checked this flag; the recheck narrows the
	// window in which two deliveries of the same event double-send.
	// The remaining read-then-write race is accepted.
	if doc.NotificationSent {
		slog.Info("order already notified, skipping", "doc_id", docID)
		return nil
	}

	o := order.Normalize(doc.ID, doc.CreatedAt, doc.Data)

	// Customer and admin channels are independent: a failure on one
	// must not block the other.
	customerRes := w.notifier.NotifyCustomer(ctx, o)
	adminRes := w.notifier.NotifyAdmins(ctx, o)

	if err := w.store.MarkNotified(ctx, docID); err != nil {
		slog.Error("failed to mark order notified", "doc_id", docID, "error", err)
	}

	slog.Info("order notification processed",
		"doc_id", docID,
		"order_id", o.OrderID,
		"customer_outcome", customerRes.Outcome,
		"admin_delivered", adminRes.Delivered,
		"duration", time.Since(start),
	)

	return nil
}
