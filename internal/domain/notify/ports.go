package notify

import (
	"context"
	"errors"
	"time"
)

// ErrUnregisteredToken marks a push failure caused by an invalid or
// unregistered device token. Transports wrap it so batch sends can
// classify the failure as non-retryable.
var ErrUnregisteredToken = errors.New("unregistered push token")

// Document is an order document as the store holds it: an opaque,
// loosely shaped payload plus the notification bookkeeping the store
// owns.
type Document struct {
	ID                 string
	Data               map[string]any
	CreatedAt          time.Time
	NotificationSent   bool
	NotificationSentAt *time.Time
}

// OrderStore defines the contract for the externally owned order
// document store. Implementations live in infra/store/.
type OrderStore interface {
	// Get retrieves one order document. Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*Document, error)

	// ListAll retrieves every order document (full-collection scan).
	ListAll(ctx context.Context) ([]Document, error)

	// ListRecent retrieves the newest documents, most recent first.
	ListRecent(ctx context.Context, limit int) ([]Document, error)

	// MarkNotified sets notification_sent/notification_sent_at on a
	// document, conditional on the flag still being false. A document
	// already marked is left untouched.
	MarkNotified(ctx context.Context, id string) error
}

// Event is one "document added" change feed entry. CreatedAt is the
// store-assigned creation time; zero when the store did not supply one.
type Event struct {
	ID        string
	CreatedAt time.Time
}

// ChangeFeed subscribes to document additions on the order collection.
// Implementations live in infra/feed/.
type ChangeFeed interface {
	// Subscribe returns a channel of added-document events. The channel
	// is closed when the context is cancelled or the feed fails.
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// TemplateMessage is a pre-approved chat template payload: template
// name, language code, and the body parameters in their fixed order.
type TemplateMessage struct {
	Name       string
	Language   string
	Parameters []string
}

// ChatTransport posts one chat message to one phone-number recipient.
// Implementations live in infra/whatsapp/.
type ChatTransport interface {
	// SendTemplate posts a structured template message.
	SendTemplate(ctx context.Context, to string, msg TemplateMessage) error

	// SendText posts a free-form text message.
	SendText(ctx context.Context, to, body string) error

	// Configured reports whether the transport has credentials.
	Configured() bool
}

// PushTransport delivers one push notification to one device token.
// Implementations live in infra/push/.
type PushTransport interface {
	// Send delivers {title, body} plus an opaque data payload to a token.
	Send(ctx context.Context, token, title, body string, data map[string]string) error

	// Configured reports whether the push service has an active credential.
	Configured() bool
}

// Enqueuer defines the contract for enqueuing order notification tasks.
// Decouples the listener from the specific queue implementation.
type Enqueuer interface {
	EnqueueOrderNotification(docID string) error
}
