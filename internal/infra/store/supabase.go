package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orderpulse/internal/domain/notify"

	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

var _ notify.OrderStore = (*SupabaseStore)(nil)

// SupabaseStore implements the order document store using the Supabase
// Go SDK. The raw order payload lives in a jsonb column; the store owns
// the notification bookkeeping columns.
type SupabaseStore struct {
	client *supa.Client
	table  string
}

// NewSupabaseStore creates a new Supabase-backed order store.
func NewSupabaseStore(supabaseURL, serviceKey, table string) (*SupabaseStore, error) {
	client, err := supa.NewClient(supabaseURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}
	if table == "" {
		table = "orders"
	}
	return &SupabaseStore{client: client, table: table}, nil
}

// orderRow is the internal representation for Supabase PostgREST.
type orderRow struct {
	ID                 string         `json:"id"`
	Data               map[string]any `json:"data"`
	CreatedAt          string         `json:"created_at,omitempty"`
	NotificationSent   bool           `json:"notification_sent"`
	NotificationSentAt *string        `json:"notification_sent_at,omitempty"`
}

// Get retrieves one order document. Returns nil, nil if not found.
func (s *SupabaseStore) Get(ctx context.Context, id string) (*notify.Document, error) {
	data, _, err := s.client.From(s.table).Select("*", "exact", false).Eq("id", id).Execute()
	if err != nil {
		return nil, fmt.Errorf("fetching order document: %w", err)
	}

	var rows []orderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing order document: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	doc := rowToDocument(&rows[0])
	return &doc, nil
}

// ListAll retrieves every order document (full-collection scan).
func (s *SupabaseStore) ListAll(ctx context.Context) ([]notify.Document, error) {
	data, _, err := s.client.From(s.table).Select("*", "exact", false).Execute()
	if err != nil {
		return nil, fmt.Errorf("scanning order collection: %w", err)
	}
	return parseDocuments(data)
}

// ListRecent retrieves the newest order documents, most recent first.
func (s *SupabaseStore) ListRecent(ctx context.Context, limit int) ([]notify.Document, error) {
	if limit <= 0 {
		limit = 10
	}

	data, _, err := s.client.From(s.table).
		Select("*", "exact", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Range(0, limit-1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return parseDocuments(data)
}

// MarkNotified flags a document as notified. The notification_sent
// filter makes the write conditional: concurrent attempts for the same
// document collapse to a single marker.
func (s *SupabaseStore) MarkNotified(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	update := map[string]any{
		"notification_sent":    true,
		"notification_sent_at": now,
	}

	_, _, err := s.client.From(s.table).
		Update(update, "", "").
		Eq("id", id).
		Eq("notification_sent", "false").
		Execute()
	if err != nil {
		return fmt.Errorf("marking order notified: %w", err)
	}

	return nil
}

func parseDocuments(data []byte) ([]notify.Document, error) {
	var rows []orderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing order documents: %w", err)
	}

	docs := make([]notify.Document, len(rows))
	for i := range rows {
		docs[i] = rowToDocument(&rows[i])
	}
	return docs, nil
}

func rowToDocument(row *orderRow) notify.Document {
	doc := notify.Document{
		ID:               row.ID,
		Data:             row.Data,
		NotificationSent: row.NotificationSent,
	}
	if row.Data == nil {
		doc.Data = map[string]any{}
	}
	if row.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339Nano, row.CreatedAt); err == nil {
			doc.CreatedAt = t
		}
	}
	if row.NotificationSentAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, *row.NotificationSentAt); err == nil {
			doc.NotificationSentAt = &t
		}
	}
	return doc
}
