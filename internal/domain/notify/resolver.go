package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// tokenPaths are the known document locations for a push token, in
// priority order. The first non-empty match per document wins.
var tokenPaths = []struct {
	parent string // "" means top level
	field  string
}{
	{"author", "fcmToken"},
	{"", "fcmToken"},
	{"customer", "fcmToken"},
	{"user", "fcmToken"},
}

// Resolver collects distinct push tokens from the order collection.
type Resolver struct {
	store OrderStore
}

// NewResolver creates a new push token resolver.
func NewResolver(store OrderStore) *Resolver {
	return &Resolver{store: store}
}

// CollectPushTokens scans every order document once and returns the
// deduplicated token set in first-seen order. An empty result is valid.
func (r *Resolver) CollectPushTokens(ctx context.Context) ([]string, error) {
	docs, err := r.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning orders for push tokens: %w", err)
	}

	seen := make(map[string]struct{})
	tokens := make([]string, 0)

	for _, doc := range docs {
		token := extractToken(doc.Data)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	slog.Debug("push token scan complete", "documents", len(docs), "tokens", len(tokens))
	return tokens, nil
}

// extractToken returns the first non-empty token found in a document,
// trimmed, respecting the fixed location priority.
func extractToken(data map[string]any) string {
	for _, path := range tokenPaths {
		m := data
		if path.parent != "" {
			sub, ok := data[path.parent].(map[string]any)
			if !ok {
				continue
			}
			m = sub
		}
		if token, ok := m[path.field].(string); ok {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}
	return ""
}
