package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPushTokens_PriorityOrder(t *testing.T) {
	store := newFakeStore(&Document{
		ID: "doc-1",
		Data: map[string]any{
			"fcmToken": "top-level",
			"author":   map[string]any{"fcmToken": "from-author"},
			"user":     map[string]any{"fcmToken": "from-user"},
		},
	})

	tokens, err := NewResolver(store).CollectPushTokens(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"from-author"}, tokens, "author token outranks the other locations")
}

func TestCollectPushTokens_DedupAcrossDocuments(t *testing.T) {
	store := newFakeStore(
		&Document{ID: "a", Data: map[string]any{"fcmToken": "tok-1"}},
		&Document{ID: "b", Data: map[string]any{"author": map[string]any{"fcmToken": "tok-1"}}},
		&Document{ID: "c", Data: map[string]any{"fcmToken": "tok-2"}},
	)

	tokens, err := NewResolver(store).CollectPushTokens(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"tok-1", "tok-2"}, tokens, "first-seen order, duplicates dropped")
}

func TestCollectPushTokens_SkipsBlankAndMissing(t *testing.T) {
	store := newFakeStore(
		&Document{ID: "a", Data: map[string]any{"fcmToken": "   "}},
		&Document{ID: "b", Data: map[string]any{"customerName": "no token here"}},
		&Document{ID: "c", Data: map[string]any{"user": map[string]any{"fcmToken": " tok-3 "}}},
	)

	tokens, err := NewResolver(store).CollectPushTokens(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"tok-3"}, tokens, "tokens are trimmed, blanks skipped")
}

func TestCollectPushTokens_EmptyCollection(t *testing.T) {
	tokens, err := NewResolver(newFakeStore()).CollectPushTokens(context.Background())

	require.NoError(t, err)
	assert.Empty(t, tokens)
}
