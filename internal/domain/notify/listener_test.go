package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory OrderStore for tests.
type fakeStore struct {
	mu      sync.Mutex
	docs    map[string]*Document
	order   []string // insertion order, newest last
	getErr  error
	listErr error
	markErr error
	marked  []string
}

func newFakeStore(docs ...*Document) *fakeStore {
	s := &fakeStore{docs: map[string]*Document{}}
	for _, d := range docs {
		s.docs[d.ID] = d
		s.order = append(s.order, d.ID)
	}
	return s
}

func (s *fakeStore) Get(_ context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.docs[id], nil
}

func (s *fakeStore) ListAll(context.Context) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.docs[id])
	}
	return out, nil
}

func (s *fakeStore) ListRecent(ctx context.Context, limit int) ([]Document, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Document, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *fakeStore) MarkNotified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	if doc, ok := s.docs[id]; ok && !doc.NotificationSent {
		doc.NotificationSent = true
		now := time.Now()
		doc.NotificationSentAt = &now
	}
	s.marked = append(s.marked, id)
	return nil
}

func (s *fakeStore) markedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.marked...)
}

// fakeFeed hands the test a channel to publish events on.
type fakeFeed struct {
	events     chan Event
	err        error
	subscribes int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{events: make(chan Event, 16)}
}

func (f *fakeFeed) Subscribe(context.Context) (<-chan Event, error) {
	f.subscribes++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

// fakeEnqueuer records enqueued document IDs.
type fakeEnqueuer struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (e *fakeEnqueuer) EnqueueOrderNotification(docID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.ids = append(e.ids, docID)
	return nil
}

func (e *fakeEnqueuer) enqueued() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ids...)
}

func TestListener_EnqueuesNewOrder(t *testing.T) {
	start := time.Now()
	store := newFakeStore(&Document{ID: "doc-1", CreatedAt: start.Add(time.Second)})
	feed := newFakeFeed()
	enq := &fakeEnqueuer{}

	l := NewListener(feed, store, enq)
	l.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	feed.events <- Event{ID: "doc-1", CreatedAt: start.Add(time.Second)}

	assert.Eventually(t, func() bool {
		return len(enq.enqueued()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"doc-1"}, enq.enqueued())
}

func TestListener_SkipsHistoricalOrders(t *testing.T) {
	start := time.Now()
	store := newFakeStore(
		&Document{ID: "old", CreatedAt: start.Add(-time.Hour)},
		&Document{ID: "no-time"},
	)
	feed := newFakeFeed()
	enq := &fakeEnqueuer{}

	l := NewListener(feed, store, enq)
	l.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	feed.events <- Event{ID: "old", CreatedAt: start.Add(-time.Hour)}
	feed.events <- Event{ID: "no-time"} // zero CreatedAt

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, enq.enqueued())
}

func TestListener_SkipsAlreadyNotified(t *testing.T) {
	start := time.Now()
	store := newFakeStore(&Document{
		ID:               "doc-1",
		CreatedAt:        start.Add(time.Second),
		NotificationSent: true,
	})
	feed := newFakeFeed()
	enq := &fakeEnqueuer{}

	l := NewListener(feed, store, enq)
	l.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	feed.events <- Event{ID: "doc-1", CreatedAt: start.Add(time.Second)}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, enq.enqueued())
}

func TestListener_StartIsIdempotent(t *testing.T) {
	feed := newFakeFeed()
	l := NewListener(feed, newFakeStore(), &fakeEnqueuer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))
	require.NoError(t, l.Start(ctx), "second start while active is a no-op")
	assert.True(t, l.Active())
}

func TestListener_StopIgnoresEvents(t *testing.T) {
	start := time.Now()
	store := newFakeStore(&Document{ID: "doc-1", CreatedAt: start.Add(time.Second)})
	feed := newFakeFeed()
	enq := &fakeEnqueuer{}

	l := NewListener(feed, store, enq)
	l.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	l.Stop()
	assert.False(t, l.Active())

	feed.events <- Event{ID: "doc-1", CreatedAt: start.Add(time.Second)}

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, enq.enqueued())
}

func TestListener_RestartReusesSubscription(t *testing.T) {
	start := time.Now()
	store := newFakeStore(
		&Document{ID: "doc-1", CreatedAt: start.Add(time.Second)},
		&Document{ID: "doc-2", CreatedAt: start.Add(2 * time.Second)},
	)
	feed := newFakeFeed()
	enq := &fakeEnqueuer{}

	l := NewListener(feed, store, enq)
	l.now = func() time.Time { return start }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Start(ctx))

	l.Stop()
	require.NoError(t, l.Start(ctx))
	assert.True(t, l.Active())
	assert.Equal(t, 1, feed.subscribes, "restart must not open a second subscription")

	feed.events <- Event{ID: "doc-1", CreatedAt: start.Add(time.Second)}

	// A single forwarding goroutine handles each event exactly once.
	assert.Eventually(t, func() bool {
		return len(enq.enqueued()) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"doc-1"}, enq.enqueued())
}

func TestListener_SubscribeFailure(t *testing.T) {
	feed := newFakeFeed()
	feed.err = errors.New("redis down")

	l := NewListener(feed, newFakeStore(), &fakeEnqueuer{})

	err := l.Start(context.Background())
	require.Error(t, err)
	assert.False(t, l.Active(), "a failed start must leave the listener inactive")
}
