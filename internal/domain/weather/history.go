package weather

import "sync"

// History is a bounded ring of recently generated notifications, keyed
// by "title|body". The generator consults it to avoid pushing the same
// text twice in a row of runs; when full, the oldest entry is evicted.
// It is injected into the Generator so tests can control its contents.
type History struct {
	mu   sync.Mutex
	cap  int
	keys []string
	seen map[string]struct{}
}

// NewHistory creates a history ring with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 100
	}
	return &History{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
}

// Seen reports whether the notification was generated recently.
func (h *History) Seen(n Notification) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.seen[historyKey(n)]
	return ok
}

// Add records a notification, evicting the oldest entry when full.
func (h *History) Add(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := historyKey(n)
	if _, ok := h.seen[key]; ok {
		return
	}

	if len(h.keys) >= h.cap {
		oldest := h.keys[0]
		h.keys = h.keys[1:]
		delete(h.seen, oldest)
	}

	h.keys = append(h.keys, key)
	h.seen[key] = struct{}{}
}

// Len returns the number of remembered notifications.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.keys)
}

func historyKey(n Notification) string {
	return n.Title + "|" + n.Body
}
