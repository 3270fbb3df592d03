package dispatch

import (
	"context"
	"sync"

	"ride-hail-realtime/internal/general/contracts"
	"ride-hail-realtime/internal/general/logger"
	"ride-hail-realtime/internal/ports"
)

// DefaultDedupeWindow is how many recent message ids are remembered in memory.
const DefaultDedupeWindow = 512

// window is a fixed-size ring of recently seen message ids.
type window struct {
	mu   sync.Mutex
	ring []string
	next int
	seen map[string]struct{}
}

func newWindow(size int) *window {
	if size <= 0 {
		size = DefaultDedupeWindow
	}
	return &window{ring: make([]string, size), seen: make(map[string]struct{}, size)}
}

// remember records id and reports whether it was already present.
func (w *window) remember(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}
	if old := w.ring[w.next]; old != "" {
		delete(w.seen, old)
	}
	w.ring[w.next] = id
	w.seen[id] = struct{}{}
	w.next = (w.next + 1) % len(w.ring)
	return false
}

// deduper combines the in-memory window with an optional durable journal.
// Journal failures fall back to the window alone. Driver location pings are
// never deduplicated: each one supersedes the last.
type deduper struct {
	mem     *window
	journal ports.EnvelopeJournal
	log     *logger.Logger
}

func (d *deduper) duplicate(ctx context.Context, id string, msgType contracts.MessageType) bool {
	if msgType == contracts.TypeDriverLocation {
		return false
	}
	if d.mem.remember(id) {
		return true
	}
	if d.journal == nil {
		return false
	}
	fresh, err := d.journal.MarkHandled(ctx, id, string(msgType))
	if err != nil {
		d.log.Warn(ctx, "journal_mark_failed", "envelope journal unavailable, using memory only", map[string]any{
			"type":  msgType,
			"error": err.Error(),
		})
		return false
	}
	return !fresh
}
