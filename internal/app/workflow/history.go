package workflow

import (
	"sync"
	"time"

	"comanda/internal/domain/orders"
)

// History is the append-only order snapshot log. It exclusively owns its
// entries: nothing mutates or removes a recorded snapshot. The log lives for
// the process lifetime and grows without bound; that is an accepted property
// of this system.
type History struct {
	mu      sync.RWMutex
	entries []orders.Snapshot
}

func NewHistory() *History {
	return &History{}
}

// Record captures and appends a snapshot of the order.
func (h *History) Record(order *orders.Order, now time.Time) orders.Snapshot {
	snap := orders.TakeSnapshot(order, now)

	h.mu.Lock()
	h.entries = append(h.entries, snap)
	h.mu.Unlock()

	return snap
}

// List returns the full log, oldest first. The returned slice is a copy;
// callers cannot reach the internal log through it.
func (h *History) List() []orders.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]orders.Snapshot, len(h.entries))
	copy(out, h.entries)
	return out
}

// Find returns the most recent snapshot for the order id.
func (h *History) Find(orderID int64) (orders.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].OrderID == orderID {
			return h.entries[i], true
		}
	}
	return orders.Snapshot{}, false
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
