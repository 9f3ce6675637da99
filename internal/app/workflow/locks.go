package workflow

import "sync"

// orderLocks serializes operations per order id. Operations on different
// orders proceed in parallel; two operations on the same order queue up.
type orderLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for the order id and returns its unlock func.
func (l *orderLocks) lock(orderID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[orderID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[orderID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
