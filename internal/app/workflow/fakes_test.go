package workflow

import (
	"context"
	"sync"
	"testing"

	"comanda/internal/domain/catalog"
	"comanda/internal/domain/orders"
	"comanda/internal/domain/staff"
	"comanda/internal/ports"
	"comanda/internal/shared/logger"
)

// memStore is an in-memory record store implementing both the unit of work
// and the order repository ports.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	nextItemID int64
	orders     map[int64]*orders.Order
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[int64]*orders.Order)}
}

func cloneOrder(order *orders.Order) *orders.Order {
	cp := *order
	cp.Items = append([]orders.LineItem(nil), order.Items...)
	return &cp
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) Create(_ context.Context, order *orders.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	order.ID = s.nextID
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *memStore) GetByID(_ context.Context, id int64) (*orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(stored), nil
}

func (s *memStore) AddItem(_ context.Context, orderID int64, item *orders.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}

	s.nextItemID++
	item.ID = s.nextItemID
	item.OrderID = orderID
	stored.Items = append(stored.Items, *item)
	return nil
}

func (s *memStore) UpdateStatusCAS(_ context.Context, id int64, expected, next orders.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if stored.Status != expected {
		return false, nil
	}
	stored.Status = next
	return true, nil
}

func (s *memStore) SetPaid(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	stored.Paid = true
	return nil
}

func (s *memStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

// statusOf reads the persisted status directly, bypassing the service.
func (s *memStore) statusOf(t *testing.T, id int64) orders.Status {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[id]
	if !ok {
		t.Fatalf("order %d not in store", id)
	}
	return stored.Status
}

// memStaff resolves staff ids to roles.
type memStaff map[int64]staff.Role

func (m memStaff) RoleOf(_ context.Context, staffID int64) (staff.Role, error) {
	role, ok := m[staffID]
	if !ok {
		return "", ports.ErrStaffNotFound
	}
	return role, nil
}

// memCatalog is a mutable product catalog so tests can change prices after
// items were added.
type memCatalog struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
}

func newMemCatalog(products ...catalog.Product) *memCatalog {
	c := &memCatalog{products: make(map[int64]catalog.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) Get(_ context.Context, productID int64) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[productID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (c *memCatalog) setPrice(productID int64, price orders.Money) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.products[productID]
	p.Price = price
	c.products[productID] = p
}

// recorderRecipient counts deliveries and can be told to fail.
type recorderRecipient struct {
	mu         sync.Mutex
	name       string
	err        error
	deliveries []orders.Status
}

func (r *recorderRecipient) Name() string { return r.name }

func (r *recorderRecipient) Update(_ context.Context, _ orders.Snapshot, newStatus orders.Status) error {
	r.mu.Lock()
	r.deliveries = append(r.deliveries, newStatus)
	r.mu.Unlock()
	return r.err
}

func (r *recorderRecipient) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deliveries)
}

// env bundles a fully wired service over in-memory fakes.
type env struct {
	svc     *Service
	store   *memStore
	catalog *memCatalog
	fanout  *Broadcaster
	history *History
	rec     *recorderRecipient
}

func newTestEnv(t *testing.T) *env {
	t.Helper()

	store := newMemStore()
	cat := newMemCatalog(
		catalog.Product{ID: 1, Name: "Capuchino", Category: "bebida caliente", Price: 6500, Available: true},
		catalog.Product{ID: 2, Name: "Brownie", Category: "postre", Price: 4850, Available: true},
	)
	staffDir := memStaff{
		10: staff.RoleCook,
		11: staff.RoleBarista,
		12: staff.RoleWaiter,
		13: staff.RoleAdmin,
	}

	log := logger.NewNop()
	fanout := NewBroadcaster()
	rec := &recorderRecipient{name: "pass"}
	fanout.Register(rec)
	history := NewHistory()

	svc := New(
		Config{Restaurant: "Café del Bosque"},
		store, store, staffDir, cat,
		NewChain("Café del Bosque", log),
		fanout, history, log,
	)

	return &env{svc: svc, store: store, catalog: cat, fanout: fanout, history: history, rec: rec}
}
