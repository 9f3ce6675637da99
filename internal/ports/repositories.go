package ports

import (
	"context"

	"comanda/internal/domain/catalog"
	"comanda/internal/domain/orders"
	"comanda/internal/domain/staff"
)

// UnitOfWork wraps a function in a DB transaction. Everything inside fn either
// commits together or rolls back together.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository is the record store contract for orders and their line
// items. Only the workflow orchestrator calls its write operations.
type OrderRepository interface {
	// Create persists a new order and assigns its id.
	Create(ctx context.Context, order *orders.Order) error
	// GetByID loads an order with its items; ErrNotFound when absent.
	GetByID(ctx context.Context, id int64) (*orders.Order, error)
	// AddItem persists one line item and assigns its id.
	AddItem(ctx context.Context, orderID int64, item *orders.LineItem) error
	// UpdateStatusCAS moves the stored status from expected to next.
	// applied=false means the stored status no longer matched expected.
	UpdateStatusCAS(ctx context.Context, id int64, expected, next orders.Status) (applied bool, err error)
	// SetPaid flips the payment flag to true.
	SetPaid(ctx context.Context, id int64) error
	// Delete removes an order and its items; ErrNotFound when absent.
	Delete(ctx context.Context, id int64) error
}

// StaffDirectory resolves staff identifiers to their role.
type StaffDirectory interface {
	// RoleOf returns the member's role; ErrStaffNotFound when the id is unknown.
	RoleOf(ctx context.Context, staffID int64) (staff.Role, error)
}

// Catalog resolves products so the workflow can capture unit prices.
type Catalog interface {
	// Get returns the product; ErrNotFound when the id is unknown.
	Get(ctx context.Context, productID int64) (*catalog.Product, error)
}
