package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"comanda/internal/domain/orders"
	"comanda/internal/ports"
	"comanda/internal/shared/logger"
)

// Config carries the orchestrator's fixed configuration. It is passed in at
// construction; nothing here is reachable through a global.
type Config struct {
	Restaurant string
}

// Service is the workflow orchestrator: the single component that sequences
// aggregate mutation, persistence, dispatch, notification, and history
// recording. It is the only caller of the record store's write operations
// for orders.
type Service struct {
	cfg     Config
	uow     ports.UnitOfWork
	repo    ports.OrderRepository
	staff   ports.StaffDirectory
	catalog ports.Catalog
	chain   *Chain
	fanout  *Broadcaster
	history *History
	locks   *orderLocks
	logger  *logger.Logger
	clock   func() time.Time
}

// New wires the orchestrator with its collaborators.
func New(
	cfg Config,
	uow ports.UnitOfWork,
	repo ports.OrderRepository,
	staff ports.StaffDirectory,
	catalog ports.Catalog,
	chain *Chain,
	fanout *Broadcaster,
	history *History,
	log *logger.Logger,
) *Service {
	return &Service{
		cfg:     cfg,
		uow:     uow,
		repo:    repo,
		staff:   staff,
		catalog: catalog,
		chain:   chain,
		fanout:  fanout,
		history: history,
		locks:   newOrderLocks(),
		logger:  log,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder persists a new order in the initial state and records its first
// history snapshot. Creation does not broadcast: only lifecycle transitions do.
func (service *Service) CreateOrder(ctx context.Context, customerName string) (*orders.Order, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, errors.New("customer name is required")
	}

	order := orders.New(customerName, service.clock())
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		return service.repo.Create(txCtx, order)
	})
	if err != nil {
		service.logger.Error(ctx, "order_create_failed", "failed to persist new order", err)
		return nil, err
	}

	service.history.Record(order, service.clock())
	service.logger.Info(ctx, "order_created", "order created", map[string]any{
		"order_id":   order.ID,
		"customer":   order.CustomerName,
		"restaurant": service.cfg.Restaurant,
	})
	return order, nil
}

// AddLineItem appends a line item, capturing the product's unit price at this
// moment. Later catalog price changes never touch existing orders.
func (service *Service) AddLineItem(ctx context.Context, orderID, productID int64, quantity int) (*orders.Order, error) {
	if quantity < 1 {
		return nil, errors.New("quantity must be a positive integer")
	}

	unlock := service.locks.lock(orderID)
	defer unlock()

	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		product, err := service.catalog.Get(txCtx, productID)
		if err != nil {
			return err
		}

		order.AddItem(product.ID, product.Name, quantity, product.Price)
		return service.repo.AddItem(txCtx, order.ID, &order.Items[len(order.Items)-1])
	})
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			service.logger.Error(ctx, "order_add_item_failed", "failed to add line item", err)
		}
		return nil, err
	}

	service.history.Record(order, service.clock())
	service.logger.Info(ctx, "order_item_added", "line item added", map[string]any{
		"order_id":   order.ID,
		"product_id": productID,
		"quantity":   quantity,
		"total":      order.Total().Float(),
	})
	return order, nil
}

// StartCooking moves the order Received -> Cooking.
func (service *Service) StartCooking(ctx context.Context, orderID int64) (*orders.Order, error) {
	return service.transition(ctx, orderID, orders.StatusCooking)
}

// FinishOrder moves the order Cooking -> Done.
func (service *Service) FinishOrder(ctx context.Context, orderID int64) (*orders.Order, error) {
	return service.transition(ctx, orderID, orders.StatusDone)
}

// transition applies one guarded lifecycle transition as a single logical
// unit: load, guard, persist via compare-and-set, record history, broadcast.
// A failed guard leaves no persisted change, no history entry, and no
// notification.
func (service *Service) transition(ctx context.Context, orderID int64, next orders.Status) (*orders.Order, error) {
	unlock := service.locks.lock(orderID)
	defer unlock()

	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		expected := order.Status
		if err := order.ChangeStatus(next); err != nil {
			return err
		}

		// the per-order lock already serializes callers; a CAS miss against
		// the stored row means another writer bypassed the lock
		applied, err := service.repo.UpdateStatusCAS(txCtx, order.ID, expected, next)
		if err != nil {
			return err
		}
		if !applied {
			return &orders.InvalidTransitionError{From: expected, To: next}
		}
		return nil
	})
	if err != nil {
		var invalid *orders.InvalidTransitionError
		switch {
		case errors.As(err, &invalid):
			service.logger.Warn(ctx, "invalid_transition", invalid.Error(), map[string]any{
				"order_id": orderID,
			})
		case errors.Is(err, ports.ErrNotFound):
			// surfaced to the caller as-is
		default:
			service.logger.Error(ctx, "order_transition_failed", "failed to commit transition", err)
		}
		return nil, err
	}

	// the change is durably committed; history and fan-out follow
	// unconditionally so no committed mutation goes unrecorded
	snap := service.history.Record(order, service.clock())
	if err := service.fanout.Notify(ctx, snap, next); err != nil {
		// best-effort fan-out: collected failures are warnings, never fatal
		service.logger.Warn(ctx, "notification_delivery_failed", err.Error(), map[string]any{
			"order_id": orderID,
		})
	}

	service.logger.Info(ctx, "order_transitioned", "order moved to "+next.String(), map[string]any{
		"order_id":   order.ID,
		"new_status": next.String(),
	})
	return order, nil
}

// MarkPaid sets the payment flag. Permitted in any lifecycle state.
func (service *Service) MarkPaid(ctx context.Context, orderID int64) (*orders.Order, error) {
	unlock := service.locks.lock(orderID)
	defer unlock()

	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		order.MarkPaid()
		return service.repo.SetPaid(txCtx, order.ID)
	})
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			service.logger.Error(ctx, "order_mark_paid_failed", "failed to mark order paid", err)
		}
		return nil, err
	}

	service.history.Record(order, service.clock())
	service.logger.Info(ctx, "order_paid", "order marked as paid", map[string]any{
		"order_id": order.ID,
	})
	return order, nil
}

// DispatchByRole routes the order through the handler chain. Dispatch is a
// read-and-act operation: it never mutates the order, appends no history, and
// triggers no notification.
func (service *Service) DispatchByRole(ctx context.Context, orderID int64, role string) (Outcome, error) {
	var order *orders.Order
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetByID(txCtx, orderID)
		return err
	})
	if err != nil {
		return Outcome{}, err
	}

	return service.chain.Handle(ctx, order, role), nil
}

// DispatchByStaff resolves the staff member's role first, then dispatches.
func (service *Service) DispatchByStaff(ctx context.Context, orderID, staffID int64) (Outcome, error) {
	var order *orders.Order
	var role string
	err := service.uow.WithinTx(ctx, func(txCtx context.Context) error {
		var err error
		order, err = service.repo.GetByID(txCtx, orderID)
		if err != nil {
			return err
		}

		r, err := service.staff.RoleOf(txCtx, staffID)
		if err != nil {
			return err
		}
		role = string(r)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	return service.chain.Handle(ctx, order, role), nil
}

// RegisterRecipient adds a named in-process recipient to the fan-out.
// Duplicate names are legal; each registration receives its own notification.
func (service *Service) RegisterRecipient(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("recipient name is required")
	}

	service.fanout.Register(NewStaffRecipient(name, service.logger))
	service.logger.Info(ctx, "recipient_registered", "notification recipient registered", map[string]any{
		"name":       name,
		"recipients": service.fanout.Len(),
	})
	return nil
}

// ListHistory returns the full snapshot log, oldest first.
func (service *Service) ListHistory() []orders.Snapshot {
	return service.history.List()
}

// LatestSnapshot returns the most recent history entry for the order.
func (service *Service) LatestSnapshot(orderID int64) (orders.Snapshot, bool) {
	return service.history.Find(orderID)
}
