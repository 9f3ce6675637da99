package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"comanda/internal/domain/orders"
	"comanda/internal/ports"
)

// OrdersRepo implements persistence for orders using pgx and SQL.
// Money columns are NUMERIC(10,2); integer cents are converted in SQL.
type OrdersRepo struct{}

var _ ports.OrderRepository = (*OrdersRepo)(nil)

// NewOrdersRepo constructs a new OrdersRepo.
func NewOrdersRepo() *OrdersRepo {
	return &OrdersRepo{}
}

// Create inserts the order header and assigns its id.
func (r *OrdersRepo) Create(ctx context.Context, order *orders.Order) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO orders (customer_name, created_at, paid, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		order.CustomerName,
		order.CreatedAt,
		order.Paid,
		order.Status.String(),
	).Scan(&order.ID)
}

// GetByID retrieves an order with its line items in insertion order.
func (r *OrdersRepo) GetByID(ctx context.Context, id int64) (*orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var order orders.Order
	var status string
	err = tx.QueryRow(ctx, `
		SELECT id, customer_name, created_at, paid, status
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerName, &order.CreatedAt, &order.Paid, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	order.Status, err = orders.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, product_id, name, quantity, (unit_price::numeric*100)::bigint
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, order.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item orders.LineItem
		var cents int64
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.Quantity, &cents); err != nil {
			return nil, err
		}
		item.OrderID = order.ID
		item.UnitPrice = orders.Money(cents)
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &order, nil
}

// AddItem inserts one line item and assigns its id.
func (r *OrdersRepo) AddItem(ctx context.Context, orderID int64, item *orders.LineItem) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5::numeric/100)
		RETURNING id`,
		orderID,
		item.ProductID,
		item.Name,
		item.Quantity,
		int64(item.UnitPrice),
	).Scan(&item.ID)
	if err != nil {
		return err
	}
	item.OrderID = orderID
	return nil
}

// UpdateStatusCAS updates the order status using a compare-and-swap so two
// concurrent transitions from the same source state cannot both apply.
func (r *OrdersRepo) UpdateStatusCAS(ctx context.Context, id int64, expected, next orders.Status) (bool, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return false, err
	}

	var updated bool
	err = tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND status = $3
		RETURNING true
	`, next.String(), id, expected.String()).Scan(&updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return updated, nil
}

// SetPaid flips the payment flag to true.
func (r *OrdersRepo) SetPaid(ctx context.Context, id int64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE orders
		SET paid = true
		WHERE id = $1
	`, id)
	return err
}

// Delete removes the order and its line items.
func (r *OrdersRepo) Delete(ctx context.Context, id int64) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
