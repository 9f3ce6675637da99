package orders

import "time"

// Snapshot is an immutable point-in-time copy of an order's observable fields.
// It never references the live Order, so later mutations cannot leak into a
// recorded entry.
type Snapshot struct {
	OrderID      int64
	CustomerName string
	CreatedAt    time.Time
	Paid         bool
	ItemCount    int
	Total        Money
	Status       Status
	TakenAt      time.Time
}

// TakeSnapshot captures the order's observable fields at now.
func TakeSnapshot(order *Order, now time.Time) Snapshot {
	return Snapshot{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		CreatedAt:    order.CreatedAt,
		Paid:         order.Paid,
		ItemCount:    len(order.Items),
		Total:        order.Total(),
		Status:       order.Status,
		TakenAt:      now,
	}
}
