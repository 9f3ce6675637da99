package orders

import "time"

// LineItem references a catalog product inside an order. UnitPrice is captured
// at the moment the item is added; later catalog price changes never touch it.
type LineItem struct {
	ID        int64 // DB PK; zero in-memory before persistence
	OrderID   int64
	ProductID int64
	Name      string
	Quantity  int
	UnitPrice Money // per-unit in cents, immutable snapshot
}

// Subtotal is quantity times the captured unit price.
func (it LineItem) Subtotal() Money {
	return Money(it.Quantity) * it.UnitPrice
}

// Order is the aggregate for a customer's order. Items keep insertion order,
// which is the serving order.
type Order struct {
	ID           int64 // assigned by the store on creation, immutable after
	CustomerName string
	CreatedAt    time.Time
	Paid         bool
	Status       Status
	Items        []LineItem
}

// New builds an unpersisted order in the initial lifecycle state.
func New(customerName string, now time.Time) *Order {
	return &Order{
		CustomerName: customerName,
		CreatedAt:    now,
		Status:       StatusReceived,
	}
}

// Total sums the line item subtotals. An order with no items totals zero.
func (order *Order) Total() Money {
	var sum Money
	for _, it := range order.Items {
		sum += it.Subtotal()
	}
	return sum
}

// AddItem appends a line item, capturing the unit price passed in.
func (order *Order) AddItem(productID int64, name string, quantity int, unitPrice Money) {
	order.Items = append(order.Items, LineItem{
		OrderID:   order.ID,
		ProductID: productID,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// MarkPaid sets the payment flag. The flag only moves false->true.
func (order *Order) MarkPaid() { order.Paid = true }

// ChangeStatus applies a guarded lifecycle transition. On guard failure the
// order is left unmodified.
func (order *Order) ChangeStatus(next Status) error {
	if err := Transition(order.Status, next); err != nil {
		return err
	}
	order.Status = next
	return nil
}
