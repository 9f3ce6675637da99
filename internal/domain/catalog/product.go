package catalog

import "comanda/internal/domain/orders"

// Product is a catalog entry. Orders capture Price at the moment a line item
// is added; changing it here never rewrites existing orders.
type Product struct {
	ID        int64
	Name      string
	Category  string
	Price     orders.Money
	Available bool
}
