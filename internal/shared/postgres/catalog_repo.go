package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"comanda/internal/domain/catalog"
	"comanda/internal/domain/orders"
	"comanda/internal/ports"
)

// CatalogRepo resolves catalog products for price capture.
type CatalogRepo struct{}

var _ ports.Catalog = (*CatalogRepo)(nil)

// NewCatalogRepo constructs a new CatalogRepo.
func NewCatalogRepo() *CatalogRepo {
	return &CatalogRepo{}
}

// Get loads one product by id.
func (r *CatalogRepo) Get(ctx context.Context, productID int64) (*catalog.Product, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var product catalog.Product
	var cents int64
	err = tx.QueryRow(ctx, `
		SELECT id, name, category, (price::numeric*100)::bigint, available
		FROM products
		WHERE id = $1
	`, productID).Scan(&product.ID, &product.Name, &product.Category, &cents, &product.Available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	product.Price = orders.Money(cents)
	return &product, nil
}
