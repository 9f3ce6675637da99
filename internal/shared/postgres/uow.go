package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"comanda/internal/ports"
)

// txKey carries the active transaction through the context.
type txKey struct{}

// TxManager implements ports.UnitOfWork over a pgx pool. Repositories pull
// the transaction back out of the context with MustTxFromContext.
type TxManager struct {
	pool *pgxpool.Pool
}

var _ ports.UnitOfWork = (*TxManager)(nil)

// NewTxManager wraps the pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx begins a transaction, runs fn with it in the context, and commits
// when fn succeeds. Any error rolls everything back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	// no-op after a successful commit
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MustTxFromContext returns the transaction started by WithinTx.
func MustTxFromContext(ctx context.Context) (pgx.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil, errors.New("postgres: no transaction in context")
	}
	return tx, nil
}
