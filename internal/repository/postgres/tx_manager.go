package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maxviazov/pelada-service/internal/repository"
)

// q is a minimal query executor implemented by both pgxpool.Pool and pgx.Tx.
type q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok && tx != nil
}

func getQ(ctx context.Context, pool *pgxpool.Pool) q {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return pool
}

type txManager struct{ pool *pgxpool.Pool }

func NewTxManager(pool *pgxpool.Pool) repository.TxManager { return &txManager{pool: pool} }

// WithinTx runs fn in a transaction carried by ctx. If ctx already carries one, fn joins it
// and the outer call decides commit or rollback.
func (m *txManager) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	if err := ensurePool(m.pool); err != nil {
		return err
	}
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return repository.MapPgError(err)
	}
	defer func() {
		// no-op after a successful commit
		_ = tx.Rollback(context.Background())
	}()

	if err := fn(withTx(ctx, tx)); err != nil {
		return repository.MapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return repository.MapPgError(err)
	}
	return nil
}

var _ repository.TxManager = (*txManager)(nil)

func ensurePool(pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("pgx pool is nil")
	}
	return nil
}
