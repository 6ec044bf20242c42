package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const DBTxKey contextKey = "db_tx"

// WithTx returns a context carrying the given transaction. Repositories pick
// it up via TxFromContext so multi-statement operations share one transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, DBTxKey, tx)
}

// TxFromContext retrieves the transaction from context, or nil if none is set.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RunInTx begins a transaction, puts it on the context, and runs fn. The
// transaction is committed if fn returns nil and rolled back otherwise.
func RunInTx(ctx context.Context, db Beginner, fn func(ctx context.Context) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
