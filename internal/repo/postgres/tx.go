package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const txMaxAttempts = 3

// WithTx runs fn in a read committed transaction and commits when fn returns
// nil. Serialization failures and deadlocks restart fn from scratch, so fn must
// not keep state across calls.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = runTx(ctx, pool, fn)
		if err == nil || !retryableTxError(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func retryableTxError(err error) bool {
	return isPgCode(err, pgSerializationFailure) || isPgCode(err, pgDeadlockDetected)
}
