package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgx"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type permanent interface {
	IsPermanent() bool
}

// ReliableExec acquires a pool connection and runs f, retrying with exponential backoff
// until maxRuntime elapses. Errors implementing IsPermanent() are not retried.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, maxRuntime time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	ctx, cancel := context.WithTimeout(ctx, maxRuntime)
	defer cancel()

	return retry(ctx, func() error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("error in pool.Acquire: %w", err)
		}
		defer conn.Release()
		return f(ctx, conn)
	})
}

// ReliableExecInTx is ReliableExec inside a CRDB transaction, which crdbpgx restarts on
// serialization failures.
func ReliableExecInTx(ctx context.Context, pool *pgxpool.Pool, maxRuntime time.Duration, f func(ctx context.Context, tx pgx.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, maxRuntime)
	defer cancel()

	return retry(ctx, func() error {
		return crdbpgx.ExecuteTx(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			return f(ctx, tx)
		})
	})
}

func retry(ctx context.Context, f func() error) error {
	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		err := f()
		var p permanent
		if errors.As(err, &p) && p.IsPermanent() {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
