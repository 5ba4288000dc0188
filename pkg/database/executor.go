package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	// ErrTxTimeout reports that the operation's wall-clock deadline elapsed.
	// The transaction was rolled back; no partial state remains.
	ErrTxTimeout = errors.New("transaction deadline exceeded")

	// ErrRetriesExhausted reports that every retry attempt hit a transient
	// storage failure.
	ErrRetriesExhausted = errors.New("transaction retries exhausted")
)

// ExecutorConfig bounds a transaction in time and retries.
type ExecutorConfig struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// Executor runs units of work inside serializable transactions with a hard
// deadline, retrying transient storage failures with exponential backoff.
// Serializable isolation is what makes two concurrent conflict checks on the
// same calendar mutually exclusive: the loser fails to commit and, on retry,
// observes the winner's row.
type Executor struct {
	db  Beginner
	cfg ExecutorConfig
	log *zap.Logger
}

func NewExecutor(db Beginner, cfg ExecutorConfig, log *zap.Logger) *Executor {
	return &Executor{
		db:  db,
		cfg: cfg,
		log: log.With(zap.String("component", "tx_executor")),
	}
}

// Run executes fn inside a read-write serializable transaction.
func (e *Executor) Run(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return e.run(ctx, pgx.ReadWrite, e.cfg.WriteTimeout, fn)
}

// RunReadOnly executes fn inside a read-only transaction with the shorter
// query deadline.
func (e *Executor) RunReadOnly(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	return e.run(ctx, pgx.ReadOnly, e.cfg.ReadTimeout, fn)
}

func (e *Executor) run(ctx context.Context, mode pgx.TxAccessMode, timeout time.Duration, fn func(ctx context.Context, q Querier) error) error {
	delay := e.cfg.RetryBaseDelay

	var lastErr error
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if delay > e.cfg.RetryMaxDelay {
				delay = e.cfg.RetryMaxDelay
			}
		}

		err := e.attempt(ctx, mode, timeout, fn)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrTxTimeout) || !IsTransient(err) {
			return err
		}

		lastErr = err
		e.log.Warn("Transient storage failure, retrying transaction",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("next_delay", delay),
		)
	}

	return fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}

func (e *Executor) attempt(ctx context.Context, mode pgx.TxAccessMode, timeout time.Duration, fn func(ctx context.Context, q Querier) error) error {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := e.db.BeginTx(attemptCtx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: mode,
	})
	if err != nil {
		return e.classify(ctx, attemptCtx, fmt.Errorf("begin transaction: %w", err))
	}

	if err := fn(attemptCtx, tx); err != nil {
		e.rollback(tx)
		return e.classify(ctx, attemptCtx, err)
	}

	if err := tx.Commit(attemptCtx); err != nil {
		e.rollback(tx)
		return e.classify(ctx, attemptCtx, fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// classify maps a deadline expiry on the attempt context to ErrTxTimeout so
// the caller can tell "we ran out of time" apart from every other outcome.
func (e *Executor) classify(parentCtx, attemptCtx context.Context, err error) error {
	if attemptCtx.Err() == context.DeadlineExceeded && parentCtx.Err() == nil {
		e.log.Error("Transaction aborted on deadline", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTxTimeout, err)
	}
	return err
}

// rollback runs on a fresh context since the attempt context may already be
// cancelled.
func (e *Executor) rollback(tx Tx) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		e.log.Warn("Transaction rollback failed", zap.Error(err))
	}
}

// IsTransient reports whether err is worth retrying: serialization and
// deadlock aborts, lock acquisition failures, and connection-class errors.
// Constraint and validation failures are permanent and propagate immediately.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
		// Class 08: connection exceptions
		return strings.HasPrefix(pgErr.Code, "08")
	}

	return pgconn.SafeToRetry(err)
}
