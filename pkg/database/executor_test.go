package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct {
	Querier
	commitErr   error
	committed   bool
	rolledBack  bool
	commitCalls *int
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	if t.commitCalls != nil {
		*t.commitCalls++
	}
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	beginErr  error
	commitErr func(attempt int) error
	begun     int
	txs       []*fakeTx
}

func (b *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (Tx, error) {
	b.begun++
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	tx := &fakeTx{}
	if b.commitErr != nil {
		tx.commitErr = b.commitErr(b.begun)
	}
	b.txs = append(b.txs, tx)
	return tx, nil
}

func testConfig() ExecutorConfig {
	return ExecutorConfig{
		WriteTimeout:   100 * time.Millisecond,
		ReadTimeout:    50 * time.Millisecond,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
}

func TestExecutor_Run_Success(t *testing.T) {
	db := &fakeBeginner{}
	exec := NewExecutor(db, testConfig(), zap.NewNop())

	called := 0
	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		called++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, db.begun)
	assert.True(t, db.txs[0].committed)
	assert.False(t, db.txs[0].rolledBack)
}

func TestExecutor_Run_TransientErrorRetriedThenSucceeds(t *testing.T) {
	db := &fakeBeginner{}
	exec := NewExecutor(db, testConfig(), zap.NewNop())

	attempts := 0
	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		attempts++
		if attempts < 3 {
			return serializationFailure()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	// The two failed attempts rolled back, the last one committed.
	assert.True(t, db.txs[0].rolledBack)
	assert.True(t, db.txs[1].rolledBack)
	assert.True(t, db.txs[2].committed)
}

func TestExecutor_Run_PermanentErrorNotRetried(t *testing.T) {
	db := &fakeBeginner{}
	exec := NewExecutor(db, testConfig(), zap.NewNop())

	permanent := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	attempts := 0
	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		attempts++
		return permanent
	})

	require.Error(t, err)
	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, "23505", pgErr.Code)
	assert.Equal(t, 1, attempts)
	assert.True(t, db.txs[0].rolledBack)
}

func TestExecutor_Run_DomainErrorPropagatesImmediately(t *testing.T) {
	db := &fakeBeginner{}
	exec := NewExecutor(db, testConfig(), zap.NewNop())

	domainErr := errors.New("slot taken")
	attempts := 0
	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		attempts++
		return domainErr
	})

	require.ErrorIs(t, err, domainErr)
	assert.Equal(t, 1, attempts)
}

func TestExecutor_Run_RetriesExhausted(t *testing.T) {
	db := &fakeBeginner{}
	cfg := testConfig()
	exec := NewExecutor(db, cfg, zap.NewNop())

	attempts := 0
	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		attempts++
		return serializationFailure()
	})

	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, cfg.MaxRetries+1, attempts)
}

func TestExecutor_Run_CommitSerializationFailureRetried(t *testing.T) {
	db := &fakeBeginner{
		commitErr: func(attempt int) error {
			if attempt == 1 {
				return serializationFailure()
			}
			return nil
		},
	}
	exec := NewExecutor(db, testConfig(), zap.NewNop())

	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, db.begun)
}

func TestExecutor_Run_DeadlineReturnsTimeout(t *testing.T) {
	db := &fakeBeginner{}
	cfg := testConfig()
	cfg.WriteTimeout = 20 * time.Millisecond
	exec := NewExecutor(db, cfg, zap.NewNop())

	err := exec.Run(context.Background(), func(ctx context.Context, q Querier) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, ErrTxTimeout)
	// A timeout is terminal, never retried.
	assert.Equal(t, 1, db.begun)
	assert.True(t, db.txs[0].rolledBack)
	assert.False(t, db.txs[0].committed)
}

func TestExecutor_RunReadOnly_UsesReadDeadline(t *testing.T) {
	db := &fakeBeginner{}
	cfg := testConfig()
	cfg.ReadTimeout = 20 * time.Millisecond
	cfg.WriteTimeout = 10 * time.Second
	exec := NewExecutor(db, cfg, zap.NewNop())

	start := time.Now()
	err := exec.RunReadOnly(context.Background(), func(ctx context.Context, q Querier) error {
		<-ctx.Done()
		return ctx.Err()
	})

	require.ErrorIs(t, err, ErrTxTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "55P03"}))
	assert.True(t, IsTransient(&pgconn.PgError{Code: "08006"}))
	assert.False(t, IsTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsTransient(errors.New("boom")))
}
