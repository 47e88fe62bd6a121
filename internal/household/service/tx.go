package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "wardbook/pkg/domain-errors"
	platformtx "wardbook/pkg/platform/tx"
)

// StoreTx provides a transactional boundary for registry mutations.
// Implementations may wrap a database transaction or, in-memory, a coarse
// lock. Registration and status toggles read and write several entities and
// must commit or roll back as one unit.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// memoryTx serializes all registry mutations behind one mutex. Contention is
// acceptable here: toggles and registrations are staff actions, not hot paths.
type memoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemoryTx returns the in-memory transactional boundary used with the
// in-memory stores.
func NewMemoryTx() StoreTx {
	return &memoryTx{}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// postgresTx wraps registry mutations in a database transaction carried
// through context, so the postgres stores join it transparently.
type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTx returns the postgres-backed transactional boundary.
func NewPostgresTx(db *sql.DB) StoreTx {
	return &postgresTx{db: db}
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(platformtx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
