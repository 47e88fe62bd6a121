package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "wardbook/pkg/domain-errors"
	platformtx "wardbook/pkg/platform/tx"
)

// ApprovalTx provides the atomicity boundary for resolving a change request.
// Stamping the terminal state and running the side-effect resolver happen
// inside one call; any resolver failure rolls the whole approval back.
type ApprovalTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// memoryTx serializes all resolutions behind one mutex. Approvals are staff
// actions; contention here is not a concern.
type memoryTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewMemoryTx returns the in-memory approval boundary used with the
// in-memory stores.
func NewMemoryTx() ApprovalTx {
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

// postgresTx wraps a resolution in a database transaction carried through
// context, so the postgres stores join it transparently.
type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTx returns the postgres-backed approval boundary.
func NewPostgresTx(db *sql.DB) ApprovalTx {
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
