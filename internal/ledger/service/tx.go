package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	id "wardbook/pkg/domain"
	dErrors "wardbook/pkg/domain-errors"
	platformtx "wardbook/pkg/platform/tx"
)

// LedgerTx provides a transactional boundary serialized per
// (fee type, household) pair. Two concurrent payments against the same pair
// must not both pass the remaining-balance check against a stale balance;
// payments against different pairs proceed independently.
type LedgerTx interface {
	RunInPairTx(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID, fn func(ctx context.Context) error) error
}

// numLedgerShards spreads pair locks across shards to reduce contention
// under concurrent load.
const numLedgerShards = 128

const defaultLedgerTxTimeout = 5 * time.Second

// shardedLedgerTx serializes pairs behind sharded mutexes, hashing the pair
// key with FNV-1a for distribution.
type shardedLedgerTx struct {
	shards  [numLedgerShards]sync.Mutex
	timeout time.Duration
}

// NewMemoryTx returns the in-memory transactional boundary used with the
// in-memory stores.
func NewMemoryTx() LedgerTx {
	return &shardedLedgerTx{}
}

func (t *shardedLedgerTx) RunInPairTx(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLedgerTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := hashPair(feeTypeID, householdID) % numLedgerShards
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

// hashPair uses FNV-1a over the concatenated pair key.
func hashPair(feeTypeID id.FeeTypeID, householdID id.HouseholdID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, s := range []string{feeTypeID.String(), householdID.String()} {
		for i := 0; i < len(s); i++ {
			h ^= uint32(s[i])
			h *= fnvPrime
		}
	}
	return h
}

// postgresLedgerTx wraps ledger mutations in a database transaction and
// takes a transaction-scoped advisory lock on the pair, so concurrent
// payments against one pair serialize at the database.
type postgresLedgerTx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTx returns the postgres-backed transactional boundary.
func NewPostgresTx(db *sql.DB) LedgerTx {
	return &postgresLedgerTx{db: db}
}

func (t *postgresLedgerTx) RunInPairTx(ctx context.Context, feeTypeID id.FeeTypeID, householdID id.HouseholdID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLedgerTxTimeout
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

	// Released automatically at commit or rollback.
	pairKey := feeTypeID.String() + ":" + householdID.String()
	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, pairKey); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock ledger pair")
	}

	if err := fn(platformtx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	return sqlTx.Commit()
}
