package database

import (
	"context"
	"fmt"
)

// Advisory lock classes. Each class namespaces the second lock key.
const (
	LockOptionOrdering    int32 = 1001
	LockMovementDuplicate int32 = 1002
)

// AdvisoryXactLock takes a transaction-scoped advisory lock on (class, key).
// It blocks until the lock is granted and is released at commit or rollback,
// so it must run on a pgx.Tx.
func AdvisoryXactLock(ctx context.Context, tx PGXDB, class int32, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::int4, hashtext($2))`, class, key)
	if err != nil {
		return fmt.Errorf("failed to acquire advisory lock %d: %w", class, err)
	}
	return nil
}
