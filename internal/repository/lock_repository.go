package repository

import (
	"context"
)

// LockRepository implements ingest.Locker using a Postgres advisory
// transaction lock — it must be constructed over a *Tx, since
// pg_advisory_xact_lock releases automatically at commit/rollback and
// would otherwise leak for the life of a pooled connection (spec.md §4.9,
// §5).
type LockRepository struct {
	conn pgxIface
}

func NewLockRepository(conn pgxIface) *LockRepository {
	return &LockRepository{conn: conn}
}

func (r *LockRepository) LockFingerprint(ctx context.Context, fingerprint string) error {
	_, err := r.conn.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, fingerprint)
	return err
}
