package storage

import (
	"context"
	"fmt"
)

// TryLock takes a cluster-wide advisory lock for key without blocking. On
// PostgreSQL this is a session lock held on a dedicated connection; SQLite
// has a single writer process, so an in-process lock is enough there.
// The returned unlock func must be called when ok is true.
func (s *SQLStore) TryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error) {
	if s.driver == "sqlite3" {
		if _, held := s.locks.LoadOrStore(key, struct{}{}); held {
			return nil, false, nil
		}
		return func() { s.locks.Delete(key) }, true, nil
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}
	if err := conn.GetContext(ctx, &ok, `SELECT pg_try_advisory_lock($1)`, key); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Close()
		return nil, false, nil
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, key)
		conn.Close()
	}, true, nil
}
