package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/lumiere/internal/model"
)

// LockStation revokes a station token. The lock is kept until the token
// would have expired anyway.
func LockStation(ctx context.Context, db *sql.DB, jti string, role model.Role, expiresAt time.Time) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO station_locks (jti, role, expires_at) VALUES (?, ?, ?)`,
		jti, role, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("locking station: %w", err)
	}

	if _, err := PurgeStationLocks(ctx, db, time.Now()); err != nil {
		return err
	}
	return nil
}

// IsStationLocked reports whether the token with the given JTI was locked.
func IsStationLocked(ctx context.Context, db *sql.DB, jti string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM station_locks WHERE jti = ?`, jti,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking station lock: %w", err)
	}
	return count > 0, nil
}

// PurgeStationLocks drops locks of tokens that expired before now.
func PurgeStationLocks(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM station_locks WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purging station locks: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
