package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const jwtSecretKey = "jwt_secret"

// GetJWTSecret returns the signing secret for station tokens, generating
// and storing one on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return ensureSetting(ctx, db, jwtSecretKey, func() (string, error) {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		return hex.EncodeToString(buf), nil
	})
}

// ensureSetting returns the stored value of key. When the key is missing,
// gen's value is stored first. INSERT OR IGNORE followed by a read keeps
// concurrent first runs on the same value.
func ensureSetting(ctx context.Context, db *sql.DB, key string, gen func() (string, error)) (string, error) {
	candidate, err := gen()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value); err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}
