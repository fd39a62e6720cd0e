package storage

import (
	"context"
	"errors"
	"fmt"
)

// GetOrCreateUser maps a tailnet login to a user ID, creating the user the
// first time the login is seen. The dev user (id 1, login "local") is seeded
// by the initial migration, so tsnet-less deployments never reach this path.
// The display name is refreshed whenever a non-empty one is supplied.
func (db *DB) GetOrCreateUser(ctx context.Context, login, displayName string) (int, error) {
	if login == "" {
		return 0, errors.New("login is required")
	}
	var id int
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (login, display_name)
		VALUES ($1, $2)
		ON CONFLICT (login) DO UPDATE
			SET last_seen = NOW(), display_name = COALESCE(NULLIF($2, ''), users.display_name)
		RETURNING id
	`, login, displayName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("resolving user %q: %w", login, err)
	}
	return id, nil
}
