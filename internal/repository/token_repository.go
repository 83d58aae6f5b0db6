package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrTokenReused is returned when a presented refresh token exists but was
// already revoked. A revoked token showing up again means the raw value
// leaked or an old client replayed it; the auth handler reacts by revoking
// every session the user has.
var ErrTokenReused = errors.New("refresh token reused")

// TokenRepo persists refresh tokens for the auth endpoints. Only the
// SHA-256 hash of a token reaches the database; bidders and sellers
// present the raw value, the handler hashes it, and lookups go by hash.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a freshly minted token hash with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh resolves a presented token hash to its owner. Unknown or
// expired hashes return sql.ErrNoRows; revoked ones return ErrTokenReused
// together with the owning user id so the caller can treat the replay as a
// compromise signal and cut the user's other sessions.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if err := classifyRefresh(expiresAt, revokedAt, time.Now().UTC()); err != nil {
		return userID, err
	}
	return userID, nil
}

// classifyRefresh decides whether a stored token row is still usable.
// Revocation wins over expiry: a revoked token that has also expired is
// still a reuse signal, not just a stale one.
func classifyRefresh(expiresAt time.Time, revokedAt sql.NullTime, now time.Time) error {
	if revokedAt.Valid {
		return ErrTokenReused
	}
	if now.After(expiresAt) {
		return sql.ErrNoRows
	}
	return nil
}

// RevokeByHash marks a single token as revoked, as happens on rotation
// and logout.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active token a user holds. Invoked when
// a reused token suggests the user's sessions are compromised.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
