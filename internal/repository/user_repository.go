package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ramikh/marketplace-auction/internal/model"
	"github.com/ramikh/marketplace-auction/internal/utils"
)

// UserRepo provides data access to the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES (?,?,?)",
		email, hash, role)
	if err != nil {
		// MySQL duplicate-key error code for the unique email index.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = "id, email, password_hash, role, device_token, is_active, created_at, updated_at"

func scanUser(row adScanner) (model.User, error) {
	var (
		u     model.User
		token sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &token, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if token.Valid {
		u.DeviceToken = &token.String
	}
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SetDeviceToken stores the push notification token registered by the
// user's device. An empty token clears the registration.
func (r *UserRepo) SetDeviceToken(ctx context.Context, userID uint64, token string) error {
	var val any
	if token != "" {
		val = token
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET device_token=?, updated_at=NOW() WHERE id=?", val, userID)
	return err
}

// DeviceToken returns the user's registered push token, or nil when the
// user has none. Used by the winner notification path; a missing user is
// reported so the caller can log it.
func (r *UserRepo) DeviceToken(ctx context.Context, userID uint64) (*string, error) {
	var token sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT device_token FROM users WHERE id=? LIMIT 1", userID).Scan(&token)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, nil
	}
	return &token.String, nil
}
