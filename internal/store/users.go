package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-api/internal/models"

	"github.com/lib/pq"
)

// CreateUser inserts a new user, mapping unique-constraint violations to
// domain errors.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, addresses, recent_searches)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Phone, user.Addresses, pq.Array([]string(user.RecentSearches)),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return models.ErrDuplicateEmail
		}
		if isUniqueViolation(err, "users_phone_key") {
			return models.ErrDuplicatePhone
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE lower(email) = lower($1)", email)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile updates the mutable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, phone = $3, updated_at = NOW()
		WHERE id = $4`,
		user.FirstName, user.LastName, user.Phone, user.ID)
	if err != nil && isUniqueViolation(err, "users_phone_key") {
		return models.ErrDuplicatePhone
	}
	return err
}

// UpdateUserAddresses replaces the user's address book.
func (s *Store) UpdateUserAddresses(ctx context.Context, userID int64, addrs models.AddressList) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET addresses = $1, updated_at = NOW() WHERE id = $2", addrs, userID)
	return err
}

// UpdateRecentSearches replaces the user's recent-search list.
func (s *Store) UpdateRecentSearches(ctx context.Context, userID int64, terms []string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET recent_searches = $1, updated_at = NOW() WHERE id = $2",
		pq.Array(terms), userID)
	return err
}

// GetAdminByID retrieves an admin by ID
func (s *Store) GetAdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAdminByEmail retrieves an admin by email
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE lower(email) = lower($1)", email)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// Credentials is the store-backed credential view used by the shared
// password-reset flow. A single implementation serves both user and admin
// accounts; table names differ, the algorithm does not.
type Credentials struct {
	s     *Store
	table string
}

// UserCredentials returns the credential view over the users table.
func (s *Store) UserCredentials() *Credentials {
	return &Credentials{s: s, table: "users"}
}

// AdminCredentials returns the credential view over the admins table.
func (s *Store) AdminCredentials() *Credentials {
	return &Credentials{s: s, table: "admins"}
}

// FindByEmail returns the account credentials for an email.
func (c *Credentials) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	query := fmt.Sprintf(
		"SELECT id, email, password_hash, reset_otp, otp_expires_at FROM %s WHERE lower(email) = lower($1)",
		c.table)
	row := c.s.db.QueryRowxContext(ctx, query, email)
	err := row.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &acc.ResetOTP, &acc.OTPExpiresAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// SetOTP stores a reset code with its expiry.
func (c *Credentials) SetOTP(ctx context.Context, id int64, otp string, expiresAt time.Time) error {
	query := fmt.Sprintf(
		"UPDATE %s SET reset_otp = $1, otp_expires_at = $2, updated_at = NOW() WHERE id = $3", c.table)
	_, err := c.s.db.ExecContext(ctx, query, otp, expiresAt, id)
	return err
}

// ClearOTP removes any pending reset code.
func (c *Credentials) ClearOTP(ctx context.Context, id int64) error {
	query := fmt.Sprintf(
		"UPDATE %s SET reset_otp = NULL, otp_expires_at = NULL, updated_at = NOW() WHERE id = $1", c.table)
	_, err := c.s.db.ExecContext(ctx, query, id)
	return err
}

// UpdatePassword stores a new password hash.
func (c *Credentials) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := fmt.Sprintf(
		"UPDATE %s SET password_hash = $1, updated_at = NOW() WHERE id = $2", c.table)
	_, err := c.s.db.ExecContext(ctx, query, hash, id)
	return err
}
