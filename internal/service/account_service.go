package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"

	"storefront-api/internal/auth"
	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// AccountStore is the persistence surface user accounts need.
type AccountStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUserProfile(ctx context.Context, user *models.User) error
	UpdateUserAddresses(ctx context.Context, userID int64, addrs models.AddressList) error
}

// AccountService handles customer registration, login, profile and addresses
type AccountService struct {
	store  AccountStore
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(store AccountStore, tokens *auth.TokenManager) *AccountService {
	return &AccountService{store: store, tokens: tokens, logger: util.GetLogger()}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Phone     string `json:"phone,omitempty"`
}

// LoginRequest is the signin payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest patches the mutable profile fields.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Register validates and stores a new customer account. No token is issued;
// the caller logs in separately.
func (s *AccountService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := validateName(req.FirstName); err != nil {
		return nil, err
	}
	if err := validateName(req.LastName); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        nullString(strings.TrimSpace(req.Phone)),
		Addresses:    models.AddressList{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	util.RegistrationsTotal.Inc()
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password return the same error.
func (s *AccountService) Login(ctx context.Context, req *LoginRequest) (string, *models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		util.LoginsTotal.WithLabelValues("user", "failure").Inc()
		return "", nil, models.ErrInvalidCredentials
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		util.LoginsTotal.WithLabelValues("user", "failure").Inc()
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.IsAdmin, auth.TokenTypeUser)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	util.LoginsTotal.WithLabelValues("user", "success").Inc()
	return token, user, nil
}

// Profile returns the caller's account.
func (s *AccountService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.store.GetUserByID(ctx, userID)
}

// UpdateProfile patches name/phone.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		if err := validateName(req.FirstName); err != nil {
			return nil, err
		}
		user.FirstName = strings.TrimSpace(req.FirstName)
	}
	if req.LastName != "" {
		if err := validateName(req.LastName); err != nil {
			return nil, err
		}
		user.LastName = strings.TrimSpace(req.LastName)
	}
	if req.Phone != "" {
		user.Phone = nullString(strings.TrimSpace(req.Phone))
	}

	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Addresses returns the caller's address book.
func (s *AccountService) Addresses(ctx context.Context, userID int64) (models.AddressList, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

// AddAddress appends to the address book.
func (s *AccountService) AddAddress(ctx context.Context, userID int64, addr models.Address) (models.AddressList, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	addrs := append(user.Addresses, normalizeAddress(addr))
	if err := s.store.UpdateUserAddresses(ctx, userID, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// UpdateAddress replaces the address at index.
func (s *AccountService) UpdateAddress(ctx context.Context, userID int64, index int, addr models.Address) (models.AddressList, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(user.Addresses) {
		return nil, models.ErrNotFound
	}

	user.Addresses[index] = normalizeAddress(addr)
	if err := s.store.UpdateUserAddresses(ctx, userID, user.Addresses); err != nil {
		return nil, err
	}
	return user.Addresses, nil
}

// RemoveAddress deletes the address at index.
func (s *AccountService) RemoveAddress(ctx context.Context, userID int64, index int) (models.AddressList, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(user.Addresses) {
		return nil, models.ErrNotFound
	}

	addrs := append(user.Addresses[:index], user.Addresses[index+1:]...)
	if err := s.store.UpdateUserAddresses(ctx, userID, addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 64 {
		return fmt.Errorf("%w: name must be 2-64 characters", ErrValidation)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return email, nil
}
