package service

import (
	"context"
	"fmt"

	"storefront-api/internal/auth"
	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// AdminStore is the persistence surface admin accounts need.
type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*models.Admin, error)
}

// AdminService handles dashboard operator login and password changes
type AdminService struct {
	store  AdminStore
	creds  CredentialStore
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store AdminStore, creds CredentialStore, tokens *auth.TokenManager) *AdminService {
	return &AdminService{store: store, creds: creds, tokens: tokens, logger: util.GetLogger()}
}

// ChangePasswordRequest rotates the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Login verifies admin credentials and issues an admin bearer token.
func (s *AdminService) Login(ctx context.Context, req *LoginRequest) (string, *models.Admin, error) {
	admin, err := s.store.GetAdminByEmail(ctx, req.Email)
	if err != nil {
		util.LoginsTotal.WithLabelValues("admin", "failure").Inc()
		return "", nil, models.ErrInvalidCredentials
	}
	if !auth.CheckPassword(admin.PasswordHash, req.Password) {
		util.LoginsTotal.WithLabelValues("admin", "failure").Inc()
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email, true, auth.TokenTypeAdmin)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue token: %w", err)
	}

	util.LoginsTotal.WithLabelValues("admin", "success").Inc()
	return token, admin, nil
}

// ChangePassword verifies the current password and stores a new one.
func (s *AdminService) ChangePassword(ctx context.Context, adminID int64, req *ChangePasswordRequest) error {
	admin, err := s.store.GetAdminByID(ctx, adminID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
		return models.ErrInvalidCredentials
	}
	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.creds.UpdatePassword(ctx, adminID, hash); err != nil {
		return err
	}

	s.logger.Info("Admin password changed", zap.Int64("admin_id", adminID))
	return nil
}
