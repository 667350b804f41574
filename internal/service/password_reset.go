package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-api/internal/auth"
	"storefront-api/internal/mailer"
	"storefront-api/internal/models"
	"storefront-api/internal/util"

	"go.uber.org/zap"
)

// otpRequestWindow limits how often one email may request a reset code.
const otpRequestWindow = time.Minute

// CredentialStore is the account view the reset flow operates on. The same
// flow serves users and admins over different backing tables.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	SetOTP(ctx context.Context, id int64, otp string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
}

// Throttle rate-limits OTP issuance. Backed by Redis SETNX in production.
type Throttle interface {
	Throttle(ctx context.Context, key string, window time.Duration) (bool, error)
}

// PasswordResetService runs the forgot-password OTP flow for one account
// kind.
type PasswordResetService struct {
	accounts CredentialStore
	mailer   mailer.Mailer
	throttle Throttle
	kind     string // "user" or "admin", metrics label only
	logger   *zap.Logger
}

// NewPasswordResetService creates a reset flow over one credential store.
// throttle may be nil.
func NewPasswordResetService(accounts CredentialStore, m mailer.Mailer, throttle Throttle, kind string) *PasswordResetService {
	return &PasswordResetService{
		accounts: accounts,
		mailer:   m,
		throttle: throttle,
		kind:     kind,
		logger:   util.GetLogger(),
	}
}

// RequestReset issues and mails a reset code. A nil return means only that
// the request was accepted: unknown emails succeed silently so the endpoint
// cannot be used to enumerate accounts. A mail-send failure clears the stored
// code and fails the request.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	if s.throttle != nil {
		ok, err := s.throttle.Throttle(ctx, fmt.Sprintf("otp:%s:%s", s.kind, email), otpRequestWindow)
		if err != nil {
			s.logger.Warn("OTP throttle check failed", zap.Error(err))
		} else if !ok {
			return models.ErrTooManyRequests
		}
	}

	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	if err := s.accounts.SetOTP(ctx, acc.ID, otp, time.Now().Add(auth.OTPValidity)); err != nil {
		return fmt.Errorf("failed to store OTP: %w", err)
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
		otp, int(auth.OTPValidity.Minutes()))
	if err := s.mailer.Send(acc.Email, "Password reset code", body); err != nil {
		if clearErr := s.accounts.ClearOTP(ctx, acc.ID); clearErr != nil {
			s.logger.Error("Failed to clear OTP after mail failure", zap.Error(clearErr))
		}
		return fmt.Errorf("failed to send reset mail: %w", err)
	}

	util.OTPIssuedTotal.WithLabelValues(s.kind).Inc()
	s.logger.Info("Password reset OTP issued", zap.String("kind", s.kind), zap.Int64("account_id", acc.ID))
	return nil
}

// VerifyOTP checks the code. An expired code is cleared on sight.
func (s *PasswordResetService) VerifyOTP(ctx context.Context, email, otp string) error {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	return s.checkOTP(ctx, acc, otp)
}

// ResetPassword consumes a valid code and stores a new password. The code is
// single-use: it is cleared on success.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrInvalidOTP
	}
	if err != nil {
		return err
	}

	if err := s.checkOTP(ctx, acc, otp); err != nil {
		return err
	}
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, acc.ID, hash); err != nil {
		return err
	}
	if err := s.accounts.ClearOTP(ctx, acc.ID); err != nil {
		s.logger.Error("Failed to clear consumed OTP", zap.Error(err))
	}

	s.logger.Info("Password reset completed", zap.String("kind", s.kind), zap.Int64("account_id", acc.ID))
	return nil
}

func (s *PasswordResetService) checkOTP(ctx context.Context, acc *models.Account, otp string) error {
	if !acc.ResetOTP.Valid || !acc.OTPExpiresAt.Valid {
		return models.ErrInvalidOTP
	}
	if time.Now().After(acc.OTPExpiresAt.Time) {
		if err := s.accounts.ClearOTP(ctx, acc.ID); err != nil {
			s.logger.Error("Failed to clear expired OTP", zap.Error(err))
		}
		return models.ErrInvalidOTP
	}
	if acc.ResetOTP.String != otp {
		return models.ErrInvalidOTP
	}
	return nil
}
