package application

import (
	"context"
	"strings"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// ForgotPassword requests a reset link. Expected validation failures come
// back as OK=false with an inline message; only transport-level trouble is an
// error.
func (s *Service) ForgotPassword(ctx context.Context, email string) (ports.OpResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ports.OpResult{OK: false, Message: "email is required"}, nil
	}
	return s.backend.ForgotPassword(ctx, email)
}

// ResetPassword consumes a reset token. The confirmation check is client-side
// validation and never reaches the network.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirm string) (ports.OpResult, error) {
	if strings.TrimSpace(token) == "" {
		return ports.OpResult{OK: false, Message: "reset token is required"}, nil
	}
	if newPassword == "" {
		return ports.OpResult{OK: false, Message: "new password is required"}, nil
	}
	if newPassword != confirm {
		return ports.OpResult{OK: false, Message: "passwords do not match"}, nil
	}
	return s.backend.ResetPassword(ctx, token, newPassword)
}

// TwoFactorStatus reads the account's second-factor state.
func (s *Service) TwoFactorStatus(ctx context.Context) (ports.TwoFactorStatus, error) {
	token := s.Token()
	if token == "" {
		return ports.TwoFactorStatus{}, domain.ErrUnauthorized
	}
	return s.backend.TwoFactorStatus(ctx, token)
}

// EnableTwoFactor turns the second factor on for the authenticated account.
func (s *Service) EnableTwoFactor(ctx context.Context) (ports.OpResult, error) {
	token := s.Token()
	if token == "" {
		return ports.OpResult{}, domain.ErrUnauthorized
	}
	return s.backend.EnableTwoFactor(ctx, token)
}

// DisableTwoFactor turns the second factor off.
func (s *Service) DisableTwoFactor(ctx context.Context) (ports.OpResult, error) {
	token := s.Token()
	if token == "" {
		return ports.OpResult{}, domain.ErrUnauthorized
	}
	return s.backend.DisableTwoFactor(ctx, token)
}
