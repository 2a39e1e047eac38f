package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// LoginParams carries one credential submission. TwoFactorCode is empty on the
// first step; when the backend answered with a step-up requirement the caller
// resubmits the same credentials together with the 6-digit code.
type LoginParams struct {
	Email         string
	Password      string
	Role          domain.Role
	TwoFactorCode string
}

// LoginResult is the split login outcome. Requires2FA is a distinguished
// non-error branch: credentials were correct but a second factor is needed,
// and no session material is present. Otherwise User/Token are populated.
type LoginResult struct {
	Requires2FA bool
	Message     string
	User        domain.User
	Token       string
}

// RegisterParams is the registration profile. Role selects the profile
// variant the backend creates.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
	Role      domain.Role
}

// OpResult reports fire-and-report operations (password recovery, 2FA
// management). Expected validation failures come back as OK=false with a
// renderable message instead of an error; errors are reserved for transport
// and authorization failures.
type OpResult struct {
	OK      bool
	Message string
}

// TwoFactorStatus describes the account's current second-factor state.
type TwoFactorStatus struct {
	Enabled bool
	Method  string
}

// PaymentFilter narrows the payment history feed.
type PaymentFilter struct {
	TenantID uuid.UUID
	From     time.Time
	To       time.Time
}

// BackendClient is the portal's single wire boundary: the REST backend. Every
// call is context-bound so navigation can abandon in-flight requests.
type BackendClient interface {
	Login(ctx context.Context, params LoginParams) (LoginResult, error)
	Register(ctx context.Context, params RegisterParams) (LoginResult, error)
	ForgotPassword(ctx context.Context, email string) (OpResult, error)
	ResetPassword(ctx context.Context, token, newPassword string) (OpResult, error)
	TwoFactorStatus(ctx context.Context, token string) (TwoFactorStatus, error)
	EnableTwoFactor(ctx context.Context, token string) (OpResult, error)
	DisableTwoFactor(ctx context.Context, token string) (OpResult, error)
	ListPayments(ctx context.Context, token string, filter PaymentFilter) ([]domain.PaymentRecord, error)
}
