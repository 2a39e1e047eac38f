// Package demoapi is the development stand-in for the property-management
// backend. It serves the same REST contract the portal client speaks, over a
// seeded in-memory dataset by default, or Postgres/Redis when configured.
// It exists so the portal can be developed and tested without the real
// backend; it is not a product server.
package demoapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// Account couples the public user record with server-side credential state.
type Account struct {
	User             domain.User
	PasswordHash     string
	TwoFactorEnabled bool
	TwoFactorMethod  string
}

// DataStore is the demo dataset boundary. Implementations: seeded memory
// store and a gorm/Postgres store for durable local runs.
type DataStore interface {
	AccountByEmail(ctx context.Context, email string) (Account, error)
	AccountByID(ctx context.Context, id uuid.UUID) (Account, error)
	CreateAccount(ctx context.Context, account Account) error
	SetTwoFactor(ctx context.Context, userID uuid.UUID, enabled bool, method string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error

	CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error)

	UnitByID(ctx context.Context, id uuid.UUID) (domain.Unit, error)
	ListPayments(ctx context.Context, filter ports.PaymentFilter) ([]domain.PaymentRecord, error)
	CreatePayment(ctx context.Context, record domain.PaymentRecord) error
}

// Challenge is a pending second-factor envelope, keyed by the login email so
// a code submission can be matched without extra round trips.
type Challenge struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChallengeStore persists short-lived 2FA challenges.
type ChallengeStore interface {
	Put(ctx context.Context, key string, challenge Challenge, ttl time.Duration) error
	Get(ctx context.Context, key string) (*Challenge, error)
	Delete(ctx context.Context, key string) error
}

// LockoutState is the brute-force protection envelope for a login key.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore tracks failed-login state with short TTLs.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, window time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}
