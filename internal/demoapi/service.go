package demoapi

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// ServiceConfig tunes the demo auth behavior.
type ServiceConfig struct {
	TokenTTL        time.Duration
	ChallengeTTL    time.Duration
	FailedThreshold int
	LockoutDuration time.Duration
	// DefaultUnitID is assigned to tenants registered through the demo
	// backend so the payment flow works out of the box.
	DefaultUnitID uuid.UUID
}

// Service implements the demo backend's auth and payment use-cases over the
// store ports.
type Service struct {
	cfg        ServiceConfig
	data       DataStore
	challenges ChallengeStore
	lockouts   LockoutStore
	hasher     PasswordHasher
	signer     *TokenSigner
	logger     *slog.Logger
	nowFn      func() time.Time
}

type ServiceDependencies struct {
	Config     ServiceConfig
	Data       DataStore
	Challenges ChallengeStore
	Lockouts   LockoutStore
	Hasher     PasswordHasher
	Signer     *TokenSigner
	Logger     *slog.Logger
}

func NewService(deps ServiceDependencies) *Service {
	cfg := deps.Config
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.FailedThreshold <= 0 {
		cfg.FailedThreshold = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:        cfg,
		data:       deps.Data,
		challenges: deps.Challenges,
		lockouts:   deps.Lockouts,
		hasher:     deps.Hasher,
		signer:     deps.Signer,
		logger: logger.With(
			"service", "digiplot-demoapi",
			"module", "application",
			"layer", "application",
		),
		nowFn: func() time.Time { return time.Now().UTC() },
	}
}

type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	TwoFactorToken string `json:"twoFactorToken"`
}

// LoginOutcome is the split login result: either a step-up requirement or
// issued session material, never both.
type LoginOutcome struct {
	Requires2FA bool
	Message     string
	User        domain.User
	Token       string
}

// Login validates credentials, enforces lockout, and either issues a token or
// starts a 2FA challenge. In dev the challenge code is delivered via the
// service log.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginOutcome, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginOutcome{}, err
	}

	lockKey := "login:" + email
	state, lockErr := s.lockouts.Get(ctx, lockKey)
	if lockErr == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return LoginOutcome{}, domain.ErrAccountLocked
	}

	account, err := s.data.AccountByEmail(ctx, email)
	if err != nil {
		return LoginOutcome{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		if st, recErr := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedThreshold, s.cfg.LockoutDuration); recErr == nil {
			if st.LockedUntil != nil && st.LockedUntil.After(s.nowFn()) {
				return LoginOutcome{}, domain.ErrAccountLocked
			}
		}
		return LoginOutcome{}, domain.ErrInvalidCredentials
	}
	_ = s.lockouts.Clear(ctx, lockKey)

	if account.TwoFactorEnabled {
		code := strings.TrimSpace(req.TwoFactorToken)
		if code == "" {
			return s.startChallenge(ctx, account)
		}
		if err := s.verifyChallenge(ctx, email, code); err != nil {
			return LoginOutcome{}, err
		}
	}

	token, err := s.signer.Sign(account.User)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginOutcome{User: account.User, Token: token}, nil
}

func (s *Service) startChallenge(ctx context.Context, account Account) (LoginOutcome, error) {
	code := randomDigits(6)
	challenge := Challenge{
		UserID:    account.User.ID,
		Email:     account.User.Email,
		Code:      code,
		ExpiresAt: s.nowFn().Add(s.cfg.ChallengeTTL),
	}
	if err := s.challenges.Put(ctx, challengeKey(account.User.Email), challenge, s.cfg.ChallengeTTL); err != nil {
		return LoginOutcome{}, fmt.Errorf("store 2fa challenge: %w", err)
	}
	// Dev delivery channel: the code only ever appears in the demo log.
	s.logger.Info("two-factor code issued",
		"operation", "login",
		"outcome", "challenge",
		"email", account.User.Email,
		"code", code,
	)
	return LoginOutcome{
		Requires2FA: true,
		Message:     "a verification code has been sent",
	}, nil
}

func (s *Service) verifyChallenge(ctx context.Context, email, code string) error {
	challenge, err := s.challenges.Get(ctx, challengeKey(email))
	if err != nil {
		return err
	}
	if challenge == nil {
		return fmt.Errorf("%w: no pending verification", domain.ErrUnauthorized)
	}
	if challenge.ExpiresAt.Before(s.nowFn()) {
		_ = s.challenges.Delete(ctx, challengeKey(email))
		return fmt.Errorf("%w: verification code expired", domain.ErrTokenExpired)
	}
	if challenge.Code != code {
		return fmt.Errorf("%w: invalid verification code", domain.ErrInvalidCredentials)
	}
	return s.challenges.Delete(ctx, challengeKey(email))
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// Register creates an account and immediately issues a session, matching the
// portal's register-then-signed-in behavior.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (LoginOutcome, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return LoginOutcome{}, err
	}
	if len(req.Password) < 8 {
		return LoginOutcome{}, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return LoginOutcome{}, err
	}
	if role == domain.RoleAdmin {
		return LoginOutcome{}, fmt.Errorf("%w: admin accounts are provisioned, not registered", domain.ErrInvalidInput)
	}

	if _, err := s.data.AccountByEmail(ctx, email); err == nil {
		return LoginOutcome{}, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:        uuid.New(),
		Role:      role,
		Email:     email,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	}
	switch role {
	case domain.RoleTenant:
		user.Tenant = &domain.TenantProfile{UnitID: s.cfg.DefaultUnitID}
	case domain.RoleLandlord:
		user.Landlord = &domain.LandlordProfile{}
	}

	if err := s.data.CreateAccount(ctx, Account{User: user, PasswordHash: hash}); err != nil {
		return LoginOutcome{}, err
	}

	token, err := s.signer.Sign(user)
	if err != nil {
		return LoginOutcome{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginOutcome{User: user, Token: token}, nil
}

// ForgotPassword issues a one-time reset token when the account exists. It
// reports success either way to avoid account enumeration; the raw token is
// delivered through the demo log.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	account, err := s.data.AccountByEmail(ctx, normalized)
	if err != nil {
		return nil
	}

	raw := randomHex(32)
	now := s.nowFn()
	if err := s.data.CreateResetToken(ctx, account.User.ID, hashToken(raw), now.Add(time.Hour)); err != nil {
		return err
	}
	s.logger.Info("password reset token issued",
		"operation", "forgot_password",
		"outcome", "success",
		"email", normalized,
		"token", raw,
	)
	return nil
}

// ResetPassword consumes a reset token and replaces the credential hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	userID, err := s.data.ConsumeResetToken(ctx, hashToken(token), s.nowFn())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", domain.ErrUnauthorized)
		}
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.data.UpdatePassword(ctx, userID, hash)
}

// TwoFactorStatus reports the account's second-factor state.
func (s *Service) TwoFactorStatus(ctx context.Context, userID uuid.UUID) (bool, string, error) {
	account, err := s.data.AccountByID(ctx, userID)
	if err != nil {
		return false, "", err
	}
	return account.TwoFactorEnabled, account.TwoFactorMethod, nil
}

// SetTwoFactor enables or disables the email second factor for the account.
func (s *Service) SetTwoFactor(ctx context.Context, userID uuid.UUID, enabled bool) error {
	method := ""
	if enabled {
		method = "email"
	}
	return s.data.SetTwoFactor(ctx, userID, enabled, method)
}

// ListPayments serves the reconciliation feed. Tenants only ever see their
// own records regardless of the requested filter.
func (s *Service) ListPayments(ctx context.Context, claims Claims, filter ports.PaymentFilter) ([]domain.PaymentRecord, error) {
	if claims.Role == domain.RoleTenant {
		filter.TenantID = claims.UserID
	}
	return s.data.ListPayments(ctx, filter)
}

type PaymentRequest struct {
	UnitID      uuid.UUID `json:"unit_id"`
	Amount      int64     `json:"amount"`
	Method      string    `json:"method"`
	PaymentDate time.Time `json:"payment_date"`
}

// RecordPayment creates a successful payment record, simulating the
// mobile-money/card collection flow so paid months can be produced locally.
func (s *Service) RecordPayment(ctx context.Context, claims Claims, req PaymentRequest) (domain.PaymentRecord, error) {
	if claims.Role != domain.RoleTenant {
		return domain.PaymentRecord{}, fmt.Errorf("%w: only tenants record payments", domain.ErrUnauthorized)
	}
	if req.Amount <= 0 {
		return domain.PaymentRecord{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method)))
	if method != domain.PaymentMpesa && method != domain.PaymentCard {
		return domain.PaymentRecord{}, fmt.Errorf("%w: unknown payment method %q", domain.ErrInvalidInput, req.Method)
	}
	when := req.PaymentDate
	if when.IsZero() {
		when = s.nowFn()
	}

	record := domain.PaymentRecord{
		ID:            uuid.New(),
		TenantID:      claims.UserID,
		UnitID:        req.UnitID,
		Amount:        req.Amount,
		PaymentDate:   when,
		Status:        domain.PaymentSuccessful,
		Method:        method,
		TransactionID: "DEMO-" + strings.ToUpper(randomHex(6)),
	}
	if err := s.data.CreatePayment(ctx, record); err != nil {
		return domain.PaymentRecord{}, err
	}
	return record, nil
}

// ParseToken validates a bearer token for the HTTP middleware.
func (s *Service) ParseToken(token string) (Claims, error) {
	return s.signer.Parse(token)
}

func challengeKey(email string) string {
	return "2fa:" + strings.ToLower(strings.TrimSpace(email))
}

// normalizeEmail canonicalizes and validates email format before lookup.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// hashToken stores one-way token fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a cryptographically random hex token.
func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

// randomDigits returns a zero-padded random numeric code.
func randomDigits(size int) string {
	if size <= 0 {
		size = 6
	}
	max := 1
	for i := 0; i < size; i++ {
		max *= 10
	}
	nRaw := make([]byte, 4)
	_, _ = rand.Read(nRaw)
	n := int(nRaw[0])<<24 | int(nRaw[1])<<16 | int(nRaw[2])<<8 | int(nRaw[3])
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%0*d", size, n%max)
}
