package demoapi

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

type resetToken struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// MemStore is the in-memory demo dataset.
type MemStore struct {
	mu          sync.Mutex
	accounts    map[uuid.UUID]Account
	byEmail     map[string]uuid.UUID
	units       map[uuid.UUID]domain.Unit
	payments    []domain.PaymentRecord
	resetTokens map[string]resetToken
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts:    make(map[uuid.UUID]Account),
		byEmail:     make(map[string]uuid.UUID),
		units:       make(map[uuid.UUID]domain.Unit),
		resetTokens: make(map[string]resetToken),
	}
}

func (m *MemStore) AccountByEmail(_ context.Context, email string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, domain.ErrNotFound
	}
	return m.accounts[id], nil
}

func (m *MemStore) AccountByID(_ context.Context, id uuid.UUID) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return Account{}, domain.ErrNotFound
	}
	return account, nil
}

func (m *MemStore) CreateAccount(_ context.Context, account Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(account.User.Email)
	if _, ok := m.byEmail[email]; ok {
		return domain.ErrConflict
	}
	m.accounts[account.User.ID] = account
	m.byEmail[email] = account.User.ID
	return nil
}

func (m *MemStore) SetTwoFactor(_ context.Context, userID uuid.UUID, enabled bool, method string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return domain.ErrNotFound
	}
	account.TwoFactorEnabled = enabled
	account.TwoFactorMethod = method
	m.accounts[userID] = account
	return nil
}

func (m *MemStore) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[userID]
	if !ok {
		return domain.ErrNotFound
	}
	account.PasswordHash = passwordHash
	m.accounts[userID] = account
	return nil
}

func (m *MemStore) CreateResetToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetTokens[tokenHash] = resetToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *MemStore) ConsumeResetToken(_ context.Context, tokenHash string, now time.Time) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.resetTokens[tokenHash]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	delete(m.resetTokens, tokenHash)
	if token.expiresAt.Before(now) {
		return uuid.Nil, domain.ErrNotFound
	}
	return token.userID, nil
}

func (m *MemStore) AddUnit(unit domain.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[unit.ID] = unit
}

func (m *MemStore) UnitByID(_ context.Context, id uuid.UUID) (domain.Unit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	unit, ok := m.units[id]
	if !ok {
		return domain.Unit{}, domain.ErrNotFound
	}
	return unit, nil
}

func (m *MemStore) ListPayments(_ context.Context, filter ports.PaymentFilter) ([]domain.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PaymentRecord
	for _, p := range m.payments {
		if filter.TenantID != uuid.Nil && p.TenantID != filter.TenantID {
			continue
		}
		if !filter.From.IsZero() && p.PaymentDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && p.PaymentDate.After(filter.To) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemStore) CreatePayment(_ context.Context, record domain.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, record)
	return nil
}

// MemChallengeStore keeps 2FA challenges in process memory.
type MemChallengeStore struct {
	mu    sync.Mutex
	items map[string]Challenge
}

func NewMemChallengeStore() *MemChallengeStore {
	return &MemChallengeStore{items: make(map[string]Challenge)}
}

func (s *MemChallengeStore) Put(_ context.Context, key string, challenge Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = challenge
	return nil
}

func (s *MemChallengeStore) Get(_ context.Context, key string) (*Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	challenge, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	cp := challenge
	return &cp, nil
}

func (s *MemChallengeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// MemLockoutStore keeps lockout counters in process memory.
type MemLockoutStore struct {
	mu    sync.Mutex
	state map[string]LockoutState
}

func NewMemLockoutStore() *MemLockoutStore {
	return &MemLockoutStore{state: make(map[string]LockoutState)}
}

func (s *MemLockoutStore) Get(_ context.Context, key string) (LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[key], nil
}

func (s *MemLockoutStore) RecordFailure(_ context.Context, key string, now time.Time, threshold int, window time.Duration) (LockoutState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[key]
	st.FailedCount++
	if st.FailedCount >= threshold {
		until := now.Add(window)
		st.LockedUntil = &until
	}
	s.state[key] = st
	return st, nil
}

func (s *MemLockoutStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	return nil
}
