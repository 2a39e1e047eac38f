package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// Hydrate resolves the startup state from the session store: a well-formed
// persisted session transitions the controller to authenticated, anything
// else to anonymous. The loading flag flips false in both cases so the route
// guard never redirects before hydration completed.
func (s *Service) Hydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() { s.loading = false }()

	stored, err := s.store.Load()
	if err != nil {
		s.logger.Warn("session hydration failed, treating as anonymous",
			"operation", "hydrate",
			"outcome", "failure",
			"error", err,
		)
		s.session = nil
		return
	}
	if stored == nil {
		s.session = nil
		return
	}
	if err := validStoredSession(stored); err != nil {
		s.logger.Warn("persisted session is malformed, clearing",
			"operation", "hydrate",
			"outcome", "failure",
			"error", err,
		)
		_ = s.store.Clear()
		s.session = nil
		return
	}
	s.session = stored
}

// Login delegates to the backend and, only on full success, updates the
// in-memory session and persists it. A step-up requirement leaves the session
// untouched and is returned to the caller for UI branching. Duplicate submits
// while a request is outstanding are rejected, not queued.
func (s *Service) Login(ctx context.Context, params ports.LoginParams) (ports.LoginResult, error) {
	if err := s.beginLogin(); err != nil {
		return ports.LoginResult{}, err
	}
	defer s.endLogin()

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	res, err := s.backend.Login(ctx, params)
	if err != nil {
		return ports.LoginResult{}, err
	}
	if res.Requires2FA {
		return res, nil
	}
	s.adoptSession(res)
	return res, nil
}

// Register creates an account and, like the source portal, stores the issued
// session as a side effect of success.
func (s *Service) Register(ctx context.Context, params ports.RegisterParams) (ports.LoginResult, error) {
	if err := s.beginLogin(); err != nil {
		return ports.LoginResult{}, err
	}
	defer s.endLogin()

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	res, err := s.backend.Register(ctx, params)
	if err != nil {
		return ports.LoginResult{}, err
	}
	s.adoptSession(res)
	return res, nil
}

// Logout clears the in-memory session and the store. It is idempotent and
// always succeeds from the caller's perspective; storage trouble is logged
// and swallowed.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	if err := s.store.Clear(); err != nil {
		s.logger.Warn("session store clear failed during logout",
			"operation", "logout",
			"outcome", "failure",
			"error", err,
		)
	}
}

// Refresh re-synchronizes in-memory state from storage, but only fills gaps:
// a present in-memory session is never overwritten with stale storage.
func (s *Service) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return
	}
	stored, err := s.store.Load()
	if err != nil || stored == nil {
		return
	}
	if err := validStoredSession(stored); err != nil {
		_ = s.store.Clear()
		return
	}
	s.session = stored
}

// Loading reports whether hydration is still pending.
func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsAuthenticated holds iff both a user and a valid role are present.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil && s.session.Role.Valid()
}

// Role returns the session role, empty when anonymous.
func (s *Service) Role() domain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.Role
}

func (s *Service) IsTenant() bool   { return s.Role() == domain.RoleTenant }
func (s *Service) IsLandlord() bool { return s.Role() == domain.RoleLandlord }
func (s *Service) IsAdmin() bool    { return s.Role() == domain.RoleAdmin }

// CurrentUser returns the authenticated user, if any.
func (s *Service) CurrentUser() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.User{}, false
	}
	return s.session.User, true
}

// Token returns the opaque bearer credential for authenticated calls.
func (s *Service) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func (s *Service) beginLogin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginBusy {
		return domain.ErrLoginInFlight
	}
	s.loginBusy = true
	return nil
}

func (s *Service) endLogin() {
	s.mu.Lock()
	s.loginBusy = false
	s.mu.Unlock()
}

// adoptSession installs a successful login result and persists it. Store
// failures leave the in-memory session live for the current run; the mismatch
// resolves on the next hydration cycle.
func (s *Service) adoptSession(res ports.LoginResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := ports.StoredSession{
		User:  res.User,
		Token: res.Token,
		Role:  res.User.Role,
	}
	s.session = &session
	if err := s.store.Save(session); err != nil {
		s.logger.Warn("session persistence failed",
			"operation", "login",
			"outcome", "failure",
			"error", err,
		)
	}
}

// validStoredSession rejects any persisted state the portal must not treat as
// authenticated: missing token, malformed user, or a role tag disagreeing
// with the user record.
func validStoredSession(stored *ports.StoredSession) error {
	if stored.Token == "" {
		return fmt.Errorf("%w: stored token is empty", domain.ErrInvalidInput)
	}
	if err := stored.User.Validate(); err != nil {
		return err
	}
	if stored.Role != stored.User.Role {
		return fmt.Errorf("%w: stored role %q disagrees with user role %q",
			domain.ErrInvalidInput, stored.Role, stored.User.Role)
	}
	return nil
}
