package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

type fakeBackend struct {
	mu          sync.Mutex
	loginFn     func(ports.LoginParams) (ports.LoginResult, error)
	registerFn  func(ports.RegisterParams) (ports.LoginResult, error)
	paymentsFn  func(ports.PaymentFilter) ([]domain.PaymentRecord, error)
	loginCalls  int
	lastLogin   ports.LoginParams
	lastPayment ports.PaymentFilter
}

func (f *fakeBackend) Login(_ context.Context, params ports.LoginParams) (ports.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	f.lastLogin = params
	f.mu.Unlock()
	if f.loginFn == nil {
		return ports.LoginResult{}, domain.ErrInvalidCredentials
	}
	return f.loginFn(params)
}

func (f *fakeBackend) Register(_ context.Context, params ports.RegisterParams) (ports.LoginResult, error) {
	if f.registerFn == nil {
		return ports.LoginResult{}, domain.ErrInvalidInput
	}
	return f.registerFn(params)
}

func (f *fakeBackend) ForgotPassword(context.Context, string) (ports.OpResult, error) {
	return ports.OpResult{OK: true, Message: "sent"}, nil
}

func (f *fakeBackend) ResetPassword(context.Context, string, string) (ports.OpResult, error) {
	return ports.OpResult{OK: true, Message: "updated"}, nil
}

func (f *fakeBackend) TwoFactorStatus(context.Context, string) (ports.TwoFactorStatus, error) {
	return ports.TwoFactorStatus{Enabled: false}, nil
}

func (f *fakeBackend) EnableTwoFactor(context.Context, string) (ports.OpResult, error) {
	return ports.OpResult{OK: true}, nil
}

func (f *fakeBackend) DisableTwoFactor(context.Context, string) (ports.OpResult, error) {
	return ports.OpResult{OK: true}, nil
}

func (f *fakeBackend) ListPayments(_ context.Context, _ string, filter ports.PaymentFilter) ([]domain.PaymentRecord, error) {
	f.mu.Lock()
	f.lastPayment = filter
	f.mu.Unlock()
	if f.paymentsFn == nil {
		return nil, nil
	}
	return f.paymentsFn(filter)
}

type fakeStore struct {
	mu        sync.Mutex
	session   *ports.StoredSession
	loadErr   error
	saveErr   error
	saveCalls int
	clears    int
}

func (f *fakeStore) Save(session ports.StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.session = &session
	return nil
}

func (f *fakeStore) Load() (*ports.StoredSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.session == nil {
		return nil, nil
	}
	copied := *f.session
	return &copied, nil
}

func (f *fakeStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.session = nil
	return nil
}

func testUser(role domain.Role) domain.User {
	u := domain.User{
		ID:        uuid.New(),
		Role:      role,
		Email:     fmt.Sprintf("%s@example.com", role),
		FirstName: "Test",
		LastName:  "User",
	}
	switch role {
	case domain.RoleTenant:
		u.Tenant = &domain.TenantProfile{UnitID: uuid.New()}
	case domain.RoleLandlord:
		u.Landlord = &domain.LandlordProfile{}
	}
	return u
}

func newTestService(backend ports.BackendClient, store ports.SessionStore) *Service {
	return NewService(Dependencies{
		Backend: backend,
		Store:   store,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestServiceStartsLoading(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeBackend{}, &fakeStore{})
	if !svc.Loading() {
		t.Fatal("expected loading before hydration")
	}
	if svc.IsAuthenticated() {
		t.Fatal("expected anonymous before hydration")
	}
}

func TestHydrateAdoptsValidSession(t *testing.T) {
	t.Parallel()

	user := testUser(domain.RoleTenant)
	store := &fakeStore{session: &ports.StoredSession{User: user, Token: "tok", Role: domain.RoleTenant}}
	svc := newTestService(&fakeBackend{}, store)

	svc.Hydrate()

	if svc.Loading() {
		t.Fatal("expected loading false after hydration")
	}
	if !svc.IsAuthenticated() {
		t.Fatal("expected authenticated after hydrating a valid session")
	}
	if got := svc.Role(); got != domain.RoleTenant {
		t.Fatalf("expected tenant role, got %q", got)
	}
	current, ok := svc.CurrentUser()
	if !ok || current.ID != user.ID {
		t.Fatalf("expected hydrated user %s, got %+v ok=%v", user.ID, current, ok)
	}
}

func TestHydrateTreatsMissingSessionAsAnonymous(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeBackend{}, &fakeStore{})
	svc.Hydrate()

	if svc.Loading() {
		t.Fatal("expected loading false after hydration")
	}
	if svc.IsAuthenticated() {
		t.Fatal("expected anonymous when store is empty")
	}
}

func TestHydrateClearsMalformedSession(t *testing.T) {
	t.Parallel()

	// Role tag disagrees with the user record: must not be trusted.
	user := testUser(domain.RoleTenant)
	store := &fakeStore{session: &ports.StoredSession{User: user, Token: "tok", Role: domain.RoleLandlord}}
	svc := newTestService(&fakeBackend{}, store)

	svc.Hydrate()

	if svc.IsAuthenticated() {
		t.Fatal("expected anonymous after malformed session")
	}
	if store.clears == 0 {
		t.Fatal("expected malformed session to be cleared from storage")
	}
}

func TestHydrateTreatsStoreErrorAsAnonymous(t *testing.T) {
	t.Parallel()

	store := &fakeStore{loadErr: errors.New("disk trouble")}
	svc := newTestService(&fakeBackend{}, store)

	svc.Hydrate()

	if svc.Loading() {
		t.Fatal("expected loading false even after store failure")
	}
	if svc.IsAuthenticated() {
		t.Fatal("expected anonymous after store failure")
	}
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	t.Parallel()

	user := testUser(domain.RoleTenant)
	backend := &fakeBackend{loginFn: func(ports.LoginParams) (ports.LoginResult, error) {
		return ports.LoginResult{User: user, Token: "tok-1"}, nil
	}}
	store := &fakeStore{}
	svc := newTestService(backend, store)
	svc.Hydrate()

	res, err := svc.Login(context.Background(), ports.LoginParams{
		Email: "  Tenant@Example.COM ", Password: "pw", Role: domain.RoleTenant,
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Requires2FA {
		t.Fatal("unexpected step-up requirement")
	}
	if backend.lastLogin.Email != "tenant@example.com" {
		t.Fatalf("expected normalized email, backend saw %q", backend.lastLogin.Email)
	}
	if !svc.IsAuthenticated() || svc.Token() != "tok-1" {
		t.Fatalf("expected live session with token, got auth=%v token=%q", svc.IsAuthenticated(), svc.Token())
	}
	if store.session == nil || store.session.Token != "tok-1" || store.session.Role != domain.RoleTenant {
		t.Fatalf("expected persisted session, got %+v", store.session)
	}
}

func TestLoginStepUpLeavesSessionUntouched(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{loginFn: func(ports.LoginParams) (ports.LoginResult, error) {
		return ports.LoginResult{Requires2FA: true, Message: "code required"}, nil
	}}
	store := &fakeStore{}
	svc := newTestService(backend, store)
	svc.Hydrate()

	res, err := svc.Login(context.Background(), ports.LoginParams{Email: "a@b.c", Password: "pw", Role: domain.RoleTenant})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.Requires2FA {
		t.Fatal("expected step-up requirement")
	}
	if svc.IsAuthenticated() {
		t.Fatal("step-up must not authenticate")
	}
	if store.saveCalls != 0 {
		t.Fatal("step-up must not persist anything")
	}
}

func TestLoginFailureDoesNotPersist(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{loginFn: func(ports.LoginParams) (ports.LoginResult, error) {
		return ports.LoginResult{}, fmt.Errorf("%w: signed in as landlord, attempted tenant", domain.ErrRoleMismatch)
	}}
	store := &fakeStore{}
	svc := newTestService(backend, store)
	svc.Hydrate()

	_, err := svc.Login(context.Background(), ports.LoginParams{Email: "a@b.c", Password: "pw", Role: domain.RoleTenant})
	if !errors.Is(err, domain.ErrRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}
	if svc.IsAuthenticated() {
		t.Fatal("failed login must not authenticate")
	}
	if store.saveCalls != 0 {
		t.Fatal("failed login must not persist anything")
	}
}

func TestLoginRejectsDuplicateSubmit(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	backend := &fakeBackend{loginFn: func(ports.LoginParams) (ports.LoginResult, error) {
		close(started)
		<-release
		return ports.LoginResult{User: testUser(domain.RoleTenant), Token: "tok"}, nil
	}}
	svc := newTestService(backend, &fakeStore{})
	svc.Hydrate()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Login(context.Background(), ports.LoginParams{Email: "a@b.c", Password: "pw", Role: domain.RoleTenant})
		done <- err
	}()
	<-started

	_, err := svc.Login(context.Background(), ports.LoginParams{Email: "a@b.c", Password: "pw", Role: domain.RoleTenant})
	if !errors.Is(err, domain.ErrLoginInFlight) {
		t.Fatalf("expected in-flight rejection, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first login: %v", err)
	}
}

func TestLoginSurvivesStoreFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{loginFn: func(ports.LoginParams) (ports.LoginResult, error) {
		return ports.LoginResult{User: testUser(domain.RoleLandlord), Token: "tok"}, nil
	}}
	store := &fakeStore{saveErr: errors.New("disk full")}
	svc := newTestService(backend, store)
	svc.Hydrate()

	_, err := svc.Login(context.Background(), ports.LoginParams{Email: "a@b.c", Password: "pw", Role: domain.RoleLandlord})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !svc.IsAuthenticated() {
		t.Fatal("in-memory session must survive a persistence failure")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	user := testUser(domain.RoleTenant)
	store := &fakeStore{session: &ports.StoredSession{User: user, Token: "tok", Role: domain.RoleTenant}}
	svc := newTestService(&fakeBackend{}, store)
	svc.Hydrate()

	svc.Logout()
	svc.Logout()

	if svc.IsAuthenticated() {
		t.Fatal("expected anonymous after logout")
	}
	if store.session != nil {
		t.Fatal("expected storage cleared after logout")
	}
}

func TestRefreshFillsGapOnly(t *testing.T) {
	t.Parallel()

	userA := testUser(domain.RoleTenant)
	store := &fakeStore{}
	svc := newTestService(&fakeBackend{}, store)
	svc.Hydrate()

	// Another tab signed in: storage has state, memory does not.
	store.session = &ports.StoredSession{User: userA, Token: "tok-a", Role: domain.RoleTenant}
	svc.Refresh()
	if got := svc.Token(); got != "tok-a" {
		t.Fatalf("expected refresh to adopt stored session, got token %q", got)
	}

	// A live session is never overwritten by stale storage.
	userB := testUser(domain.RoleLandlord)
	store.session = &ports.StoredSession{User: userB, Token: "tok-b", Role: domain.RoleLandlord}
	svc.Refresh()
	if got := svc.Token(); got != "tok-a" {
		t.Fatalf("expected live session kept, got token %q", got)
	}
}

func TestPaymentScheduleRequiresTenant(t *testing.T) {
	t.Parallel()

	user := testUser(domain.RoleLandlord)
	store := &fakeStore{session: &ports.StoredSession{User: user, Token: "tok", Role: domain.RoleLandlord}}
	svc := newTestService(&fakeBackend{}, store)
	svc.Hydrate()

	_, err := svc.PaymentSchedule(context.Background(), domain.Unit{MonthlyRent: 100})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for landlord, got %v", err)
	}
}

func TestPaymentScheduleFiltersByTenant(t *testing.T) {
	t.Parallel()

	user := testUser(domain.RoleTenant)
	backend := &fakeBackend{}
	store := &fakeStore{session: &ports.StoredSession{User: user, Token: "tok", Role: domain.RoleTenant}}
	svc := newTestService(backend, store)
	svc.Hydrate()
	svc.nowFn = func() time.Time { return time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC) }

	schedule, err := svc.PaymentSchedule(context.Background(), domain.Unit{MonthlyRent: 100})
	if err != nil {
		t.Fatalf("payment schedule: %v", err)
	}
	if backend.lastPayment.TenantID != user.ID {
		t.Fatalf("expected history filtered to tenant %s, got %s", user.ID, backend.lastPayment.TenantID)
	}
	if schedule == nil {
		t.Fatal("expected a schedule")
	}
}

func TestDefaultClockTracksWallTime(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeBackend{}, &fakeStore{})
	first := svc.nowFn()
	time.Sleep(5 * time.Millisecond)
	if second := svc.nowFn(); !second.After(first) {
		t.Fatalf("default clock frozen: %v then %v", first, second)
	}
}
