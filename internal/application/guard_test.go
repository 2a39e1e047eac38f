package application

import (
	"testing"

	"github.com/supa-modo/digiplotClassic/internal/domain"
)

func TestGuardWaitsWhileHydrating(t *testing.T) {
	t.Parallel()

	d := Decide(true, false, "", domain.RoleTenant, "/tenant/payments")
	if d.Action != GuardWait {
		t.Fatalf("expected wait while loading, got %+v", d)
	}

	// Even an already-authenticated-looking state waits while loading.
	d = Decide(true, true, domain.RoleTenant, domain.RoleTenant, "/tenant/payments")
	if d.Action != GuardWait {
		t.Fatalf("expected wait while loading, got %+v", d)
	}
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	t.Parallel()

	d := Decide(false, false, "", domain.RoleTenant, "/tenant/payments")
	if d.Action != GuardRedirect || d.Location != LoginRoute {
		t.Fatalf("expected login redirect, got %+v", d)
	}
	if d.ReturnTo != "/tenant/payments" {
		t.Fatalf("expected requested route preserved, got %q", d.ReturnTo)
	}
}

func TestGuardTotalAcrossRolePairs(t *testing.T) {
	t.Parallel()

	roles := []domain.Role{domain.RoleTenant, domain.RoleLandlord, domain.RoleAdmin, domain.Role("other"), ""}
	required := []domain.Role{domain.RoleTenant, domain.RoleLandlord, domain.RoleAdmin, ""}

	for _, role := range roles {
		for _, req := range required {
			d := Decide(false, true, role, req, "/requested")
			switch {
			case req == "" || role == req:
				if d.Action != GuardRender {
					t.Fatalf("role %q required %q: expected render, got %+v", role, req, d)
				}
			case !role.Valid():
				// Unknown roles never loop: they land on the login route.
				if d.Action != GuardRedirect || d.Location != LoginRoute {
					t.Fatalf("role %q required %q: expected login redirect, got %+v", role, req, d)
				}
			default:
				if d.Action != GuardRedirect || d.Location != role.HomeRoute() {
					t.Fatalf("role %q required %q: expected home redirect, got %+v", role, req, d)
				}
				if d.Location == "" {
					t.Fatalf("role %q: redirect with empty location", role)
				}
			}
		}
	}
}

func TestDecideForTracksControllerState(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeBackend{}, &fakeStore{})
	if d := svc.DecideFor(domain.RoleTenant, "/tenant/payments"); d.Action != GuardWait {
		t.Fatalf("expected wait before hydration, got %+v", d)
	}

	svc.Hydrate()
	if d := svc.DecideFor(domain.RoleTenant, "/tenant/payments"); d.Action != GuardRedirect {
		t.Fatalf("expected redirect for anonymous, got %+v", d)
	}
	d := svc.DecideFor("", "/public")
	if d.Action != GuardRedirect || d.Location != LoginRoute {
		t.Fatalf("expected login redirect for anonymous on unrestricted route, got %+v", d)
	}
	if d.ReturnTo != "/public" {
		t.Fatalf("expected remembered return location, got %+v", d)
	}
}
