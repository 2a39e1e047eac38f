package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]Role{
		"tenant":    RoleTenant,
		" Landlord": RoleLandlord,
		"ADMIN":     RoleAdmin,
	} {
		got, err := ParseRole(raw)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", raw, got, err)
		}
	}

	for _, raw := range []string{"", "superuser", "tenants"} {
		if _, err := ParseRole(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseRole(%q): expected invalid input, got %v", raw, err)
		}
	}
}

func TestHomeRouteDefinedForEveryValidRole(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{RoleTenant, RoleLandlord, RoleAdmin} {
		if role.HomeRoute() == "" {
			t.Fatalf("role %q has no home route", role)
		}
	}
	if Role("ghost").HomeRoute() != "" {
		t.Fatal("unknown role must have no home route")
	}
}

func TestUserValidateVariantAgreement(t *testing.T) {
	t.Parallel()

	base := User{ID: uuid.New(), Email: "u@example.com"}

	tenant := base
	tenant.Role = RoleTenant
	tenant.Tenant = &TenantProfile{UnitID: uuid.New()}
	if err := tenant.Validate(); err != nil {
		t.Fatalf("valid tenant rejected: %v", err)
	}

	crossed := tenant
	crossed.Landlord = &LandlordProfile{}
	if err := crossed.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected variant disagreement rejected, got %v", err)
	}

	admin := base
	admin.Role = RoleAdmin
	if err := admin.Validate(); err != nil {
		t.Fatalf("valid admin rejected: %v", err)
	}
	admin.Tenant = &TenantProfile{}
	if err := admin.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected admin with profile rejected, got %v", err)
	}

	missingID := tenant
	missingID.ID = uuid.Nil
	if err := missingID.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing id rejected, got %v", err)
	}
}

func TestDisplayNameFallsBackToEmailLocalPart(t *testing.T) {
	t.Parallel()

	u := User{Email: "brian@example.com"}
	if got := u.DisplayName(); got != "brian" {
		t.Fatalf("expected email local part, got %q", got)
	}
	u.FirstName = "Brian"
	u.LastName = "Otieno"
	if got := u.DisplayName(); got != "Brian Otieno" {
		t.Fatalf("expected full name, got %q", got)
	}
}
