package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is the portal-wide account role. It drives authorization decisions and
// selects which profile variant a User carries.
type Role string

const (
	RoleTenant   Role = "tenant"
	RoleLandlord Role = "landlord"
	RoleAdmin    Role = "admin"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleTenant:
		return RoleTenant, nil
	case RoleLandlord:
		return RoleLandlord, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleLandlord || r == RoleAdmin
}

// HomeRoute is the post-login landing route for the role. The route guard
// relies on this being defined for every valid role.
func (r Role) HomeRoute() string {
	switch r {
	case RoleTenant:
		return "/tenant/dashboard"
	case RoleLandlord:
		return "/landlord/dashboard"
	case RoleAdmin:
		return "/admin/dashboard"
	default:
		return ""
	}
}

// User is the authenticated account identity. The profile variant is keyed by
// Role: exactly the payload matching Role is set, the others stay nil. The
// record is owned by the session controller once loaded; adapters only
// construct it from backend responses.
type User struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`

	Tenant   *TenantProfile   `json:"tenant,omitempty"`
	Landlord *LandlordProfile `json:"landlord,omitempty"`
}

// TenantProfile carries tenant-only fields.
type TenantProfile struct {
	UnitID           uuid.UUID `json:"unit_id"`
	LeaseStart       string    `json:"lease_start,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
}

// LandlordProfile carries landlord-only fields.
type LandlordProfile struct {
	BusinessName string `json:"business_name,omitempty"`
	PayoutMsisdn string `json:"payout_msisdn,omitempty"`
}

// DisplayName returns a human-readable name, falling back to the email local
// part when the profile has no name fields.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Validate enforces the role/profile variant invariant. A user whose payload
// disagrees with its role tag is treated as malformed, not silently corrected.
func (u User) Validate() error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, u.Role)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	switch u.Role {
	case RoleTenant:
		if u.Landlord != nil {
			return fmt.Errorf("%w: tenant user carries landlord profile", ErrInvalidInput)
		}
	case RoleLandlord:
		if u.Tenant != nil {
			return fmt.Errorf("%w: landlord user carries tenant profile", ErrInvalidInput)
		}
	case RoleAdmin:
		if u.Tenant != nil || u.Landlord != nil {
			return fmt.Errorf("%w: admin user carries role profile", ErrInvalidInput)
		}
	}
	return nil
}
