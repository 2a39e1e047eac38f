package application

import (
	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// LoginRoute is where unauthenticated (or unrecognizable) sessions are sent.
const LoginRoute = "/login"

// GuardAction is the route guard's verdict kind.
type GuardAction int

const (
	// GuardWait renders a neutral placeholder while hydration is pending.
	// Redirecting before hydration completes would bounce valid sessions.
	GuardWait GuardAction = iota
	// GuardRender shows the protected content.
	GuardRender
	// GuardRedirect navigates to Decision.Location.
	GuardRedirect
)

// Decision is the guard's full verdict. ReturnTo carries the originally
// requested location when redirecting to login so the flow can come back
// after authentication.
type Decision struct {
	Action   GuardAction
	Location string
	ReturnTo string
}

// Decide is the route guard: a total, pure function of session state and the
// route's role requirement. Every (role, requiredRole) pair has a defined
// destination, including roles outside the known set.
func Decide(loading, authenticated bool, role, requiredRole domain.Role, requested string) Decision {
	if loading {
		return Decision{Action: GuardWait}
	}
	if !authenticated {
		return Decision{Action: GuardRedirect, Location: LoginRoute, ReturnTo: requested}
	}
	if requiredRole != "" && role != requiredRole {
		if !role.Valid() {
			return Decision{Action: GuardRedirect, Location: LoginRoute, ReturnTo: requested}
		}
		return Decision{Action: GuardRedirect, Location: role.HomeRoute()}
	}
	return Decision{Action: GuardRender}
}

// DecideFor evaluates the guard against the live controller state.
func (s *Service) DecideFor(requiredRole domain.Role, requested string) Decision {
	return Decide(s.Loading(), s.IsAuthenticated(), s.Role(), requiredRole, requested)
}
