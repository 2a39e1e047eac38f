package application

import (
	"context"
	"fmt"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// PaymentSchedule fetches the authenticated tenant's full payment history and
// derives the rent schedule against the given unit's monthly rent. The feed
// is read-only; all state lives in the returned Schedule.
func (s *Service) PaymentSchedule(ctx context.Context, unit domain.Unit) (*Schedule, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return nil, domain.ErrUnauthorized
	}
	if session.Role != domain.RoleTenant {
		return nil, fmt.Errorf("%w: payment schedule is tenant-only", domain.ErrUnauthorized)
	}

	payments, err := s.backend.ListPayments(ctx, session.Token, ports.PaymentFilter{
		TenantID: session.User.ID,
	})
	if err != nil {
		s.logger.Warn("payment history fetch failed",
			"operation", "payment_schedule",
			"outcome", "failure",
			"error", err,
		)
		return nil, err
	}

	return NewSchedule(payments, unit.MonthlyRent, s.nowFn()), nil
}
