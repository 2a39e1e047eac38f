package application

import (
	"errors"

	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// userFacingMessage maps an operation error to text safe to render inline.
// Transport failures collapse to a generic retryable message; the underlying
// cause is only ever logged. Credential and validation failures keep the
// backend's wording.
func userFacingMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnavailable):
		return "unable to reach the server, please try again"
	case errors.Is(err, domain.ErrRateLimited):
		return "too many attempts, wait a moment and retry"
	case errors.Is(err, domain.ErrAccountLocked):
		return "account temporarily locked after repeated failures"
	default:
		return err.Error()
	}
}
