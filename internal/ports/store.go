package ports

import (
	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// StoredSession is the durable three-key client session: the user blob, the
// opaque bearer token, and the role string. All three are required for the
// session to count as authenticated; partial state reads as logged-out.
type StoredSession struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
	Role  domain.Role `json:"role"`
}

// SessionStore persists the client session across restarts.
//
// Load returns (nil, nil) when no complete session is stored. A store that
// finds corrupt or partial state must self-heal by clearing all keys before
// returning, so no broken state survives a single read.
type SessionStore interface {
	Save(session StoredSession) error
	Load() (*StoredSession, error)
	Clear() error
}
