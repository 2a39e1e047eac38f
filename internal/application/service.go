package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/supa-modo/digiplotClassic/internal/ports"
)

const serviceName = "digiplot-portal"

// Service is the session controller: the single in-memory owner of the
// authenticated session, wrapping the backend client and the durable session
// store. It is constructed explicitly and injected instead of living as
// module-level state.
type Service struct {
	backend ports.BackendClient
	store   ports.SessionStore
	logger  *slog.Logger
	nowFn   func() time.Time

	mu        sync.Mutex
	loading   bool
	session   *ports.StoredSession
	loginBusy bool
}

type Dependencies struct {
	Backend ports.BackendClient
	Store   ports.SessionStore
	Logger  *slog.Logger
}

// NewService builds a controller in the HYDRATING state. Callers must invoke
// Hydrate before asking the guard for any decision; until then Loading
// reports true and the guard renders a neutral placeholder.
func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backend: deps.Backend,
		store:   deps.Store,
		logger: logger.With(
			"service", serviceName,
			"module", "application",
			"layer", "application",
		),
		nowFn:   func() time.Time { return time.Now().UTC() },
		loading: true,
	}
}
