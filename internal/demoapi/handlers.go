package demoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

const maxRequestBody = 1 << 20

// Handler is the HTTP surface over the demo service. It speaks the same
// envelope the portal's REST client consumes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the full API. Auth endpoints sit behind a per-IP rate
// limiter tuned for credential-guessing, not throughput.
func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(recoverMiddleware)
	router.Use(loggingMiddleware)

	authLimiter := newIPRateLimiter(2, 10)

	router.Route("/api/auth", func(r chi.Router) {
		r.Use(rateLimitMiddleware(authLimiter))
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/reset-password", h.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(h.service))
			r.Get("/2fa/status", h.twoFactorStatus)
			r.Post("/2fa/enable", h.enableTwoFactor)
			r.Post("/2fa/disable", h.disableTwoFactor)
		})
	})

	router.Route("/api/payments", func(r chi.Router) {
		r.Use(authMiddleware(h.service))
		r.Get("/", h.listPayments)
		r.Post("/", h.recordPayment)
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	})

	return router
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput)
	}
	return nil
}

type sessionPayload struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, "login", err)
		return
	}
	outcome, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, "login", err)
		return
	}
	if outcome.Requires2FA {
		writeStepUp(w, outcome.Message)
		return
	}
	writeData(w, http.StatusOK, sessionPayload{User: outcome.User, Token: outcome.Token})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, "register", err)
		return
	}
	outcome, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(r.Context(), w, "register", err)
		return
	}
	writeData(w, http.StatusCreated, sessionPayload{User: outcome.User, Token: outcome.Token})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, "forgot_password", err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(r.Context(), w, "forgot_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "if the account exists, a reset link has been sent")
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, "reset_password", err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(r.Context(), w, "reset_password", err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

func (h *Handler) twoFactorStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, "two_factor_status", domain.ErrUnauthorized)
		return
	}
	enabled, method, err := h.service.TwoFactorStatus(r.Context(), claims.UserID)
	if err != nil {
		writeError(r.Context(), w, "two_factor_status", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"enabled": enabled,
		"method":  method,
	})
}

func (h *Handler) enableTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.setTwoFactor(w, r, true, "two-factor authentication enabled")
}

func (h *Handler) disableTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.setTwoFactor(w, r, false, "two-factor authentication disabled")
}

func (h *Handler) setTwoFactor(w http.ResponseWriter, r *http.Request, enabled bool, message string) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, "set_two_factor", domain.ErrUnauthorized)
		return
	}
	if err := h.service.SetTwoFactor(r.Context(), claims.UserID, enabled); err != nil {
		writeError(r.Context(), w, "set_two_factor", err)
		return
	}
	writeMessage(w, http.StatusOK, message)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, "list_payments", domain.ErrUnauthorized)
		return
	}

	var filter ports.PaymentFilter
	query := r.URL.Query()
	if raw := query.Get("tenant_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(r.Context(), w, "list_payments",
				fmt.Errorf("%w: invalid tenant_id", domain.ErrInvalidInput))
			return
		}
		filter.TenantID = id
	}
	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(r.Context(), w, "list_payments",
				fmt.Errorf("%w: invalid from timestamp", domain.ErrInvalidInput))
			return
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(r.Context(), w, "list_payments",
				fmt.Errorf("%w: invalid to timestamp", domain.ErrInvalidInput))
			return
		}
		filter.To = to
	}

	payments, err := h.service.ListPayments(r.Context(), *claims, filter)
	if err != nil {
		writeError(r.Context(), w, "list_payments", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		writeError(r.Context(), w, "record_payment", domain.ErrUnauthorized)
		return
	}
	var req PaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, "record_payment", err)
		return
	}
	record, err := h.service.RecordPayment(r.Context(), *claims, req)
	if err != nil {
		writeError(r.Context(), w, "record_payment", err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"payment": record})
}
