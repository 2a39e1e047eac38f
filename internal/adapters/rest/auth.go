package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

type loginBody struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	TwoFactorToken string `json:"twoFactorToken,omitempty"`
}

type sessionData struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Login submits credentials (and optionally a one-time code). The email is
// lower-cased before it leaves the client. A backend step-up signal comes
// back as Requires2FA on the result, never as an error. A returned user whose
// role differs from the attempted role is a hard failure even though the HTTP
// call itself succeeded.
func (c *Client) Login(ctx context.Context, params ports.LoginParams) (ports.LoginResult, error) {
	env, status, err := c.do(ctx, http.MethodPost, "/api/auth/login", "", loginBody{
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		Password:       params.Password,
		Role:           string(params.Role),
		TwoFactorToken: params.TwoFactorCode,
	})
	if err != nil {
		return ports.LoginResult{}, err
	}

	if env.Requires2FA {
		return ports.LoginResult{
			Requires2FA: true,
			Message:     fallback(env.Message, "a verification code is required"),
		}, nil
	}
	if !env.Success {
		return ports.LoginResult{}, c.authFailure(status, env.Message)
	}
	return c.decodeSession(env.Data, params.Role)
}

type registerBody struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
}

// Register creates an account and returns the issued session material.
func (c *Client) Register(ctx context.Context, params ports.RegisterParams) (ports.LoginResult, error) {
	env, status, err := c.do(ctx, http.MethodPost, "/api/auth/register", "", registerBody{
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		Password:  params.Password,
		Phone:     params.Phone,
		Role:      string(params.Role),
	})
	if err != nil {
		return ports.LoginResult{}, err
	}
	if !env.Success {
		return ports.LoginResult{}, c.authFailure(status, env.Message)
	}
	return c.decodeSession(env.Data, params.Role)
}

// ForgotPassword reports expected rejections inline instead of as errors so
// the form can render them next to the field.
func (c *Client) ForgotPassword(ctx context.Context, email string) (ports.OpResult, error) {
	return c.fireAndReport(ctx, "/api/auth/forgot-password", "", map[string]string{
		"email": strings.ToLower(strings.TrimSpace(email)),
	})
}

// ResetPassword consumes a reset token with the same fire-and-report shape.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (ports.OpResult, error) {
	return c.fireAndReport(ctx, "/api/auth/reset-password", "", map[string]string{
		"token":       token,
		"newPassword": newPassword,
	})
}

// TwoFactorStatus reads the account's second-factor state.
func (c *Client) TwoFactorStatus(ctx context.Context, token string) (ports.TwoFactorStatus, error) {
	env, status, err := c.do(ctx, http.MethodGet, "/api/auth/2fa/status", token, nil)
	if err != nil {
		return ports.TwoFactorStatus{}, err
	}
	if !env.Success {
		return ports.TwoFactorStatus{}, c.authFailure(status, env.Message)
	}
	var data struct {
		Enabled bool   `json:"enabled"`
		Method  string `json:"method"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return ports.TwoFactorStatus{}, c.unavailable(err)
	}
	return ports.TwoFactorStatus{Enabled: data.Enabled, Method: data.Method}, nil
}

func (c *Client) EnableTwoFactor(ctx context.Context, token string) (ports.OpResult, error) {
	return c.fireAndReport(ctx, "/api/auth/2fa/enable", token, struct{}{})
}

func (c *Client) DisableTwoFactor(ctx context.Context, token string) (ports.OpResult, error) {
	return c.fireAndReport(ctx, "/api/auth/2fa/disable", token, struct{}{})
}

func (c *Client) decodeSession(raw json.RawMessage, attempted domain.Role) (ports.LoginResult, error) {
	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return ports.LoginResult{}, c.unavailable(err)
	}
	if err := data.User.Validate(); err != nil {
		return ports.LoginResult{}, c.unavailable(err)
	}
	if data.Token == "" {
		return ports.LoginResult{}, c.unavailable(fmt.Errorf("missing token in session payload"))
	}
	if attempted != "" && data.User.Role != attempted {
		return ports.LoginResult{}, fmt.Errorf("%w: signed in as %s, attempted %s",
			domain.ErrRoleMismatch, data.User.Role, attempted)
	}
	return ports.LoginResult{User: data.User, Token: data.Token}, nil
}

// fireAndReport implements the forgot/reset/2FA-management convention:
// 4xx rejections with a message surface as OK=false results, errors are kept
// for authorization and transport failures.
func (c *Client) fireAndReport(ctx context.Context, path, token string, body any) (ports.OpResult, error) {
	env, status, err := c.do(ctx, http.MethodPost, path, token, body)
	if err != nil {
		return ports.OpResult{}, err
	}
	if env.Success {
		return ports.OpResult{OK: true, Message: env.Message}, nil
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ports.OpResult{}, fmt.Errorf("%w: %s", domain.ErrUnauthorized, fallback(env.Message, "not authorized"))
	case status >= 500:
		return ports.OpResult{}, c.unavailable(fmt.Errorf("backend status %d", status))
	default:
		return ports.OpResult{OK: false, Message: fallback(env.Message, "request rejected")}, nil
	}
}

func (c *Client) authFailure(status int, message string) error {
	switch status {
	case http.StatusLocked:
		return fmt.Errorf("%w: %s", domain.ErrAccountLocked, fallback(message, "account locked"))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, fallback(message, "too many attempts"))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fallback(message, "invalid request"))
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrConflict, fallback(message, "already exists"))
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, fallback(message, "invalid credentials"))
	default:
		if status >= 500 {
			return c.unavailable(fmt.Errorf("backend status %d", status))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, fallback(message, "authentication failed"))
	}
}

func (c *Client) unavailable(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
}

func fallback(message, generic string) string {
	if strings.TrimSpace(message) == "" {
		return generic
	}
	return message
}
