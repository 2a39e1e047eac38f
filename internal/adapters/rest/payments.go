package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// ListPayments fetches the payment history feed the reconciliation logic
// consumes. The feed is read-only to the portal.
func (c *Client) ListPayments(ctx context.Context, token string, filter ports.PaymentFilter) ([]domain.PaymentRecord, error) {
	query := url.Values{}
	if filter.TenantID != uuid.Nil {
		query.Set("tenant_id", filter.TenantID.String())
	}
	if !filter.From.IsZero() {
		query.Set("from", filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		query.Set("to", filter.To.Format(time.RFC3339))
	}

	path := "/api/payments"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	env, status, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, c.authFailure(status, env.Message)
	}

	var data struct {
		Payments []domain.PaymentRecord `json:"payments"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, c.unavailable(err)
	}
	return data.Payments, nil
}

// PaymentParams describes one payment submission. A zero PaymentDate lets the
// backend stamp the collection time.
type PaymentParams struct {
	UnitID      uuid.UUID `json:"unit_id"`
	Amount      int64     `json:"amount"`
	Method      string    `json:"method"`
	PaymentDate time.Time `json:"payment_date,omitempty"`
}

// RecordPayment submits a rent payment and returns the created record.
func (c *Client) RecordPayment(ctx context.Context, token string, params PaymentParams) (domain.PaymentRecord, error) {
	env, status, err := c.do(ctx, http.MethodPost, "/api/payments", token, params)
	if err != nil {
		return domain.PaymentRecord{}, err
	}
	if !env.Success {
		return domain.PaymentRecord{}, c.authFailure(status, env.Message)
	}

	var data struct {
		Payment domain.PaymentRecord `json:"payment"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return domain.PaymentRecord{}, c.unavailable(err)
	}
	return data.Payment, nil
}
