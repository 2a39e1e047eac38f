package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus mirrors the backend's payment lifecycle states. Only
// successful payments mark a month as paid.
type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "successful"
	PaymentPending    PaymentStatus = "pending"
	PaymentFailed     PaymentStatus = "failed"
)

// PaymentMethod identifies the collection channel.
type PaymentMethod string

const (
	PaymentMpesa PaymentMethod = "mpesa"
	PaymentCard  PaymentMethod = "card"
)

// PaymentRecord is the backend-owned payment history entry. The portal only
// reads it to derive month state; it is never mutated client-side.
type PaymentRecord struct {
	ID            uuid.UUID     `json:"id"`
	TenantID      uuid.UUID     `json:"tenant_id"`
	UnitID        uuid.UUID     `json:"unit_id"`
	Amount        int64         `json:"amount"` // minor currency units
	PaymentDate   time.Time     `json:"payment_date"`
	Status        PaymentStatus `json:"status"`
	Method        PaymentMethod `json:"method,omitempty"`
	TransactionID string        `json:"transaction_id,omitempty"`
}

// Unit is the leased unit a tenant pays rent against.
type Unit struct {
	ID          uuid.UUID `json:"id"`
	LandlordID  uuid.UUID `json:"landlord_id"`
	Name        string    `json:"name"`
	MonthlyRent int64     `json:"monthly_rent"` // minor currency units
}
