package application

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/supa-modo/digiplotClassic/internal/domain"
)

const testRent int64 = 45000 * 100

func paymentOn(year int, month time.Month, status domain.PaymentStatus) domain.PaymentRecord {
	return domain.PaymentRecord{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Amount:      testRent,
		PaymentDate: time.Date(year, month, 5, 12, 0, 0, 0, time.UTC),
		Status:      status,
		Method:      domain.PaymentMpesa,
	}
}

func TestScheduleMidYearWithMissedMonths(t *testing.T) {
	t.Parallel()

	// March and April paid, May missed, June (current) unpaid.
	now := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	payments := []domain.PaymentRecord{
		paymentOn(2024, time.March, domain.PaymentSuccessful),
		paymentOn(2024, time.April, domain.PaymentSuccessful),
	}

	s := NewSchedule(payments, testRent, now)
	months := s.Months()

	// One lookback month (May) plus the 12-month window.
	if len(months) != 13 {
		t.Fatalf("expected 13 months, got %d", len(months))
	}
	if months[0].Key != "2024-05" || !months[0].Overdue || !months[0].Selected {
		t.Fatalf("expected May prepended as overdue and pre-selected, got %+v", months[0])
	}
	if months[1].Key != "2024-06" || !months[1].Overdue || !months[1].Selected {
		t.Fatalf("expected current month overdue and pre-selected, got %+v", months[1])
	}
	if months[len(months)-1].Key != "2025-05" {
		t.Fatalf("expected window to end at 2025-05, got %s", months[len(months)-1].Key)
	}

	if got := s.Total(); got != 2*testRent {
		t.Fatalf("expected total %d for two selected months, got %d", 2*testRent, got)
	}
}

func TestScheduleCleanHistory(t *testing.T) {
	t.Parallel()

	// Everything through the current month paid: plain 12-month window, no
	// overdue entries, nothing selected.
	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	payments := []domain.PaymentRecord{
		paymentOn(2024, time.March, domain.PaymentSuccessful),
		paymentOn(2024, time.April, domain.PaymentSuccessful),
		paymentOn(2024, time.May, domain.PaymentSuccessful),
		paymentOn(2024, time.June, domain.PaymentSuccessful),
	}

	s := NewSchedule(payments, testRent, now)
	months := s.Months()

	if len(months) != 12 {
		t.Fatalf("expected 12 months, got %d", len(months))
	}
	if months[0].Key != "2024-06" || !months[0].Paid || months[0].Overdue {
		t.Fatalf("expected paid current month first, got %+v", months[0])
	}
	if got := s.Total(); got != 0 {
		t.Fatalf("expected zero total, got %d", got)
	}
}

func TestScheduleIgnoresNonSuccessfulPayments(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	payments := []domain.PaymentRecord{
		paymentOn(2024, time.May, domain.PaymentPending),
		paymentOn(2024, time.June, domain.PaymentFailed),
	}

	s := NewSchedule(payments, testRent, now)
	months := s.Months()

	if months[0].Key != "2024-03" {
		t.Fatalf("expected full lookback when nothing cleared, got first %s", months[0].Key)
	}
	for _, m := range months[:4] {
		if m.Paid {
			t.Fatalf("pending/failed must not mark %s paid", m.Key)
		}
		if !m.Overdue {
			t.Fatalf("expected %s overdue, got %+v", m.Key, m)
		}
	}
}

func TestScheduleYearBoundary(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	payments := []domain.PaymentRecord{
		paymentOn(2023, time.November, domain.PaymentSuccessful),
		paymentOn(2023, time.December, domain.PaymentSuccessful),
		paymentOn(2023, time.October, domain.PaymentSuccessful),
	}

	s := NewSchedule(payments, testRent, now)
	months := s.Months()

	if len(months) != 12 {
		t.Fatalf("expected no lookback entries, got %d months", len(months))
	}
	if months[0].Key != "2024-01" || months[11].Key != "2024-12" {
		t.Fatalf("expected window 2024-01..2024-12, got %s..%s", months[0].Key, months[11].Key)
	}
}

func TestScheduleToggle(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	payments := []domain.PaymentRecord{
		paymentOn(2024, time.March, domain.PaymentSuccessful),
		paymentOn(2024, time.April, domain.PaymentSuccessful),
		paymentOn(2024, time.May, domain.PaymentSuccessful),
		paymentOn(2024, time.June, domain.PaymentSuccessful),
	}
	s := NewSchedule(payments, testRent, now)

	// Paid months never toggle on.
	if got := s.Toggle("2024-06"); got {
		t.Fatal("paid month must not become selected")
	}
	// Unknown keys are a no-op.
	if got := s.Toggle("1999-01"); got {
		t.Fatal("unknown key must not select anything")
	}

	if got := s.Toggle("2024-07"); !got {
		t.Fatal("expected future month selected")
	}
	s.Toggle("2024-08")
	s.Toggle("2024-09")
	if got := s.Total(); got != 3*testRent {
		t.Fatalf("expected total for three months, got %d", got)
	}

	if got := s.Toggle("2024-08"); got {
		t.Fatal("expected second toggle to deselect")
	}
	keys := s.Selected()
	if len(keys) != 2 || keys[0] != "2024-07" || keys[1] != "2024-09" {
		t.Fatalf("unexpected selection %v", keys)
	}
}

func TestScheduleMonthsReturnsCopy(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	s := NewSchedule(nil, testRent, now)

	months := s.Months()
	months[0].Selected = false
	months[0].Paid = true

	fresh := s.Months()
	if fresh[0].Paid {
		t.Fatal("mutating the returned slice must not affect the schedule")
	}
}
