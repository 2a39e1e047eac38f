package application

import (
	"fmt"
	"time"

	"github.com/supa-modo/digiplotClassic/internal/domain"
)

const (
	// windowMonths is the length of the forward rent window, starting at the
	// current calendar month.
	windowMonths = 12
	// overdueLookback is how many months strictly before the current one are
	// scanned for missed payments. Unpaid months in this range are listed
	// ahead of the window and pre-selected.
	overdueLookback = 3
)

// MonthKey identifies a calendar month as "YYYY-MM".
type MonthKey string

func monthKey(t time.Time) MonthKey {
	return MonthKey(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// PaymentMonth is the derived per-month view state. It is recomputed from the
// raw payment list on every build and never persisted.
type PaymentMonth struct {
	Key        MonthKey
	Label      string
	Paid       bool
	Overdue    bool
	Selectable bool
	Selected   bool
}

// Schedule is the tenant's reconciled rent schedule: which months are paid,
// which are overdue, and which are currently selected for payment.
//
// The total assumes one uniform monthly rent across every selected month; the
// backend does not guarantee rent never changed mid-history. Known
// simplification, kept deliberately.
type Schedule struct {
	months []PaymentMonth
	index  map[MonthKey]int
	rent   int64
}

// NewSchedule derives the schedule from the tenant's unfiltered payment list
// and the current date. A month counts as paid iff some record with status
// successful has its payment date inside that calendar month. Unpaid months
// in the overdue lookback (plus an unpaid current month) are flagged overdue
// and auto-selected.
func NewSchedule(payments []domain.PaymentRecord, monthlyRent int64, now time.Time) *Schedule {
	paid := make(map[MonthKey]bool)
	for _, p := range payments {
		if p.Status != domain.PaymentSuccessful {
			continue
		}
		paid[monthKey(p.PaymentDate)] = true
	}

	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	s := &Schedule{
		index: make(map[MonthKey]int),
		rent:  monthlyRent,
	}

	// Missed months ahead of the window, oldest first.
	for i := overdueLookback; i >= 1; i-- {
		m := current.AddDate(0, -i, 0)
		if paid[monthKey(m)] {
			continue
		}
		s.append(m, false, true)
	}

	for i := 0; i < windowMonths; i++ {
		m := current.AddDate(0, i, 0)
		isPaid := paid[monthKey(m)]
		overdue := i == 0 && !isPaid
		s.append(m, isPaid, overdue)
	}

	return s
}

func (s *Schedule) append(m time.Time, isPaid, overdue bool) {
	entry := PaymentMonth{
		Key:        monthKey(m),
		Label:      fmt.Sprintf("%s %d", m.Month().String(), m.Year()),
		Paid:       isPaid,
		Overdue:    overdue,
		Selectable: !isPaid,
		Selected:   overdue,
	}
	s.index[entry.Key] = len(s.months)
	s.months = append(s.months, entry)
}

// Months returns a copy of the per-month view state in display order.
func (s *Schedule) Months() []PaymentMonth {
	out := make([]PaymentMonth, len(s.months))
	copy(out, s.months)
	return out
}

// Toggle flips a month's selection. Paid months are never selectable, so the
// toggle is a no-op for them (and for unknown keys). It reports whether the
// month is selected afterwards.
func (s *Schedule) Toggle(key MonthKey) bool {
	i, ok := s.index[key]
	if !ok {
		return false
	}
	if !s.months[i].Selectable {
		return s.months[i].Selected
	}
	s.months[i].Selected = !s.months[i].Selected
	return s.months[i].Selected
}

// Selected returns the keys currently selected for payment, in display order.
func (s *Schedule) Selected() []MonthKey {
	var keys []MonthKey
	for _, m := range s.months {
		if m.Selected {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// Total is the amount due for the current selection:
// count(selected) x monthly rent.
func (s *Schedule) Total() int64 {
	var n int64
	for _, m := range s.months {
		if m.Selected {
			n++
		}
	}
	return n * s.rent
}
