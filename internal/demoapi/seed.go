package demoapi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/supa-modo/digiplotClassic/internal/domain"
)

// Demo credentials, stable so the portal CLI and the docs can reference them.
const (
	SeedLandlordEmail  = "grace@demo.digiplot.app"
	SeedTenantEmail    = "brian@demo.digiplot.app"
	SeedTenant2FAEmail = "amina@demo.digiplot.app"
	SeedAdminEmail     = "admin@demo.digiplot.app"
	SeedPassword       = "digiplot-demo"
)

// SeedUnitID is the unit every demo tenant pays rent against.
var SeedUnitID = uuid.MustParse("3f1c5a1e-8b4d-4c8a-9e2f-6d7a9b0c1d2e")

// SeedMonthlyRent is in minor currency units (KES cents).
const SeedMonthlyRent int64 = 45000 * 100

// Seed populates the dataset with one landlord, two tenants (one with 2FA
// enabled), an admin, a unit, and a payment history with the two months
// before last paid and the last plus current month missed, so the overdue
// path shows up immediately.
func Seed(ctx context.Context, data DataStore, hasher PasswordHasher, now time.Time) error {
	hash, err := hasher.Hash(SeedPassword)
	if err != nil {
		return fmt.Errorf("seed: hash password: %w", err)
	}

	landlordID := uuid.New()
	accounts := []Account{
		{
			User: domain.User{
				ID:        landlordID,
				Role:      domain.RoleLandlord,
				Email:     SeedLandlordEmail,
				FirstName: "Grace",
				LastName:  "Wanjiru",
				Phone:     "+254700000001",
				Landlord:  &domain.LandlordProfile{BusinessName: "Wanjiru Properties", PayoutMsisdn: "+254700000001"},
			},
			PasswordHash: hash,
		},
		{
			User: domain.User{
				ID:        uuid.New(),
				Role:      domain.RoleTenant,
				Email:     SeedTenantEmail,
				FirstName: "Brian",
				LastName:  "Otieno",
				Phone:     "+254700000002",
				Tenant:    &domain.TenantProfile{UnitID: SeedUnitID},
			},
			PasswordHash: hash,
		},
		{
			User: domain.User{
				ID:        uuid.New(),
				Role:      domain.RoleTenant,
				Email:     SeedTenant2FAEmail,
				FirstName: "Amina",
				LastName:  "Yusuf",
				Phone:     "+254700000003",
				Tenant:    &domain.TenantProfile{UnitID: SeedUnitID},
			},
			PasswordHash:     hash,
			TwoFactorEnabled: true,
			TwoFactorMethod:  "email",
		},
		{
			User: domain.User{
				ID:        uuid.New(),
				Role:      domain.RoleAdmin,
				Email:     SeedAdminEmail,
				FirstName: "Demo",
				LastName:  "Admin",
			},
			PasswordHash: hash,
		},
	}

	var tenantID uuid.UUID
	for _, account := range accounts {
		if err := data.CreateAccount(ctx, account); err != nil {
			return fmt.Errorf("seed: create %s: %w", account.User.Email, err)
		}
		if account.User.Email == SeedTenantEmail {
			tenantID = account.User.ID
		}
	}

	if adder, ok := data.(interface{ AddUnit(domain.Unit) }); ok {
		adder.AddUnit(domain.Unit{
			ID:          SeedUnitID,
			LandlordID:  landlordID,
			Name:        "Kilimani Heights A-4",
			MonthlyRent: SeedMonthlyRent,
		})
	}

	// Paid three and two months back, nothing since: last month and the
	// current one come out overdue right after seeding.
	currentMonth := time.Date(now.Year(), now.Month(), 10, 12, 0, 0, 0, time.UTC)
	for _, offset := range []int{-3, -2} {
		if err := data.CreatePayment(ctx, domain.PaymentRecord{
			ID:            uuid.New(),
			TenantID:      tenantID,
			UnitID:        SeedUnitID,
			Amount:        SeedMonthlyRent,
			PaymentDate:   currentMonth.AddDate(0, offset, 0),
			Status:        domain.PaymentSuccessful,
			Method:        domain.PaymentMpesa,
			TransactionID: "DEMO-SEED-" + randomHex(4),
		}); err != nil {
			return err
		}
	}
	return nil
}
