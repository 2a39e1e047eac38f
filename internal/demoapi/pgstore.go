package demoapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// ConnectPostgres opens and validates a Postgres-backed GORM connection for
// durable demo runs.
func ConnectPostgres(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type accountModel struct {
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Email            string    `gorm:"column:email;uniqueIndex"`
	PasswordHash     string    `gorm:"column:password_hash"`
	Role             string    `gorm:"column:role"`
	Profile          string    `gorm:"column:profile;type:jsonb"`
	TwoFactorEnabled bool      `gorm:"column:two_factor_enabled"`
	TwoFactorMethod  string    `gorm:"column:two_factor_method"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (accountModel) TableName() string { return "demo_accounts" }

type unitModel struct {
	UnitID      uuid.UUID `gorm:"column:unit_id;type:uuid;primaryKey"`
	LandlordID  uuid.UUID `gorm:"column:landlord_id"`
	Name        string    `gorm:"column:name"`
	MonthlyRent int64     `gorm:"column:monthly_rent"`
}

func (unitModel) TableName() string { return "demo_units" }

type paymentModel struct {
	PaymentID     uuid.UUID `gorm:"column:payment_id;type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"column:tenant_id;index"`
	UnitID        uuid.UUID `gorm:"column:unit_id"`
	Amount        int64     `gorm:"column:amount"`
	PaymentDate   time.Time `gorm:"column:payment_date"`
	Status        string    `gorm:"column:status"`
	Method        string    `gorm:"column:method"`
	TransactionID string    `gorm:"column:transaction_id"`
}

func (paymentModel) TableName() string { return "demo_payments" }

type resetTokenModel struct {
	TokenHash string    `gorm:"column:token_hash;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

func (resetTokenModel) TableName() string { return "demo_reset_tokens" }

// PgStore is the durable demo dataset. AutoMigrate is acceptable here: the
// schema is dev-only and owned entirely by this process.
type PgStore struct {
	db *gorm.DB
}

func NewPgStore(db *gorm.DB) (*PgStore, error) {
	if err := db.AutoMigrate(&accountModel{}, &unitModel{}, &paymentModel{}, &resetTokenModel{}); err != nil {
		return nil, fmt.Errorf("migrate demo schema: %w", err)
	}
	return &PgStore{db: db}, nil
}

// Empty reports whether the dataset has no accounts yet, so the runtime knows
// to seed on first boot.
func (s *PgStore) Empty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&accountModel{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (s *PgStore) AccountByEmail(ctx context.Context, email string) (Account, error) {
	var rec accountModel
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, domain.ErrNotFound
		}
		return Account{}, err
	}
	return fromAccountModel(rec)
}

func (s *PgStore) AccountByID(ctx context.Context, id uuid.UUID) (Account, error) {
	var rec accountModel
	err := s.db.WithContext(ctx).Where("user_id = ?", id).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Account{}, domain.ErrNotFound
		}
		return Account{}, err
	}
	return fromAccountModel(rec)
}

func (s *PgStore) CreateAccount(ctx context.Context, account Account) error {
	rec, err := toAccountModel(account)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (s *PgStore) SetTwoFactor(ctx context.Context, userID uuid.UUID, enabled bool, method string) error {
	res := s.db.WithContext(ctx).Model(&accountModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"two_factor_enabled": enabled,
			"two_factor_method":  method,
			"updated_at":         time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PgStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	res := s.db.WithContext(ctx).Model(&accountModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *PgStore) CreateResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).Create(&resetTokenModel{
		TokenHash: tokenHash,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}).Error
}

func (s *PgStore) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec resetTokenModel
		if err := tx.Where("token_hash = ?", tokenHash).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(&resetTokenModel{}, "token_hash = ?", tokenHash).Error; err != nil {
			return err
		}
		if rec.ExpiresAt.Before(now) {
			return domain.ErrNotFound
		}
		userID = rec.UserID
		return nil
	})
	return userID, err
}

func (s *PgStore) AddUnit(unit domain.Unit) {
	_ = s.db.Create(&unitModel{
		UnitID:      unit.ID,
		LandlordID:  unit.LandlordID,
		Name:        unit.Name,
		MonthlyRent: unit.MonthlyRent,
	}).Error
}

func (s *PgStore) UnitByID(ctx context.Context, id uuid.UUID) (domain.Unit, error) {
	var rec unitModel
	err := s.db.WithContext(ctx).Where("unit_id = ?", id).Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Unit{}, domain.ErrNotFound
		}
		return domain.Unit{}, err
	}
	return domain.Unit{
		ID:          rec.UnitID,
		LandlordID:  rec.LandlordID,
		Name:        rec.Name,
		MonthlyRent: rec.MonthlyRent,
	}, nil
}

func (s *PgStore) ListPayments(ctx context.Context, filter ports.PaymentFilter) ([]domain.PaymentRecord, error) {
	q := s.db.WithContext(ctx).Model(&paymentModel{})
	if filter.TenantID != uuid.Nil {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if !filter.From.IsZero() {
		q = q.Where("payment_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("payment_date <= ?", filter.To)
	}

	var recs []paymentModel
	if err := q.Order("payment_date asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PaymentRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.PaymentRecord{
			ID:            rec.PaymentID,
			TenantID:      rec.TenantID,
			UnitID:        rec.UnitID,
			Amount:        rec.Amount,
			PaymentDate:   rec.PaymentDate,
			Status:        domain.PaymentStatus(rec.Status),
			Method:        domain.PaymentMethod(rec.Method),
			TransactionID: rec.TransactionID,
		})
	}
	return out, nil
}

func (s *PgStore) CreatePayment(ctx context.Context, record domain.PaymentRecord) error {
	return s.db.WithContext(ctx).Create(&paymentModel{
		PaymentID:     record.ID,
		TenantID:      record.TenantID,
		UnitID:        record.UnitID,
		Amount:        record.Amount,
		PaymentDate:   record.PaymentDate,
		Status:        string(record.Status),
		Method:        string(record.Method),
		TransactionID: record.TransactionID,
	}).Error
}

func toAccountModel(account Account) (accountModel, error) {
	profile, err := json.Marshal(account.User)
	if err != nil {
		return accountModel{}, fmt.Errorf("encode profile: %w", err)
	}
	now := time.Now().UTC()
	return accountModel{
		UserID:           account.User.ID,
		Email:            strings.ToLower(account.User.Email),
		PasswordHash:     account.PasswordHash,
		Role:             string(account.User.Role),
		Profile:          string(profile),
		TwoFactorEnabled: account.TwoFactorEnabled,
		TwoFactorMethod:  account.TwoFactorMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func fromAccountModel(rec accountModel) (Account, error) {
	var user domain.User
	if err := json.Unmarshal([]byte(rec.Profile), &user); err != nil {
		return Account{}, fmt.Errorf("decode profile for %s: %w", rec.Email, err)
	}
	return Account{
		User:             user,
		PasswordHash:     rec.PasswordHash,
		TwoFactorEnabled: rec.TwoFactorEnabled,
		TwoFactorMethod:  rec.TwoFactorMethod,
	}, nil
}
