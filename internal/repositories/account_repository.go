package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
)

type AccountRepository interface {
	Insert(ctx context.Context, account *db_models.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	FindByEmail(ctx context.Context, email string) (*db_models.Account, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*db_models.Account, error)
	FindByStripeCustomerID(ctx context.Context, customerID string) (*db_models.Account, error)
	MarkVerified(tx *gorm.DB, id uuid.UUID, at time.Time) error
	RecordPurchaseTx(tx *gorm.DB, id uuid.UUID, credits int64, stripeCustomerID string) error
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdatePlan(ctx context.Context, id uuid.UUID, tier db_models.PlanTier, subscriptionID string, periodEnd *int64) error
	ResetDueUsage(ctx context.Context, cutoff time.Time) (int64, error)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) Insert(ctx context.Context, account *db_models.Account) error {
	return a.db.WithContext(ctx).Create(account).Error
}

func (a *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return a.db.WithContext(ctx).Unscoped().Delete(&db_models.Account{}, "id = ?", id).Error
}

func (a *accountRepository) FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindByEmail(ctx context.Context, email string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "email = ?", email).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).
		Where("reset_token = ? AND reset_token_expiry > ?", token, now.Unix()).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindByStripeCustomerID(ctx context.Context, customerID string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "stripe_customer_id = ?", customerID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) MarkVerified(tx *gorm.DB, id uuid.UUID, at time.Time) error {
	return tx.Model(&db_models.Account{}).
		Where("id = ?", id).
		Update("email_verified_at", at.Unix()).Error
}

// RecordPurchaseTx bumps the lifetime counter and pins the Stripe
// customer id; the balance itself moves through the ledger.
func (a *accountRepository) RecordPurchaseTx(tx *gorm.DB, id uuid.UUID, credits int64, stripeCustomerID string) error {
	updates := map[string]interface{}{
		"lifetime_purchased": gorm.Expr("lifetime_purchased + ?", credits),
	}
	if stripeCustomerID != "" {
		updates["stripe_customer_id"] = stripeCustomerID
	}
	return tx.Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (a *accountRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expiry time.Time) error {
	return a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"reset_token":        token,
			"reset_token_expiry": expiry.Unix(),
		}).Error
}

// UpdatePassword also clears the reset token and bumps the session
// version, forcing every outstanding session to re-authenticate.
func (a *accountRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash":      passwordHash,
			"reset_token":        nil,
			"reset_token_expiry": nil,
			"session_version":    gorm.Expr("session_version + 1"),
		}).Error
}

func (a *accountRepository) UpdatePlan(ctx context.Context, id uuid.UUID, tier db_models.PlanTier, subscriptionID string, periodEnd *int64) error {
	return a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"plan_tier":          tier,
			"subscription_id":    subscriptionID,
			"current_period_end": periodEnd,
		}).Error
}

// ResetDueUsage zeroes the daily usage counter for every account whose
// window has elapsed. Batch op for the sweep job, not part of the ledger.
func (a *accountRepository) ResetDueUsage(ctx context.Context, cutoff time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Model(&db_models.Account{}).
		Where("usage_reset_at < ?", cutoff.Unix()).
		Updates(map[string]interface{}{
			"usage_count":    0,
			"usage_reset_at": time.Now().Unix(),
		})
	return res.RowsAffected, res.Error
}
