package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/models/response_models"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/utils"
)

// Daily API-call allowance per tier; -1 means unlimited. This is a
// separate throttle from the credit balance.
var tierDailyLimits = map[db_models.PlanTier]int64{
	db_models.TierFree:       10,
	db_models.TierBasic:      100,
	db_models.TierPro:        500,
	db_models.TierEnterprise: -1,
}

type UsageServiceInterface interface {
	Snapshot(ctx context.Context, accountID uuid.UUID) (*response_models.UsageResponse, error)

	// RecordUse appends one usage row and bumps the daily counter. It does
	// not touch the credit balance; the ledger already moved it.
	RecordUse(ctx context.Context, accountID uuid.UUID, feature string) error

	// ResetDueCounters zeroes usage counters whose 24h window elapsed.
	// Driven by the cron route.
	ResetDueCounters(ctx context.Context) (int64, error)
}

type UsageService struct {
	db          *gorm.DB
	accountRepo repositories.AccountRepository
	ledgerRepo  repositories.LedgerRepository
}

func NewUsageService(db *gorm.DB, accountRepo repositories.AccountRepository, ledgerRepo repositories.LedgerRepository) UsageServiceInterface {
	return &UsageService{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

func (u *UsageService) Snapshot(ctx context.Context, accountID uuid.UUID) (*response_models.UsageResponse, error) {
	account, err := u.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	limit := tierDailyLimits[account.PlanTier]
	remaining := int64(-1)
	if limit >= 0 {
		remaining = limit - account.UsageCount
		if remaining < 0 {
			remaining = 0
		}
	}

	return &response_models.UsageResponse{
		Tier:              string(account.PlanTier),
		CreditBalance:     account.CreditBalance,
		LifetimePurchased: account.LifetimePurchased,
		UsageCount:        account.UsageCount,
		DailyLimit:        limit,
		Remaining:         remaining,
		UsageResetAt:      account.UsageResetAt,
		PeriodEnd:         account.CurrentPeriodEnd,
	}, nil
}

func (u *UsageService) RecordUse(ctx context.Context, accountID uuid.UUID, feature string) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&db_models.Account{}).
			Where("id = ?", accountID).
			Update("usage_count", gorm.Expr("usage_count + 1")).Error
		if err != nil {
			return err
		}
		return u.ledgerRepo.AppendLogTx(tx, &db_models.AccessLog{
			AccountID:   accountID,
			Feature:     feature,
			CreditsUsed: 1,
		})
	})
}

func (u *UsageService) ResetDueCounters(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	return u.accountRepo.ResetDueUsage(ctx, cutoff)
}
