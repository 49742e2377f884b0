package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/repositories"
)

// LedgerService is the only component allowed to move credit balances.
// Debit refuses to take the balance below zero; every successful
// operation appends one audit row in the same transaction.
//
// Neither operation carries an idempotency key. Callers that replay
// (webhook consumers) own their own replay protection.
type LedgerService interface {
	Debit(ctx context.Context, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error)
	Credit(ctx context.Context, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error)

	// CreditTx applies a credit inside a caller-owned transaction, the
	// way the reconciler couples it with its purchase record.
	CreditTx(tx *gorm.DB, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error)
}

type ledgerService struct {
	db         *gorm.DB
	ledgerRepo repositories.LedgerRepository
}

func NewLedgerService(db *gorm.DB, ledgerRepo repositories.LedgerRepository) LedgerService {
	return &ledgerService{
		db:         db,
		ledgerRepo: ledgerRepo,
	}
}

func (s *ledgerService) Debit(ctx context.Context, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.ledgerRepo.DebitTx(tx, accountID, amount)
		if err != nil {
			return err
		}
		return s.ledgerRepo.AppendLogTx(tx, &db_models.AccessLog{
			AccountID:    accountID,
			Feature:      "ledger",
			Reason:       reason,
			Delta:        -amount,
			BalanceAfter: balance,
		})
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *ledgerService) Credit(ctx context.Context, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = s.CreditTx(tx, accountID, amount, reason)
		return err
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s *ledgerService) CreditTx(tx *gorm.DB, accountID uuid.UUID, amount int64, reason db_models.LedgerReason) (int64, error) {
	balance, err := s.ledgerRepo.CreditTx(tx, accountID, amount)
	if err != nil {
		return 0, err
	}
	err = s.ledgerRepo.AppendLogTx(tx, &db_models.AccessLog{
		AccountID:    accountID,
		Feature:      "ledger",
		Reason:       reason,
		Delta:        amount,
		BalanceAfter: balance,
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
