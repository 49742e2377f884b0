package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/pkg/utils"
)

// LedgerRepository performs the balance mutations. Both operations are
// single conditional UPDATE statements, never read-modify-write, so two
// racing requests for the same account cannot both win the last credit.
type LedgerRepository interface {
	DebitTx(tx *gorm.DB, accountID uuid.UUID, amount int64) (int64, error)
	CreditTx(tx *gorm.DB, accountID uuid.UUID, amount int64) (int64, error)
	AppendLogTx(tx *gorm.DB, entry *db_models.AccessLog) error
}

type ledgerRepository struct{}

func NewLedgerRepository() LedgerRepository {
	return &ledgerRepository{}
}

// DebitTx subtracts amount where the balance covers it. Zero rows
// affected means either an unknown account or not enough credits; the
// follow-up lookup disambiguates. Returns the balance after the debit.
func (r *ledgerRepository) DebitTx(tx *gorm.DB, accountID uuid.UUID, amount int64) (int64, error) {
	res := tx.Model(&db_models.Account{}).
		Where("id = ? AND credit_balance >= ?", accountID, amount).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&db_models.Account{}).Where("id = ?", accountID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, utils.ErrAccountNotFound
		}
		return 0, utils.ErrInsufficientCredits
	}

	return r.balance(tx, accountID)
}

func (r *ledgerRepository) CreditTx(tx *gorm.DB, accountID uuid.UUID, amount int64) (int64, error) {
	res := tx.Model(&db_models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("credit_balance", gorm.Expr("credit_balance + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, utils.ErrAccountNotFound
	}

	return r.balance(tx, accountID)
}

func (r *ledgerRepository) AppendLogTx(tx *gorm.DB, entry *db_models.AccessLog) error {
	if len(entry.Metadata) == 0 {
		entry.Metadata = datatypes.JSON("{}")
	}
	return tx.Create(entry).Error
}

func (r *ledgerRepository) balance(tx *gorm.DB, accountID uuid.UUID) (int64, error) {
	var account db_models.Account
	err := tx.Select("credit_balance").First(&account, "id = ?", accountID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, utils.ErrAccountNotFound
		}
		return 0, err
	}
	return account.CreditBalance, nil
}
