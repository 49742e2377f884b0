package repositories

import (
	"errors"

	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
)

type PurchaseRepository interface {
	ExistsByPaymentIDTx(tx *gorm.DB, stripePaymentID string) (bool, error)
	InsertTx(tx *gorm.DB, purchase *db_models.Purchase) error
}

type purchaseRepository struct{}

func NewPurchaseRepository() PurchaseRepository {
	return &purchaseRepository{}
}

func (r *purchaseRepository) ExistsByPaymentIDTx(tx *gorm.DB, stripePaymentID string) (bool, error) {
	var purchase db_models.Purchase
	err := tx.Select("id").First(&purchase, "stripe_payment_id = ?", stripePaymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *purchaseRepository) InsertTx(tx *gorm.DB, purchase *db_models.Purchase) error {
	return tx.Create(purchase).Error
}
