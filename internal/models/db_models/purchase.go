package db_models

import "github.com/google/uuid"

// Purchase records one confirmed payment event. StripePaymentID is the
// idempotency key: webhook redeliveries of the same payment are absorbed
// by the unique index.
type Purchase struct {
	BaseModel
	AccountID       uuid.UUID `gorm:"index"`
	StripePaymentID string    `gorm:"uniqueIndex"`
	BundleID        string
	CreditsAdded    int64
	AmountPaidMinor int64
	Currency        string `gorm:"size:3"`
}
