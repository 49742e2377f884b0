package db_models

type PlanTier string

const (
	TierFree       PlanTier = "FREE"
	TierBasic      PlanTier = "BASIC"
	TierPro        PlanTier = "PRO"
	TierEnterprise PlanTier = "ENTERPRISE"
)

type Account struct {
	BaseModel
	Name         string
	Email        string `gorm:"uniqueIndex"`
	PasswordHash string
	SignupIP     string

	// Set once the verification link is followed; the free credits are
	// only granted after that.
	EmailVerifiedAt *int64

	// CreditBalance is only ever mutated through the ledger's conditional
	// updates and never goes negative.
	CreditBalance     int64 `gorm:"not null;default:0"`
	LifetimePurchased int64 `gorm:"not null;default:0"`

	PlanTier         PlanTier `gorm:"size:16;default:'FREE'"`
	StripeCustomerID string   `gorm:"index"`
	SubscriptionID   string   `gorm:"index"`
	CurrentPeriodEnd *int64

	// Incremented to revoke all outstanding session tokens.
	SessionVersion int `gorm:"not null;default:0"`

	ResetToken       *string `gorm:"index"`
	ResetTokenExpiry *int64

	// Daily metering, reset by the sweep job.
	UsageCount   int64 `gorm:"not null;default:0"`
	UsageResetAt int64
}
