package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// LedgerReason is the business reason attached to a balance change.
type LedgerReason string

const (
	ReasonSignupBonus       LedgerReason = "signup_bonus"
	ReasonVerificationBonus LedgerReason = "verification_bonus"
	ReasonPurchase          LedgerReason = "purchase"
	ReasonGenerationDebit   LedgerReason = "generation_debit"
	ReasonGenerationRefund  LedgerReason = "generation_refund"
)

// AccessLog is the append-only audit trail. Every ledger operation writes
// one row, and successful generations write a usage row on top. Rows are
// never updated or deleted.
type AccessLog struct {
	BaseModel
	AccountID uuid.UUID `gorm:"index"`
	Feature   string    `gorm:"index"`
	Reason    LedgerReason

	// Delta is the signed balance change for ledger rows; CreditsUsed is
	// what a successful feature use consumed.
	Delta        int64
	CreditsUsed  int64
	BalanceAfter int64

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
