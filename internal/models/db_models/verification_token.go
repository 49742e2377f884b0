package db_models

// VerificationToken is single-use: it is deleted the moment it is
// consumed or found expired, never updated in place.
type VerificationToken struct {
	BaseModel
	Identifier string `gorm:"index"` // account email
	Token      string `gorm:"uniqueIndex"`
	ExpiresAt  int64
}
