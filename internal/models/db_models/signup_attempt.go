package db_models

// SignupAttempt is logged for every registration attempt. Only rows with
// Success=true count toward the per-IP account cap; the rest are audit.
type SignupAttempt struct {
	BaseModel
	IPAddress string `gorm:"index"`
	Email     string `gorm:"index"`
	Success   bool   `gorm:"index"`
}
