package response_models

type UsageResponse struct {
	Tier              string `json:"tier"`
	CreditBalance     int64  `json:"credit_balance"`
	LifetimePurchased int64  `json:"lifetime_purchased"`
	UsageCount        int64  `json:"usage_count"`
	DailyLimit        int64  `json:"daily_limit"`
	Remaining         int64  `json:"remaining"`
	UsageResetAt      int64  `json:"usage_reset_at"`
	PeriodEnd         *int64 `json:"period_end,omitempty"`
}
