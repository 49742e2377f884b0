package response_models

type GenerateResponse struct {
	Image            string `json:"image"`
	CreditsRemaining int64  `json:"credits_remaining"`
}
