package response_models

type AccountLoginResponse struct {
	Token         string `json:"token"`
	EmailVerified bool   `json:"email_verified"`
}

type VerifyEmailResponse struct {
	AlreadyVerified bool  `json:"already_verified"`
	CreditsGranted  int64 `json:"credits_granted"`
}
