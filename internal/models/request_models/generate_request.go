package request_models

type GenerateRequest struct {
	// Base64-encoded source image.
	Image  string `json:"image" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
	Style  string `json:"style"`
}
