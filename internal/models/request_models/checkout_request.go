package request_models

type CheckoutRequest struct {
	Bundle string `json:"bundle" binding:"required"`
}
