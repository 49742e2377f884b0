package response_models

type CreateCheckoutResponse struct {
	URL      string `json:"url"`
	BundleID string `json:"bundle_id"`
	Credits  int64  `json:"credits"`
}
