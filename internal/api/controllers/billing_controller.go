package controllers

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pixtouch/internal/models/request_models"
	"pixtouch/internal/services"
	"pixtouch/pkg/utils"
)

type BillingController struct {
	billingService services.BillingServiceInterface
}

func NewBillingController(billingService services.BillingServiceInterface) *BillingController {
	return &BillingController{
		billingService: billingService,
	}
}

// CreateCheckout godoc
// @Summary Create a Stripe checkout session
// @Description Start a credit-bundle purchase and return the checkout URL
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body request_models.CheckoutRequest true "Checkout payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Security BearerAuth
// @Router /checkout [post]
func (b *BillingController) CreateCheckout(c *gin.Context) {
	var req request_models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID := c.MustGet("account_id").(uuid.UUID)

	result, err := b.billingService.CreateCheckout(context.Background(), accountID, req.Bundle)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Checkout session created")
}

// StripeWebhook godoc
// @Summary Stripe webhook endpoint
// @Description Verifies the event signature and applies the entitlement change
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Router /webhooks/stripe [post]
func (b *BillingController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Cannot read request body")
		return
	}

	event, err := b.billingService.ConstructEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		// Bad signature is final: a 400 tells Stripe not to retry.
		utils.RespondError(c, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	if err := b.billingService.ProcessEvent(context.Background(), event); err != nil {
		log.Printf("Webhook %s (%s) failed: %v", event.ID, event.Type, err)
		// 500 keeps the event in Stripe's retry queue.
		utils.RespondError(c, http.StatusInternalServerError, "Webhook handler failed")
		return
	}

	utils.RespondSuccess(c, gin.H{"received": true}, "Event processed")
}
