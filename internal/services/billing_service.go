package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/models/response_models"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/utils"
)

// Bundle is a one-time credit pack sold through Stripe checkout.
type Bundle struct {
	ID          string
	Name        string
	Credits     int64
	AmountMinor int64 // price in the currency's minor unit
	Currency    string
}

var creditBundles = map[string]Bundle{
	"single":       {ID: "single", Name: "Single Image", Credits: 1, AmountMinor: 50, Currency: "usd"},
	"starter":      {ID: "starter", Name: "Starter Bundle", Credits: 50, AmountMinor: 1999, Currency: "usd"},
	"creator":      {ID: "creator", Name: "Creator Bundle", Credits: 150, AmountMinor: 4999, Currency: "usd"},
	"professional": {ID: "professional", Name: "Professional Bundle", Credits: 350, AmountMinor: 9999, Currency: "usd"},
}

type BillingConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string

	// Stripe price id -> subscription tier. Every subscription price the
	// dashboard sells must appear here; anything else maps to FREE.
	TierPrices map[string]db_models.PlanTier
}

func LoadBillingConfig() (BillingConfig, error) {
	cfg := BillingConfig{
		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		SuccessURL:    os.Getenv("STRIPE_SUCCESS_URL"),
		CancelURL:     os.Getenv("STRIPE_CANCEL_URL"),
		TierPrices:    map[string]db_models.PlanTier{},
	}
	if cfg.SecretKey == "" {
		return cfg, fmt.Errorf("STRIPE_SECRET_KEY not configured")
	}
	if cfg.WebhookSecret == "" {
		return cfg, fmt.Errorf("STRIPE_WEBHOOK_SECRET not configured")
	}

	tierEnvs := map[string]db_models.PlanTier{
		"STRIPE_BASIC_PRICE_ID":      db_models.TierBasic,
		"STRIPE_PRO_PRICE_ID":        db_models.TierPro,
		"STRIPE_ENTERPRISE_PRICE_ID": db_models.TierEnterprise,
	}
	var missing []string
	for env, tier := range tierEnvs {
		if id := os.Getenv(env); id != "" {
			cfg.TierPrices[id] = tier
		} else {
			missing = append(missing, env)
		}
	}
	// All tiers mapped or none: a partial map silently downgrades paying
	// subscribers to FREE, so refuse to start with one.
	if len(missing) > 0 && len(missing) < len(tierEnvs) {
		return cfg, fmt.Errorf("incomplete tier price map, missing %v", missing)
	}
	return cfg, nil
}

type BillingServiceInterface interface {
	CreateCheckout(ctx context.Context, accountID uuid.UUID, bundleID string) (*response_models.CreateCheckoutResponse, error)

	// ConstructEvent verifies the webhook signature; a failure here is the
	// caller's 400 and must not be retried by Stripe.
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
	ProcessEvent(ctx context.Context, event stripe.Event) error
}

type BillingService struct {
	cfg          BillingConfig
	db           *gorm.DB
	accountRepo  repositories.AccountRepository
	purchaseRepo repositories.PurchaseRepository
	ledger       LedgerService
}

func NewBillingService(
	cfg BillingConfig,
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	purchaseRepo repositories.PurchaseRepository,
	ledger LedgerService,
) BillingServiceInterface {
	stripe.Key = cfg.SecretKey
	return &BillingService{
		cfg:          cfg,
		db:           db,
		accountRepo:  accountRepo,
		purchaseRepo: purchaseRepo,
		ledger:       ledger,
	}
}

func (b *BillingService) CreateCheckout(ctx context.Context, accountID uuid.UUID, bundleID string) (*response_models.CreateCheckoutResponse, error) {
	bundle, ok := creditBundles[bundleID]
	if !ok {
		return nil, utils.ErrInvalidBundle
	}

	account, err := b.accountRepo.FindById(ctx, accountID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if account == nil {
		return nil, utils.ErrAccountNotFound
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(b.cfg.SuccessURL),
		CancelURL:  stripe.String(b.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(bundle.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(bundle.Name),
						Description: stripe.String(fmt.Sprintf("%d image generation credits", bundle.Credits)),
					},
					UnitAmount: stripe.Int64(bundle.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(account.Email),
	}
	params.AddMetadata("user_id", accountID.String())
	params.AddMetadata("bundle", bundle.ID)
	params.AddMetadata("credits", strconv.FormatInt(bundle.Credits, 10))

	sess, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("Failed to create checkout session for %s: %v", accountID, err)
		return nil, utils.ErrDatabaseError
	}

	return &response_models.CreateCheckoutResponse{
		URL:      sess.URL,
		BundleID: bundle.ID,
		Credits:  bundle.Credits,
	}, nil
}

func (b *BillingService) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, b.cfg.WebhookSecret)
}

// Webhook payload shapes, decoded from event.Data.Raw. Only the fields
// the reconciler reads; unexpanded references arrive as plain ids.
type checkoutSessionPayload struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	Customer      string            `json:"customer"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// ProcessEvent applies one verified webhook event. Unknown event types
// are acknowledged without action; Stripe redelivers on error, so every
// handler must be idempotent.
func (b *BillingService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if sess.Mode != "payment" {
			return nil
		}
		return b.applyPurchase(ctx, sess)

	case "customer.subscription.created", "customer.subscription.updated":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return b.applyPlanChange(ctx, sub)

	case "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		return b.applyPlanCancellation(ctx, sub)

	default:
		log.Printf("Ignoring webhook event type %s", event.Type)
		return nil
	}
}

func (b *BillingService) applyPurchase(ctx context.Context, sess checkoutSessionPayload) error {
	userID := sess.Metadata["user_id"]
	bundleID := sess.Metadata["bundle"]
	creditsStr := sess.Metadata["credits"]
	if userID == "" || bundleID == "" || creditsStr == "" {
		log.Printf("Checkout session %s missing metadata, skipping", sess.ID)
		return nil
	}

	accountID, err := uuid.Parse(userID)
	if err != nil {
		log.Printf("Checkout session %s has malformed user_id %q, skipping", sess.ID, userID)
		return nil
	}
	credits, err := strconv.ParseInt(creditsStr, 10, 64)
	if err != nil || credits <= 0 {
		log.Printf("Checkout session %s has malformed credits %q, skipping", sess.ID, creditsStr)
		return nil
	}

	paymentID := sess.PaymentIntent
	if paymentID == "" {
		paymentID = sess.ID
	}

	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := b.purchaseRepo.ExistsByPaymentIDTx(tx, paymentID)
		if err != nil {
			return err
		}
		if exists {
			// Redelivered event, already settled.
			return nil
		}

		if _, err := b.ledger.CreditTx(tx, accountID, credits, db_models.ReasonPurchase); err != nil {
			return err
		}
		if err := b.accountRepo.RecordPurchaseTx(tx, accountID, credits, sess.Customer); err != nil {
			return err
		}
		return b.purchaseRepo.InsertTx(tx, &db_models.Purchase{
			AccountID:       accountID,
			StripePaymentID: paymentID,
			BundleID:        bundleID,
			CreditsAdded:    credits,
			AmountPaidMinor: sess.AmountTotal,
			Currency:        sess.Currency,
		})
	})
}

func (b *BillingService) applyPlanChange(ctx context.Context, sub subscriptionPayload) error {
	account, err := b.accountRepo.FindByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		return err
	}
	if account == nil {
		log.Printf("Subscription %s for unknown customer %s, skipping", sub.ID, sub.Customer)
		return nil
	}

	tier := db_models.TierFree
	var periodEnd *int64
	if len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if mapped, ok := b.cfg.TierPrices[item.Price.ID]; ok {
			tier = mapped
		} else {
			log.Printf("Unknown price id %s on subscription %s, falling back to FREE", item.Price.ID, sub.ID)
		}
		if item.CurrentPeriodEnd > 0 {
			end := item.CurrentPeriodEnd
			periodEnd = &end
		}
	}

	return b.accountRepo.UpdatePlan(ctx, account.ID, tier, sub.ID, periodEnd)
}

func (b *BillingService) applyPlanCancellation(ctx context.Context, sub subscriptionPayload) error {
	account, err := b.accountRepo.FindByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}
	return b.accountRepo.UpdatePlan(ctx, account.ID, db_models.TierFree, "", nil)
}
