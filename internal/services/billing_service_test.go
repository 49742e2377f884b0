package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/repositories"
)

func newBillingFixture(t *testing.T, db *gorm.DB) BillingServiceInterface {
	t.Helper()
	cfg := BillingConfig{
		SecretKey:     "sk_test_fixture",
		WebhookSecret: "whsec_fixture",
		TierPrices: map[string]db_models.PlanTier{
			"price_basic":      db_models.TierBasic,
			"price_pro":        db_models.TierPro,
			"price_enterprise": db_models.TierEnterprise,
		},
	}
	ledger := NewLedgerService(db, repositories.NewLedgerRepository())
	return NewBillingService(cfg, db, repositories.NewAccountRepository(db), repositories.NewPurchaseRepository(), ledger)
}

func checkoutCompletedEvent(accountID, paymentIntent string, credits int64) stripe.Event {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":             "cs_test_1",
		"mode":           "payment",
		"customer":       "cus_123",
		"payment_intent": paymentIntent,
		"amount_total":   1999,
		"currency":       "usd",
		"metadata": map[string]string{
			"user_id": accountID,
			"bundle":  "starter",
			"credits": fmt.Sprintf("%d", credits),
		},
	})
	return stripe.Event{
		ID:   "evt_1",
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func subscriptionEvent(eventType, customer, priceID string, periodEnd int64) stripe.Event {
	raw, _ := json.Marshal(map[string]interface{}{
		"id":       "sub_1",
		"customer": customer,
		"items": map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"price":              map[string]string{"id": priceID},
					"current_period_end": periodEnd,
				},
			},
		},
	})
	return stripe.Event{
		ID:   "evt_2",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestPurchaseCreditsAppliedOnce(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "buyer@example.com", 0)
	svc := newBillingFixture(t, db)

	event := checkoutCompletedEvent(account.ID.String(), "pi_abc", 50)
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	// Stripe redelivers; the second application is a no-op.
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(50), reloaded.CreditBalance)
	assert.Equal(t, int64(50), reloaded.LifetimePurchased)
	assert.Equal(t, "cus_123", reloaded.StripeCustomerID)

	var purchases int64
	require.NoError(t, db.Model(&db_models.Purchase{}).Count(&purchases).Error)
	assert.Equal(t, int64(1), purchases)
	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonPurchase))
}

func TestPurchaseWithMissingMetadataIsAcknowledged(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingFixture(t, db)

	raw, _ := json.Marshal(map[string]interface{}{"id": "cs_x", "mode": "payment"})
	event := stripe.Event{Type: "checkout.session.completed", Data: &stripe.EventData{Raw: raw}}

	// Nothing to do, but no error: the event must not stay in the retry queue.
	require.NoError(t, svc.ProcessEvent(context.Background(), event))
}

func TestSubscriptionSetsTierFromPrice(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "sub@example.com", 0)
	require.NoError(t, db.Model(account).Update("stripe_customer_id", "cus_sub").Error)
	svc := newBillingFixture(t, db)

	event := subscriptionEvent("customer.subscription.created", "cus_sub", "price_pro", 1893456000)
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, db_models.TierPro, reloaded.PlanTier)
	require.NotNil(t, reloaded.CurrentPeriodEnd)
	assert.Equal(t, int64(1893456000), *reloaded.CurrentPeriodEnd)
	assert.Equal(t, "sub_1", reloaded.SubscriptionID)
}

func TestSubscriptionUnknownPriceFallsBackToFree(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "odd@example.com", 0)
	require.NoError(t, db.Model(account).Updates(map[string]interface{}{
		"stripe_customer_id": "cus_odd",
		"plan_tier":          db_models.TierPro,
	}).Error)
	svc := newBillingFixture(t, db)

	event := subscriptionEvent("customer.subscription.updated", "cus_odd", "price_retired", 0)
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, db_models.TierFree, reloaded.PlanTier)
}

func TestSubscriptionCancellationResetsTier(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "cancel@example.com", 0)
	require.NoError(t, db.Model(account).Updates(map[string]interface{}{
		"stripe_customer_id": "cus_cancel",
		"plan_tier":          db_models.TierEnterprise,
		"subscription_id":    "sub_old",
	}).Error)
	svc := newBillingFixture(t, db)

	event := subscriptionEvent("customer.subscription.deleted", "cus_cancel", "price_enterprise", 0)
	require.NoError(t, svc.ProcessEvent(context.Background(), event))

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, db_models.TierFree, reloaded.PlanTier)
	assert.Empty(t, reloaded.SubscriptionID)
}

func TestUnknownEventTypeIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingFixture(t, db)

	event := stripe.Event{Type: "invoice.finalized", Data: &stripe.EventData{Raw: json.RawMessage(`{}`)}}
	require.NoError(t, svc.ProcessEvent(context.Background(), event))
}

func TestSubscriptionForUnknownCustomerIsIgnored(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingFixture(t, db)

	event := subscriptionEvent("customer.subscription.created", "cus_ghost", "price_basic", 0)
	require.NoError(t, svc.ProcessEvent(context.Background(), event))
}
