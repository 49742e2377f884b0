package billing_fx

import (
	"log"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"pixtouch/internal/repositories"
	"pixtouch/internal/services"
)

var Module = fx.Provide(
	provideBillingService, providePurchaseRepo)

func providePurchaseRepo() repositories.PurchaseRepository {
	return repositories.NewPurchaseRepository()
}

func provideBillingService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	purchaseRepo repositories.PurchaseRepository,
	ledger services.LedgerService,
) services.BillingServiceInterface {
	cfg, err := services.LoadBillingConfig()
	if err != nil {
		log.Fatalf("Billing configuration error: %v", err)
	}
	return services.NewBillingService(cfg, db, accountRepo, purchaseRepo, ledger)
}
