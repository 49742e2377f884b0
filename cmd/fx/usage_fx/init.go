package usage_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"pixtouch/internal/repositories"
	"pixtouch/internal/services"
)

var Module = fx.Provide(provideUsageService)

func provideUsageService(db *gorm.DB, accountRepo repositories.AccountRepository, ledgerRepo repositories.LedgerRepository) services.UsageServiceInterface {
	return services.NewUsageService(db, accountRepo, ledgerRepo)
}
