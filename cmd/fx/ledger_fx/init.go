package ledger_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"pixtouch/internal/repositories"
	"pixtouch/internal/services"
)

var Module = fx.Provide(
	provideLedgerService, provideLedgerRepo)

func provideLedgerRepo() repositories.LedgerRepository {
	return repositories.NewLedgerRepository()
}

func provideLedgerService(db *gorm.DB, ledgerRepo repositories.LedgerRepository) services.LedgerService {
	return services.NewLedgerService(db, ledgerRepo)
}
