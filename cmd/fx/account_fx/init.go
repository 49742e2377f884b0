package account_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"pixtouch/internal/repositories"
	"pixtouch/internal/services"
)

var Module = fx.Provide(
	provideAccountService, provideAccountRepo, provideTokenRepo)

func provideAccountRepo(db *gorm.DB) repositories.AccountRepository {
	return repositories.NewAccountRepository(db)
}

func provideTokenRepo(db *gorm.DB) repositories.TokenRepository {
	return repositories.NewTokenRepository(db)
}

func provideAccountService(
	db *gorm.DB,
	accountRepo repositories.AccountRepository,
	tokenRepo repositories.TokenRepository,
	guard services.GuardService,
	ledger services.LedgerService,
	mailService services.IMailService,
) services.AccountServiceInterface {
	return services.NewAccountService(db, accountRepo, tokenRepo, guard, ledger, mailService)
}
