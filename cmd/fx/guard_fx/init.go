package guard_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"pixtouch/internal/repositories"
	"pixtouch/internal/services"
	mem "pixtouch/pkg/memcache"
)

var Module = fx.Provide(
	provideGuardService, provideAttemptRepo, provideLoginAttempts)

func provideAttemptRepo(db *gorm.DB) repositories.AttemptRepository {
	return repositories.NewAttemptRepository(db)
}

func provideLoginAttempts() mem.LoginAttemptStore {
	cfg := services.DefaultGuardConfig()
	return mem.NewLoginAttempts(cfg.MaxLoginFailures, cfg.LoginWindow)
}

func provideGuardService(attemptRepo repositories.AttemptRepository, logins mem.LoginAttemptStore) services.GuardService {
	return services.NewGuardService(services.DefaultGuardConfig(), attemptRepo, logins)
}
