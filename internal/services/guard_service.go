package services

import (
	"context"
	"log"
	"time"

	"pixtouch/internal/models/db_models"
	"pixtouch/internal/repositories"
	mem "pixtouch/pkg/memcache"
	"pixtouch/pkg/utils"
)

type GuardConfig struct {
	MaxAccountsPerIP int           // successful signups from one IP inside the lookback
	SignupLookback   time.Duration // defaults to 30 days
	MaxLoginFailures int           // failed attempts per identity inside the window
	LoginWindow      time.Duration // defaults to 15 minutes
}

func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxAccountsPerIP: 3,
		SignupLookback:   30 * 24 * time.Hour,
		MaxLoginFailures: 5,
		LoginWindow:      15 * time.Minute,
	}
}

// GuardService holds the abuse throttles. Both checks are pure
// decisions over a count; the only state it writes is attempt rows.
type GuardService interface {
	// RecordSignupAttempt logs the attempt (success or not, for audit)
	// and returns ErrRateLimited when the IP already created the maximum
	// number of accounts inside the lookback window.
	RecordSignupAttempt(ctx context.Context, ip, email string) error
	MarkSignupSucceeded(ctx context.Context, ip, email string)

	CheckLoginAllowed(email string) error
	RecordLoginFailure(email string)
	ClearLoginFailures(email string)
}

type guardService struct {
	cfg         GuardConfig
	attemptRepo repositories.AttemptRepository
	logins      mem.LoginAttemptStore
}

func NewGuardService(cfg GuardConfig, attemptRepo repositories.AttemptRepository, logins mem.LoginAttemptStore) GuardService {
	return &guardService{
		cfg:         cfg,
		attemptRepo: attemptRepo,
		logins:      logins,
	}
}

func (g *guardService) RecordSignupAttempt(ctx context.Context, ip, email string) error {
	if err := g.attemptRepo.Insert(ctx, &db_models.SignupAttempt{
		IPAddress: ip,
		Email:     email,
		Success:   false,
	}); err != nil {
		return utils.ErrDatabaseError
	}

	since := time.Now().Add(-g.cfg.SignupLookback)
	count, err := g.attemptRepo.CountSuccessfulSince(ctx, ip, since)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if count >= int64(g.cfg.MaxAccountsPerIP) {
		log.Printf("Signup cap reached for ip %s (%d accounts in window)", ip, count)
		return utils.ErrRateLimited
	}

	return nil
}

func (g *guardService) MarkSignupSucceeded(ctx context.Context, ip, email string) {
	if err := g.attemptRepo.MarkSucceeded(ctx, ip, email); err != nil {
		log.Printf("Failed to mark signup attempt successful for %s: %v", email, err)
	}
}

func (g *guardService) CheckLoginAllowed(email string) error {
	if g.logins.Blocked(email) {
		return utils.ErrRateLimited
	}
	return nil
}

func (g *guardService) RecordLoginFailure(email string) {
	g.logins.Record(email)
}

func (g *guardService) ClearLoginFailures(email string) {
	g.logins.Clear(email)
}
