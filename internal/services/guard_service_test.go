package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pixtouch/internal/repositories"
	mem "pixtouch/pkg/memcache"
	"pixtouch/pkg/utils"
)

func newGuardFixture(t *testing.T) (GuardService, func(ip, email string)) {
	t.Helper()
	db := newTestDB(t)
	cfg := DefaultGuardConfig()
	guard := NewGuardService(cfg, repositories.NewAttemptRepository(db), mem.NewLoginAttempts(cfg.MaxLoginFailures, cfg.LoginWindow))

	signup := func(ip, email string) {
		require.NoError(t, guard.RecordSignupAttempt(context.Background(), ip, email))
		guard.MarkSignupSucceeded(context.Background(), ip, email)
	}
	return guard, signup
}

func TestSignupCapPerIP(t *testing.T) {
	guard, signup := newGuardFixture(t)
	ctx := context.Background()

	signup("10.0.0.1", "a@example.com")
	signup("10.0.0.1", "b@example.com")
	signup("10.0.0.1", "c@example.com")

	err := guard.RecordSignupAttempt(ctx, "10.0.0.1", "d@example.com")
	require.ErrorIs(t, err, utils.ErrRateLimited)

	// A different IP is unaffected.
	require.NoError(t, guard.RecordSignupAttempt(ctx, "10.0.0.2", "d@example.com"))
}

func TestSignupFailedAttemptsDoNotCount(t *testing.T) {
	guard, _ := newGuardFixture(t)
	ctx := context.Background()

	// Attempts that never complete signup stay below the cap.
	for i := 0; i < 10; i++ {
		require.NoError(t, guard.RecordSignupAttempt(ctx, "10.0.0.9", "x@example.com"))
	}
}

func TestLoginLockout(t *testing.T) {
	guard, _ := newGuardFixture(t)
	email := "victim@example.com"

	require.NoError(t, guard.CheckLoginAllowed(email))
	for i := 0; i < 5; i++ {
		guard.RecordLoginFailure(email)
	}
	require.ErrorIs(t, guard.CheckLoginAllowed(email), utils.ErrRateLimited)

	// Another identity is not affected.
	require.NoError(t, guard.CheckLoginAllowed("other@example.com"))

	guard.ClearLoginFailures(email)
	require.NoError(t, guard.CheckLoginAllowed(email))
}

func TestLoginWindowExpiry(t *testing.T) {
	store := mem.NewLoginAttempts(2, 50*time.Millisecond)

	store.Record("slow@example.com")
	store.Record("slow@example.com")
	assert.True(t, store.Blocked("slow@example.com"))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, store.Blocked("slow@example.com"))
}
