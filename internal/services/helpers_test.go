package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"pixtouch/internal/models/db_models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Shared-cache memory DB named after the test, so every pooled
	// connection sees the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&db_models.Account{},
		&db_models.AccessLog{},
		&db_models.Purchase{},
		&db_models.VerificationToken{},
		&db_models.SignupAttempt{},
	))

	return db
}

func createTestAccount(t *testing.T, db *gorm.DB, email string, balance int64) *db_models.Account {
	t.Helper()
	account := &db_models.Account{
		Name:          "Test User",
		Email:         email,
		PasswordHash:  "irrelevant",
		PlanTier:      db_models.TierFree,
		CreditBalance: balance,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func countLogRows(t *testing.T, db *gorm.DB, reason db_models.LedgerReason) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&db_models.AccessLog{}).Where("reason = ?", reason).Count(&n).Error)
	return n
}

// mailRecorder stands in for the SMTP transport; it can be told to fail
// to exercise the signup rollback.
type mailRecorder struct {
	fail          bool
	verifications []string
	resets        []string
	lastTo        string
}

func (m *mailRecorder) SendVerificationEmail(to, token string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.lastTo = to
	m.verifications = append(m.verifications, token)
	return nil
}

func (m *mailRecorder) SendPasswordResetEmail(to, token string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.lastTo = to
	m.resets = append(m.resets, token)
	return nil
}

// stubInference returns a canned result, error or panic.
type stubInference struct {
	image  string
	err    error
	panics bool
	calls  int
}

func (s *stubInference) Edit(ctx context.Context, image, prompt, style string) (string, error) {
	s.calls++
	if s.panics {
		panic("model exploded")
	}
	return s.image, s.err
}
