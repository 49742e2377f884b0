package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/models/request_models"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/utils"
)

func newGenerationFixture(t *testing.T, db *gorm.DB, inference *stubInference) GenerationServiceInterface {
	t.Helper()
	ledger := NewLedgerService(db, repositories.NewLedgerRepository())
	usage := NewUsageService(db, repositories.NewAccountRepository(db), repositories.NewLedgerRepository())
	return NewGenerationService(inference, ledger, usage, time.Minute)
}

func TestGenerateDebitsOneCreditOnSuccess(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen@example.com", 5)
	svc := newGenerationFixture(t, db, &stubInference{image: "data:image/png;base64,ok"})

	resp, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "data:image/png;base64,src",
		Prompt: "make it anime",
	})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,ok", resp.Image)
	assert.Equal(t, int64(4), resp.CreditsRemaining)

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(4), reloaded.CreditBalance)
	assert.Equal(t, int64(1), reloaded.UsageCount)

	// Debit audit row plus the usage row, no refund.
	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonGenerationDebit))
	assert.Equal(t, int64(0), countLogRows(t, db, db_models.ReasonGenerationRefund))

	var usageRows int64
	require.NoError(t, db.Model(&db_models.AccessLog{}).
		Where("feature = ?", "image_generation").Count(&usageRows).Error)
	assert.Equal(t, int64(1), usageRows)
}

func TestGenerateRefundsOnModelError(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-fail@example.com", 5)
	svc := newGenerationFixture(t, db, &stubInference{err: errors.New("upstream 503")})

	_, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.ErrorIs(t, err, utils.ErrGenerationFailed)

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(5), reloaded.CreditBalance)
	assert.Equal(t, int64(0), reloaded.UsageCount)

	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonGenerationDebit))
	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonGenerationRefund))
}

func TestGenerateRefundsOnEmptyOutput(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-empty@example.com", 2)
	svc := newGenerationFixture(t, db, &stubInference{image: ""})

	_, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.ErrorIs(t, err, utils.ErrGenerationFailed)

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(2), reloaded.CreditBalance)
}

func TestGenerateRefundsOnPanic(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-panic@example.com", 3)
	svc := newGenerationFixture(t, db, &stubInference{panics: true})

	_, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.ErrorIs(t, err, utils.ErrGenerationFailed)

	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(3), reloaded.CreditBalance)
}

// hangingInference never answers; it only returns once the call
// context expires.
type hangingInference struct{}

func (h *hangingInference) Edit(ctx context.Context, image, prompt, style string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerateRefundsOnTimeout(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-slow@example.com", 5)
	ledger := NewLedgerService(db, repositories.NewLedgerRepository())
	usage := NewUsageService(db, repositories.NewAccountRepository(db), repositories.NewLedgerRepository())
	svc := NewGenerationService(&hangingInference{}, ledger, usage, 30*time.Millisecond)

	_, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.ErrorIs(t, err, utils.ErrGenerationFailed)

	// The expired call deadline must not take the refund down with it.
	var reloaded db_models.Account
	require.NoError(t, db.First(&reloaded, "id = ?", account.ID).Error)
	assert.Equal(t, int64(5), reloaded.CreditBalance)
	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonGenerationDebit))
	assert.Equal(t, int64(1), countLogRows(t, db, db_models.ReasonGenerationRefund))
}

func TestGenerateWithZeroBalance(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-zero@example.com", 0)
	inference := &stubInference{image: "never"}
	svc := newGenerationFixture(t, db, inference)

	_, err := svc.Generate(context.Background(), account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.ErrorIs(t, err, utils.ErrInsufficientCredits)

	// The model is never called and nothing is logged.
	assert.Equal(t, 0, inference.calls)
	var rows int64
	require.NoError(t, db.Model(&db_models.AccessLog{}).Count(&rows).Error)
	assert.Equal(t, int64(0), rows)
}

func TestGenerateSurvivesCallerCancellation(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "gen-cancel@example.com", 5)
	svc := newGenerationFixture(t, db, &stubInference{image: "ok"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // client already gone

	resp, err := svc.Generate(ctx, account.ID, request_models.GenerateRequest{
		Image:  "img",
		Prompt: "p",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.CreditsRemaining)
}
