package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"pixtouch/internal/infra"
	"pixtouch/internal/models/db_models"
	"pixtouch/internal/models/request_models"
	"pixtouch/internal/models/response_models"
	"pixtouch/pkg/utils"
)

const generationCost = 1

type GenerationServiceInterface interface {
	Generate(ctx context.Context, accountID uuid.UUID, request request_models.GenerateRequest) (*response_models.GenerateResponse, error)
}

type GenerationService struct {
	inference infra.InferenceClient
	ledger    LedgerService
	usage     UsageServiceInterface
	timeout   time.Duration
}

func NewGenerationService(inference infra.InferenceClient, ledger LedgerService, usage UsageServiceInterface, timeout time.Duration) GenerationServiceInterface {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &GenerationService{
		inference: inference,
		ledger:    ledger,
		usage:     usage,
		timeout:   timeout,
	}
}

// Generate debits one credit up front, calls the model and refunds on
// any failure, so a failed call always nets to zero. Settlement runs on
// a detached context: the caller hanging up mid-call must not leave the
// debit unresolved.
func (g *GenerationService) Generate(ctx context.Context, accountID uuid.UUID, request request_models.GenerateRequest) (resp *response_models.GenerateResponse, err error) {
	// Detached before the debit: once money is about to move, a client
	// disconnect must not interrupt the debit-call-settle sequence.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
	defer cancel()

	balance, err := g.ledger.Debit(callCtx, accountID, generationCost, db_models.ReasonGenerationDebit)
	if err != nil {
		return nil, err
	}

	settled := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", utils.ErrGenerationFailed, r)
		}
		if settled {
			return
		}
		// callCtx may itself be the reason the call failed (deadline hit),
		// so the refund runs on its own deadline.
		refundCtx, refundCancel := context.WithTimeout(context.WithoutCancel(callCtx), 15*time.Second)
		defer refundCancel()
		if _, refundErr := g.ledger.Credit(refundCtx, accountID, generationCost, db_models.ReasonGenerationRefund); refundErr != nil {
			// The balance is now short one credit; this needs an operator.
			log.Printf("CRITICAL: refund failed for account %s: %v", accountID, refundErr)
		}
	}()

	image, err := g.inference.Edit(callCtx, request.Image, request.Prompt, request.Style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrGenerationFailed, err)
	}
	if image == "" {
		return nil, fmt.Errorf("%w: empty model output", utils.ErrGenerationFailed)
	}

	settled = true

	if err := g.usage.RecordUse(callCtx, accountID, "image_generation"); err != nil {
		// The image is already paid for and delivered; only the usage
		// counter is stale.
		log.Printf("Failed to record usage for account %s: %v", accountID, err)
	}

	return &response_models.GenerateResponse{
		Image:            image,
		CreditsRemaining: balance,
	}, nil
}
