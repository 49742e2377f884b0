package generation_fx

import (
	"os"
	"time"

	"go.uber.org/fx"
	"pixtouch/internal/infra"
	"pixtouch/internal/services"
)

var Module = fx.Provide(
	provideGenerationService, provideInferenceClient)

func provideInferenceClient() infra.InferenceClient {
	spaceID := os.Getenv("HF_SPACE_ID")
	timeout := 2 * time.Minute
	if raw := os.Getenv("GENERATION_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}
	return infra.NewGradioClient(spaceID, timeout)
}

func provideGenerationService(
	inference infra.InferenceClient,
	ledger services.LedgerService,
	usage services.UsageServiceInterface,
) services.GenerationServiceInterface {
	return services.NewGenerationService(inference, ledger, usage, 2*time.Minute)
}
