package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"pixtouch/cmd/fx/account_fx"
	"pixtouch/cmd/fx/billing_fx"
	"pixtouch/cmd/fx/db_fx"
	"pixtouch/cmd/fx/generation_fx"
	"pixtouch/cmd/fx/guard_fx"
	"pixtouch/cmd/fx/ledger_fx"
	"pixtouch/cmd/fx/mail_fx"
	"pixtouch/cmd/fx/usage_fx"
	"pixtouch/internal/api/controllers"
	"pixtouch/internal/repositories"
	"pixtouch/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	app := fx.New(
		db_fx.Module,
		ledger_fx.Module,
		guard_fx.Module,
		mail_fx.Module,
		account_fx.Module,
		billing_fx.Module,
		usage_fx.Module,
		generation_fx.Module,

		fx.Provide(
			controllers.NewAccountController,
			controllers.NewGenerationController,
			controllers.NewBillingController,
			controllers.NewUsageController,
		),

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	generationController *controllers.GenerationController,
	billingController *controllers.BillingController,
	usageController *controllers.UsageController,
	accountRepo repositories.AccountRepository) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.CORSMiddleware())

	RegisterRoutes(r, accountController, generationController, billingController, usageController, accountRepo)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	generationController *controllers.GenerationController,
	billingController *controllers.BillingController,
	usageController *controllers.UsageController,
	accountRepo repositories.AccountRepository) {

	accountsGroup := r.Group("/accounts")
	accountsGroup.POST("/register", accountController.Register)
	accountsGroup.POST("/login", accountController.Login)
	accountsGroup.GET("/verify-email", accountController.VerifyEmail)
	accountsGroup.POST("/resend-verification", accountController.ResendVerification)
	accountsGroup.POST("/forgot-password", accountController.ForgotPassword)
	accountsGroup.POST("/reset-password", accountController.ResetPassword)

	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(accountRepo))
	authed.POST("/generate", generationController.Generate)
	authed.GET("/usage", usageController.GetUsage)
	authed.POST("/checkout", billingController.CreateCheckout)

	r.POST("/webhooks/stripe", billingController.StripeWebhook)
	r.GET("/cron/reset-usage", usageController.ResetUsage)
}
