package handler

import (
	"prepaid-wallet-service/internal/adapter/http/middleware"
	"prepaid-wallet-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ClientSvc      ports.ClientService
	LedgerSvc      ports.LedgerService
	PaymentSvc     ports.PaymentService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Swagger documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	walletHandler := NewWalletHandler(deps.ClientSvc, deps.LedgerSvc, deps.PaymentSvc)
	wallet := v1.Group("/wallet")
	{
		wallet.POST("/register", walletHandler.Register)
		wallet.POST("/recharge", walletHandler.Recharge)
		wallet.POST("/payment", walletHandler.InitiatePayment)
		wallet.POST("/confirm-payment", walletHandler.ConfirmPayment)
		wallet.GET("/balance", walletHandler.GetBalance)
	}

	return r
}
