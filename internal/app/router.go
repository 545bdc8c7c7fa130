package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rental/internal/handler"
	"rental/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	TripHandler     *handler.TripHandler
	ClaimHandler    *handler.ClaimHandler
	PromoHandler    *handler.PromoHandler
	ReferralHandler *handler.ReferralHandler
	WalletHandler   *handler.WalletHandler
	AdminHandler    *handler.AdminHandler

	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
	JWTSecret      string
	IdempotencyTTL time.Duration
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient, deps.IdempotencyTTL))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes. Everything below requires a token.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTSecret))
	v1.Use(middleware.NewRelicAttributes())
	{
		// Trip lifecycle routes.
		trips := v1.Group("/trips")
		{
			trips.POST("/quote", deps.TripHandler.Quote)
			trips.POST("", deps.TripHandler.Book)
			trips.GET("", deps.TripHandler.List)
			trips.GET("/:id", deps.TripHandler.Get)
			trips.POST("/:id/approve", deps.TripHandler.Approve)
			trips.POST("/:id/reject", deps.TripHandler.Reject)
			trips.POST("/:id/cancel", deps.TripHandler.Cancel)
			trips.POST("/:id/checkin/host", deps.TripHandler.CheckinHost)
			trips.POST("/:id/checkin/guest", deps.TripHandler.CheckinGuest)
			trips.POST("/:id/checkout/guest", deps.TripHandler.CheckoutGuest)
			trips.POST("/:id/checkout/host", deps.TripHandler.CheckoutHost)
			trips.POST("/:id/confirm", deps.TripHandler.ConfirmCheckout)
			trips.POST("/:id/finish", deps.TripHandler.Finish)
		}

		// Claim routes.
		claims := v1.Group("/claims")
		{
			claims.POST("", deps.ClaimHandler.File)
			claims.GET("", deps.ClaimHandler.List)
			claims.GET("/:id", deps.ClaimHandler.Get)
			claims.POST("/:id/pay", deps.ClaimHandler.Pay)
			claims.POST("/:id/reject", deps.ClaimHandler.Reject)
		}

		// Promo routes.
		promos := v1.Group("/promos")
		{
			promos.GET("/:code", deps.PromoHandler.Check)
		}

		// Referral routes.
		referral := v1.Group("/referral")
		{
			referral.POST("/register", deps.ReferralHandler.Register)
			referral.GET("", deps.ReferralHandler.Account)
			referral.POST("/claim", deps.ReferralHandler.ClaimPoints)
		}

		// Wallet routes.
		wallet := v1.Group("/wallet")
		{
			wallet.POST("/deposit", deps.WalletHandler.Deposit)
			wallet.POST("/withdraw", deps.WalletHandler.Withdraw)
			wallet.GET("/:currency", deps.WalletHandler.Balance)
		}

		// Admin routes. Role checks happen inside the handler.
		admin := v1.Group("/admin")
		{
			admin.POST("/taxes", deps.AdminHandler.SetTaxes)
			admin.POST("/discounts", deps.AdminHandler.SetDiscounts)
			admin.POST("/insurance", deps.AdminHandler.SetInsurance)
			admin.POST("/rates", deps.AdminHandler.SetRate)
			admin.POST("/promos", deps.AdminHandler.GeneratePromos)
			admin.POST("/promos/:code/deactivate", deps.AdminHandler.DeactivatePromo)
			admin.POST("/referral/actions", deps.AdminHandler.RecordReferralAction)
			admin.POST("/sweep", deps.AdminHandler.Sweep)
		}
	}

	return router
}
