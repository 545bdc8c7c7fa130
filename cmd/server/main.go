package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"rental/internal/app"
	"rental/internal/config"
	"rental/internal/domain"
	"rental/internal/handler"
	internalRedis "rental/internal/redis"
	"rental/internal/repository/postgres"
	"rental/internal/service"
)

func main() {
	// Load .env when present; real environments set variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Persistence.
	store := postgres.NewStore(db)
	identityRepo := postgres.NewIdentityRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	// Pricing configuration registries.
	taxes := service.NewTaxTable(nil)
	discounts := service.NewDiscountTable(domain.DiscountRule{})
	insurance := service.NewInsuranceTable()
	oracle := service.NewTableOracle()
	pricing := service.NewPricingEngine(taxes, discounts, cfg.Engine.PlatformFeePPM)

	// Boundaries, cached where a snapshot read is hot.
	catalog := service.NewCachedCatalog(catalogRepo, cacheStore)
	rates := service.NewCachedOracle(oracle, cacheStore)

	// Services.
	notifications := service.NewNotificationService()
	tripConfig := service.TripConfig{
		ApprovalWindow:        cfg.Engine.ApprovalWindow,
		GuestCheckinWindow:    cfg.Engine.GuestCheckinWindow,
		CheckinLead:           cfg.Engine.CheckinLead,
		ClaimWindow:           cfg.Engine.ClaimWindow,
		InsurancePremiumCents: cfg.Engine.InsurancePremiumCents,
	}
	tripService := service.NewTripService(store, identityRepo, catalog, rates, pricing, insurance, notifications, lockStore, tripConfig)
	claimService := service.NewClaimService(store, identityRepo, rates, insurance, notifications, cfg.Engine.ClaimWindow)
	promoService := service.NewPromoService(store.Repos().Promos)
	referralService := service.NewReferralService(store.Repos().Referrals, service.DefaultPointTable())
	walletService := service.NewWalletService(store, rates)
	sweepService := service.NewSweepService(store, tripService)

	// Handlers.
	tripHandler := handler.NewTripHandler(tripService)
	claimHandler := handler.NewClaimHandler(claimService)
	promoHandler := handler.NewPromoHandler(promoService)
	referralHandler := handler.NewReferralHandler(referralService)
	walletHandler := handler.NewWalletHandler(walletService)
	adminHandler := handler.NewAdminHandler(identityRepo, taxes, discounts, insurance, oracle,
		promoService, referralService, sweepService)

	router := app.NewRouter(app.RouterDeps{
		TripHandler:     tripHandler,
		ClaimHandler:    claimHandler,
		PromoHandler:    promoHandler,
		ReferralHandler: referralHandler,
		WalletHandler:   walletHandler,
		AdminHandler:    adminHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		JWTSecret:       cfg.Auth.JWTSecret,
		IdempotencyTTL:  cfg.Auth.IdempotencyTTL,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
