package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/ipowise/ipo-backend/config"
	"github.com/ipowise/ipo-backend/database"
	"github.com/ipowise/ipo-backend/handlers"
	"github.com/ipowise/ipo-backend/jobs"
	"github.com/ipowise/ipo-backend/services"
	"github.com/ipowise/ipo-backend/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate("database/schema.sql"); err != nil {
		log.Printf("Migration warning: %v", err)
	}

	// Verify the schema and create any missing indexes
	if err := database.ValidateAndOptimizeSchema(); err != nil {
		log.Printf("Schema validation warning: %v", err)
	}

	cacheConfig := config.DefaultCacheConfig()
	cacheConfig.DefaultTTL = cfg.GetCacheTTL()

	// Core services
	ipoService := services.NewIPOService(database.DB)
	cacheService := services.NewCacheServiceWithConfig(cacheConfig.DefaultTTL, cacheConfig.MaxSize)
	cachedIPOService := services.NewCachedIPOService(ipoService, cacheService)

	// Strategy engine
	strategyService := services.NewStrategyService()
	multiAccountService := services.NewMultiAccountService()
	allotmentCalculator := services.NewAllotmentCalculatorService()

	// Upstream refreshers
	gmpConfig := shared.NewGMPServiceConfig()
	gmpScraper := services.NewGMPScraperService(&gmpConfig, ipoService)
	subConfig := shared.NewSubscriptionScraperConfig()
	subscriptionScraper := services.NewSubscriptionScraperService(&subConfig, ipoService)

	log.Println("IPO backend services initialized:")
	log.Printf("  - Offering gateway (cache TTL: %v, max size: %d)",
		cacheConfig.DefaultTTL, cacheConfig.MaxSize)
	log.Printf("  - GMP scraper (rate limit: %v, timeout: %v)",
		gmpConfig.RequestRateLimit, gmpConfig.HTTPRequestTimeout)
	log.Printf("  - Subscription scraper (rate limit: %v, timeout: %v)",
		subConfig.RequestRateLimit, subConfig.HTTPRequestTimeout)
	log.Println("  - Strategy engine (single and multi-account)")

	// Jobs
	gmpJob := jobs.NewGMPUpdateJob(gmpScraper)
	subscriptionJob := jobs.NewSubscriptionUpdateJob(subscriptionScraper)

	// Handlers
	ipoHandler := handlers.NewIPOHandler(cachedIPOService)
	strategyHandler := handlers.NewStrategyHandler(cachedIPOService, strategyService, multiAccountService, allotmentCalculator)
	gmpHandler := handlers.NewGMPHandler(database.DB, ipoService)
	cacheHandler := handlers.NewCacheHandler(cachedIPOService)
	adminHandler := handlers.NewAdminHandler(ipoService, cachedIPOService, gmpJob, subscriptionJob)
	performanceHandler := handlers.NewPerformanceHandler(database.DB, ipoService, cachedIPOService)

	// Warmup cache on startup
	go func() {
		time.Sleep(2 * time.Second) // Wait for database to be ready
		if err := cachedIPOService.WarmupCache(context.Background()); err != nil {
			log.Printf("Cache warmup failed: %v", err)
		} else {
			log.Println("Cache warmed up successfully")
		}
	}()

	// Start background jobs
	if !cfg.DisableJobs {
		gmpJob.Start(cfg.GetGMPUpdateInterval())
		subscriptionJob.Start(cfg.GetSubscriptionUpdateInterval())
	} else {
		log.Println("Background jobs disabled via DISABLE_JOBS")
	}

	// Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.HealthCheck(); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api")

	// IPO Routes
	api.Get("/ipos", ipoHandler.GetIPOs)
	api.Get("/ipos/open", ipoHandler.GetOpenIPOs)
	api.Get("/ipos/:stock_id/gmp", gmpHandler.GetGMPByStockID)
	api.Get("/ipos/:stock_id/updates", gmpHandler.GetUpdateHistory)
	api.Get("/ipos/:slug", ipoHandler.GetIPOBySlug)

	// Strategy Routes
	api.Post("/strategies", strategyHandler.GenerateStrategies)
	api.Post("/strategies/multi-account", strategyHandler.GenerateMultiAccountStrategies)
	api.Post("/allotment/what-if", strategyHandler.CalculateAllotment)

	// Cache Routes
	api.Get("/cache/stats", cacheHandler.GetStats)
	api.Delete("/cache", cacheHandler.Clear)
	api.Post("/cache/warmup", cacheHandler.Warmup)

	// Admin Routes
	admin := api.Group("/admin", adminAuth(cfg.AdminToken))
	admin.Post("/ipos", adminHandler.UpsertIPO)
	admin.Post("/gmp/update", adminHandler.TriggerGMPUpdate)
	admin.Post("/subscriptions/update", adminHandler.TriggerSubscriptionUpdate)

	// Performance Routes
	api.Get("/performance/metrics", performanceHandler.GetPerformanceMetrics)

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// adminAuth gates the admin group on a shared token. An empty configured
// token leaves the group open, which is only sensible in development.
func adminAuth(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token != "" && c.Get("X-Admin-Token") != token {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "Unauthorized",
			})
		}
		return c.Next()
	}
}
