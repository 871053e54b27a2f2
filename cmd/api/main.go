package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/cache"
	"github.com/quicklinkhq/quicklink/internal/config"
	"github.com/quicklinkhq/quicklink/internal/gateway"
	"github.com/quicklinkhq/quicklink/internal/handler"
	"github.com/quicklinkhq/quicklink/internal/repository"
	"github.com/quicklinkhq/quicklink/internal/service"
	"github.com/quicklinkhq/quicklink/internal/sluggen"
	"github.com/quicklinkhq/quicklink/internal/validator"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	// One pool per process, created once and reused by every handler.
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// The redirect cache is optional; without it every redirect hits Postgres.
	var aliasCache service.AliasCache
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		redisCache, err = cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		aliasCache = redisCache
	}

	app := fiber.New(fiber.Config{
		AppName:      "QuickLink",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := validator.New()

	// Repositories.
	urlRepo := repository.NewURLRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// Services.
	shortener := service.NewShortenerService(
		urlRepo, userRepo, sluggen.NewBase62(), aliasCache,
		cfg.Link.BaseURL, cfg.Link.AliasLength,
		time.Duration(cfg.Redis.TTL)*time.Second)
	couponSvc := service.NewCouponService(couponRepo, usageRepo)
	productSvc := service.NewProductService(productRepo)
	userSvc := service.NewUserService(userRepo)
	fulfillSvc := service.NewFulfillmentService(pool, userRepo, productRepo, couponRepo, usageRepo, paymentRepo)

	var gateways []gateway.Gateway
	if cfg.Gateway.RazorpayKeyID != "" {
		gateways = append(gateways, gateway.NewRazorpayClient(cfg.Gateway.RazorpayKeyID, cfg.Gateway.RazorpayKeySecret))
	}
	if cfg.Gateway.CashfreeAppID != "" {
		gateways = append(gateways, gateway.NewCashfreeClient(cfg.Gateway.CashfreeAppID, cfg.Gateway.CashfreeSecretKey))
	}
	paymentSvc := service.NewPaymentService(couponSvc, gateways...)

	// Handlers.
	urlHandler := handler.NewURLHandler(shortener, validate, cfg.Admin.Token)
	redirectHandler := handler.NewRedirectHandler(shortener, cfg.Link.BaseURL)
	shopHandler := handler.NewShopHandler(couponSvc, productSvc, fulfillSvc, validate)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, validate)
	userHandler := handler.NewUserHandler(userSvc, validate)
	adminHandler := handler.NewAdminHandler(couponSvc, productSvc, paymentRepo, validate)
	healthHandler := handler.NewHealthHandler(pool)

	app.Get("/health", healthHandler.Check)

	app.Post("/api/urls", urlHandler.CreateURL)
	app.Get("/api/urls", urlHandler.ListURLs)
	app.Put("/api/urls", urlHandler.ExtendExpiry)
	app.Delete("/api/urls/:id", urlHandler.DeleteURL)

	app.Get("/api/shop/products", shopHandler.ListProducts)
	app.Get("/api/shop/coupons/verify", shopHandler.VerifyCoupon)
	app.Post("/api/shop/fulfill", shopHandler.Fulfill)

	app.Post("/api/payments/orders", paymentHandler.CreateOrder)

	app.Post("/api/users", userHandler.Register)
	app.Post("/api/users/login", userHandler.Login)
	app.Get("/api/users/:id", userHandler.GetUser)

	admin := app.Group("/api/admin", handler.AdminAuth(cfg.Admin.Token))
	admin.Post("/coupons", adminHandler.CreateCoupon)
	admin.Delete("/coupons/:id", adminHandler.DeleteCoupon)
	admin.Post("/products", adminHandler.CreateProduct)
	admin.Delete("/products/:id", adminHandler.DeleteProduct)
	admin.Get("/payments", adminHandler.ListPayments)

	// Public short-link routes last so they don't shadow the API.
	app.Get("/:alias", redirectHandler.Redirect)
	app.Get("/:alias/qr", redirectHandler.QR)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
