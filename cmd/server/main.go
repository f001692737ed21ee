package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unwindlabs/tranchegate/internal/config"
	"github.com/unwindlabs/tranchegate/internal/engine"
	"github.com/unwindlabs/tranchegate/internal/handler"
	"github.com/unwindlabs/tranchegate/internal/middleware"
	"github.com/unwindlabs/tranchegate/internal/oracle"
	"github.com/unwindlabs/tranchegate/internal/pkg/logger"
	"github.com/unwindlabs/tranchegate/internal/repository"
	"github.com/unwindlabs/tranchegate/internal/stream"
	"github.com/unwindlabs/tranchegate/internal/vault"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.File)

	// 2. Initialize Persistence (Postgres > SQLite)
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open ledger database: %v", err)
	}
	store := repository.NewGormStore(db)

	// Redis collaborators (holder count, signal fan-out); static fallbacks.
	var holders repository.HolderCounter = repository.StaticHolderCounter(0)
	var sinks []engine.SignalSink
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
			holders = redisClient
			sinks = append(sinks, redisClient)
		} else {
			logger.Error("Failed to connect to Redis, using static fallbacks", "error", err)
		}
	}

	// 3. Vault: restore balances, then hand the engine its authority.
	bank := vault.NewBank()
	if entries, err := store.LoadBalances(context.Background()); err == nil && len(entries) > 0 {
		bank.Restore(entries)
		logger.Info("Restored vault balances", "accounts", len(entries))
	}

	eng, err := engine.New(bank, engine.Options{
		Orders:   store,
		Policy:   store,
		Balances: store,
		Clock:    vault.SystemClock(),
		Holding:  cfg.Vault.HoldingAccount,
		Reserve:  cfg.Vault.ReserveAccount,
	})
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	// 4. Oracle feed (HTTP > static)
	var feed oracle.PriceFeed
	switch {
	case cfg.Oracle.FeedURL != "":
		feed = oracle.NewHTTPFeed(cfg.Oracle.FeedURL,
			time.Duration(cfg.Oracle.TimeoutMs)*time.Millisecond,
			time.Duration(cfg.Oracle.StaleSeconds)*time.Second)
	case cfg.Oracle.StaticPrice != "":
		feed, err = oracle.NewStaticFeedFromString(cfg.Oracle.StaticPrice)
		if err != nil {
			log.Fatalf("Bad static oracle price: %v", err)
		}
	default:
		feed = oracle.NewStaticFeed(oracle.Price{Mantissa: 1, Expo: 0})
	}

	hub := stream.NewHub()
	sinks = append(sinks, hub)
	rebaser := engine.NewRebaser(feed, holders, vault.SystemClock(), sinks...)

	// 5. Handlers
	orderHandler := handler.NewOrderHandler(eng)
	policyHandler := handler.NewPolicyHandler(eng, cfg.Policy.TrancheInterval, cfg.Policy.MaxTxPercentBP)
	rebaseHandler := handler.NewRebaseHandler(rebaser)
	vaultHandler := handler.NewVaultHandler(eng)
	signalsHandler := handler.NewSignalsHandler(hub)

	// 6. Router
	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "tranchegate"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	idempotencyStore := middleware.NewInMemIdempotencyStore()

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg))
	v1.Use(middleware.RateLimitMiddleware(cfg))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/orders", orderHandler.Submit)
		v1.GET("/orders", orderHandler.List)
		v1.GET("/orders/:id", orderHandler.Get)
		v1.POST("/orders/:id/execute", orderHandler.Execute)
		v1.POST("/rebase", rebaseHandler.Trigger)
		v1.GET("/config", policyHandler.Get)
		v1.GET("/balances/:name", vaultHandler.Balance)
		v1.GET("/signals/ws", signalsHandler.Stream)

		admin := v1.Group("")
		admin.Use(middleware.OwnerAuthMiddleware(cfg))
		{
			admin.POST("/config/init", policyHandler.Init)
			admin.POST("/balances/:name/deposit", vaultHandler.Deposit)
		}
	}

	// 7. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("TrancheGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
