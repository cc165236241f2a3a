// Package main is the entry point for the supplytrack API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/alerts"
	v1 "supplytrack/internal/infrastructure/http/v1"
	"supplytrack/internal/infrastructure/http/v1/middleware"
	"supplytrack/internal/infrastructure/storage/postgres"
	"supplytrack/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting supplytrack server")

	// --- Database connection ---
	dbURL := mustEnv("DATABASE_URL")
	poolCfg := postgres.DefaultPoolConfig(dbURL)
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping database", "error", err)
	}
	log.Info("database connection established")

	txm := postgres.NewTxManager(pool)

	// --- Identity ---
	// Bearer tokens are optional and only feed audit attribution.
	var tokenParser *middleware.TokenParser
	if secret := getEnv("JWT_SECRET", ""); secret != "" {
		tokenParser = middleware.NewTokenParser(secret)
	} else {
		log.Warn("JWT_SECRET not set, all requests run anonymous")
	}

	// --- Invoice tax rate ---
	taxRate, err := types.NewMoneyFromString(getEnv("INVOICE_TAX_RATE", "0.12"))
	if err != nil {
		log.Fatalw("invalid INVOICE_TAX_RATE", "error", err)
	}

	// --- Reorder alert rule ---
	var alertRule *alerts.Rule
	if expr := getEnv("ALERT_RULE", ""); expr != "" {
		alertRule, err = alerts.Compile(expr)
		if err != nil {
			log.Fatalw("invalid ALERT_RULE", "error", err)
		}
		log.Infow("custom alert rule compiled", "rule", expr)
	}

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txm,
		Logger:         log,
		TokenParser:    tokenParser,
		TaxRate:        taxRate,
		AlertRule:      alertRule,
		AlertRecipient: getEnv("ALERT_RECIPIENT", "purchasing@localhost"),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
