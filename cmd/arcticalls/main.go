// Package main is the entry point for the ArctiCalls backend
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcticalls/arcticalls/internal/api"
	"github.com/arcticalls/arcticalls/internal/auth"
	"github.com/arcticalls/arcticalls/internal/call"
	"github.com/arcticalls/arcticalls/internal/config"
	"github.com/arcticalls/arcticalls/internal/db"
	"github.com/arcticalls/arcticalls/internal/token"
	"github.com/arcticalls/arcticalls/internal/twilio"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting ArctiCalls", "version", "0.1.0")

	// Load configuration
	cfg := config.Load()

	// Ensure data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		slog.Error("Failed to create data directories", "error", err)
		os.Exit(1)
	}

	// Initialize database
	database, err := db.New(cfg.DBPath())
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Twilio client
	twilioClient := twilio.NewClient(cfg)
	twilioClient.Start(ctx)
	slog.Info("Twilio client initialized", "healthy", twilioClient.IsHealthy())

	// Verify the configured account number is owned by the account.
	// A typo here would silently break inbound routing, so flag it at
	// startup, but do not refuse to run while Twilio is unreachable.
	go verifyAccountNumber(ctx, twilioClient, cfg.AccountNumber)

	// Access token minter for the browser client
	minter, err := token.NewMinter(token.MinterParams{
		AccountSID:   cfg.TwilioAccountSID,
		APIKeySID:    cfg.TwilioAPIKeySID,
		APIKeySecret: cfg.TwilioAPIKeySecret,
		AppSID:       cfg.TwilioAppSID,
		Identity:     config.TokenIdentity,
		TTL:          config.TokenTTL,
	})
	if err != nil {
		slog.Error("Failed to configure token minter", "error", err)
		os.Exit(1)
	}

	// API session tokens
	authMgr, err := auth.NewManager(cfg.JWTSecret, config.SessionDuration)
	if err != nil {
		slog.Error("Failed to configure auth manager", "error", err)
		os.Exit(1)
	}

	// Call session driven by the REST device and status callbacks
	device := twilio.NewDevice(twilioClient, cfg)
	session := call.NewSession(call.SessionConfig{
		Device:    device,
		Recorder:  database.Recents,
		Directory: database.Contacts,
	})

	// Initialize and start HTTP server
	router := api.NewRouter(api.NewDependencies(cfg, database, session, twilioClient, minter, authMgr))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in goroutine
	go func() {
		slog.Info("HTTP server started", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Exercise the credential endpoint end to end on the cadence the
	// browser refreshes, so a broken token path shows up server-side.
	tokenProvider := token.NewProvider(
		fmt.Sprintf("http://127.0.0.1:%d/api/token", cfg.HTTPPort),
		config.TokenMaxAttempts,
	)
	go tokenProvider.KeepFresh(ctx, config.TokenTTL-config.TokenRefreshLead)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	slog.Info("Shutdown signal received, initiating graceful shutdown...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// End any in-flight call before the webhooks go away
	session.HangUp()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("ArctiCalls shutdown complete")
}

func verifyAccountNumber(ctx context.Context, client *twilio.Client, number string) {
	if number == "" {
		slog.Warn("No account number configured, inbound calls will be rejected")
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	owned, err := client.OwnsNumber(checkCtx, number)
	if err != nil {
		slog.Warn("Could not verify account number ownership", "number", number, "error", err)
		return
	}
	if !owned {
		slog.Error("Configured account number is not owned by the Twilio account", "number", number)
		return
	}
	slog.Info("Account number verified", "number", number)
}
