/*
Package main is the entry point for the relaychat server.

It is responsible for loading configuration, initializing the global logging system,
connecting the account database, starting the chat Manager and the HTTP server,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM).
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaychat/internal/app/chat"
	"relaychat/internal/app/db"
	"relaychat/internal/configs"
	"relaychat/internal/handler"
	"relaychat/internal/pkg/auth/jwt"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/pow"
)

func main() {
	// Load configuration from environment variables (and CONFIG_FILE, if set)
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("pow_difficulty", cfg.PowDifficulty).
		Strs("admin_usernames", cfg.AdminUsernames).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	tokens := jwt.NewService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	manager := chat.NewManager(chat.OptionsFromConfig(cfg), tokens)

	router := handler.Router(&handler.AppDeps{
		Manager:  manager,
		Config:   cfg,
		Tokens:   tokens,
		Accounts: db.New(pool),
		PoW:      pow.NewPoWManager(cfg.PowDifficulty),
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("relaychat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Hijacked WebSocket connections are not tracked by the HTTP server; the
	// Manager closes them and waits for their teardown.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "HTTP server forced to shutdown")
	}

	if err := manager.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Chat connections did not drain in time")
	}

	logx.Info("Server gracefully stopped.")
}
