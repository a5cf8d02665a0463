/*
Package main is the entry point for the chat relay.

It loads configuration, initializes the global logger, starts the Hub and the
HTTP server, and shuts both down when SIGINT or SIGTERM arrives.
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

	"golang.org/x/time/rate"

	"provchat/internal/app/chat"
	"provchat/internal/configs"
	"provchat/internal/handler"
	"provchat/internal/pkg/logx"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int64("max_message_bytes", cfg.MaxMessageBytes).
		Float64("message_rate", cfg.MessageRate).
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(chat.Options{
		MaxMessageBytes: cfg.MaxMessageBytes,
		MessageRate:     rate.Limit(cfg.MessageRate),
		MessageBurst:    cfg.MessageBurst,
	})
	go hub.Run()

	handshakeLimiter := handler.NewHandshakeLimiter(cfg)
	defer handshakeLimiter.Stop()

	router := handler.Router(&handler.AppDeps{
		Hub:              hub,
		Config:           cfg,
		HandshakeLimiter: handshakeLimiter,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Chat relay starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Hijacked WebSocket connections are not tracked by Shutdown; stopping
	// the hub closes them.
	hub.Stop()
	<-hub.Done()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
