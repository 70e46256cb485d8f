package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/config"
	"github.com/dukerupert/healthybuddy/internal/database"
	"github.com/dukerupert/healthybuddy/internal/domain"
	"github.com/dukerupert/healthybuddy/internal/logging"
	"github.com/dukerupert/healthybuddy/internal/server"
	"github.com/dukerupert/healthybuddy/internal/session"
	"github.com/dukerupert/healthybuddy/internal/store"
	ws "github.com/dukerupert/healthybuddy/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	policy, err := domain.ParseDeclinePolicy(cfg.DeclinePolicy)
	if err != nil {
		slog.Error("invalid HB_DECLINE_POLICY", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	var (
		verifier auth.Verifier
		members  auth.MemberLister
	)
	switch cfg.Credentials {
	case config.CredentialsStatic:
		dir, err := auth.NewDemoDirectory()
		if err != nil {
			slog.Error("build demo directory", "error", err)
			os.Exit(1)
		}
		verifier, members = dir, dir
	default:
		accounts := store.NewAccountStore(db)
		if cfg.SeedDemo {
			if err := accounts.SeedDemo(ctx); err != nil {
				slog.Error("seed demo accounts", "error", err)
				os.Exit(1)
			}
		}
		verifier, members = accounts, accounts
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	sessions := session.New(session.Config{StorageTimeout: cfg.StorageTimeout},
		store.NewKVStore(db), verifier, hub, logger.With("component", "session"))
	sessions.Restore(ctx)
	if u := sessions.Current(); u != nil {
		slog.Info("restored session", "user", u.Username, "role", u.Role)
	}

	tasks := domain.New(domain.Config{DeclinePolicy: policy}, hub, logger.With("component", "domain"))

	srv := server.New(db, sessions, tasks, members, hub, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := srv.RateLimiter().Cleanup(); n > 0 {
					slog.Debug("cleaned up rate limit windows", "count", n)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("healthy buddy starting", "addr", cfg.Addr(), "credentials", cfg.Credentials, "decline_policy", string(policy))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
