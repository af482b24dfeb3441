package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/mom/internal/config"
	"github.com/dukerupert/mom/internal/database"
	"github.com/dukerupert/mom/internal/logging"
	"github.com/dukerupert/mom/internal/push"
	"github.com/dukerupert/mom/internal/server"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "vapid" {
		generateVAPIDKeys()
		return
	}

	cfg, err := config.Load(slog.Default())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if v, err := database.SchemaVersion(context.Background(), db); err == nil {
		logger.Info("database ready", "path", cfg.DBPath, "schema", v)
	}

	pushCfg := cfg.Push()
	if pushCfg.VAPIDPublicKey == "" {
		logger.Warn("VAPID keys not set, reminders will not be delivered; run `mom vapid` to generate a pair")
	}

	srv := server.New(db, server.Options{
		Reminder:      cfg.Reminder(),
		Push:          pushCfg,
		Backup:        cfg.Backup(),
		DisplayWindow: cfg.DisplayWindow,
	}, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	srv.Start(ctx)

	go srv.RateLimiter().Run(ctx, time.Minute)

	<-ctx.Done()

	logger.Info("shutting down")
	srv.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func generateVAPIDKeys() {
	pub, priv, err := push.GenerateVAPIDKeys()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%sVAPID_PUBLIC_KEY=%s\n", config.Prefix, pub)
	fmt.Printf("%sVAPID_PRIVATE_KEY=%s\n", config.Prefix, priv)
}
