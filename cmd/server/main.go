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

	"civicadmin/config"
	"civicadmin/internal/logging"
	"civicadmin/internal/middleware"
	"civicadmin/internal/router"
	"civicadmin/internal/ws"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "civicadmin",
		Short:         "Admin dashboard backend for civic issue reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.AddCommand(serveCmd(), reportsCmd(), setStatusCmd(), tokenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard feed",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWT.AccessSecret == "" {
		return errors.New("JWT_SECRET is required to serve")
	}
	log, err := logging.New(cfg.Server.Env, verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	hub := ws.NewHub()
	app, err := buildApp(cfg, log, hub)
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.dashboard.Refresh(cmd.Context()); err != nil {
		// The first request retries; start anyway so health checks pass.
		log.Warn("initial refresh failed", zap.Error(err))
	}

	limiter := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Stop()

	deps := router.Deps{Dashboard: app.dashboard, Hub: hub, Limiter: limiter, Log: log}
	if app.repo != nil {
		deps.History = app.repo
	}
	engine := router.Setup(cfg, deps)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("source", cfg.Source.Kind))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
