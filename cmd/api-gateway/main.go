package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/teachers-portal-api/api/swagger"
	"github.com/noah-isme/teachers-portal-api/internal/app"
	"github.com/noah-isme/teachers-portal-api/internal/handler"
	"github.com/noah-isme/teachers-portal-api/pkg/config"
	"github.com/noah-isme/teachers-portal-api/pkg/logger"
)

// @title Teachers Portal API
// @version 1.0.0
// @description Weekly lesson report trigger, preview and export
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey TriggerSecret
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Trigger.Secret == "" {
		logr.Warn("REPORT_TRIGGER_SECRET is empty, every report request will be rejected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer container.Close()

	router := handler.NewRouter(handler.RouterParams{
		Config:  cfg,
		Logger:  logr,
		Metrics: container.Metrics,
		Reports: handler.NewWeeklyReportHandler(container.Reports, logr.Named("http"), cfg.Trigger.ExposeErrorDetails),
		Ops: handler.NewMetricsHandler(container.Metrics, map[string]handler.Pinger{
			"database": container.DB,
			"redis":    handler.PingFunc(container.PingRedis),
		}),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("prefix", cfg.APIPrefix))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logr.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
