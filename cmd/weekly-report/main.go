package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/app"
	"github.com/noah-isme/teachers-portal-api/internal/dto"
	"github.com/noah-isme/teachers-portal-api/pkg/config"
	"github.com/noah-isme/teachers-portal-api/pkg/logger"
)

// weekly-report runs one build and send cycle and prints the run summary as JSON.
// It exits non-zero when the run fails; a date without a lesson is a success.
func main() {
	date := flag.String("date", "", "lesson date YYYY-MM-DD (default: today in REPORT_TIMEZONE)")
	dryRun := flag.Bool("dry-run", false, "build the report without sending email")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise dependencies", zap.Error(err))
	}

	result, err := container.Reports.Run(ctx, dto.GenerateWeeklyReportRequest{Date: *date, DryRun: *dryRun})
	container.Close()
	if err != nil {
		logr.Error("weekly report run failed", zap.Error(err))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logr.Error("encode result", zap.Error(err))
		os.Exit(1)
	}
}
