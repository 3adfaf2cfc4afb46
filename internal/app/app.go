// Package app wires the store, cache, mailer and report services shared by the
// HTTP gateway and the one-shot CLI.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/repository"
	"github.com/noah-isme/teachers-portal-api/internal/service"
	"github.com/noah-isme/teachers-portal-api/pkg/cache"
	"github.com/noah-isme/teachers-portal-api/pkg/config"
	"github.com/noah-isme/teachers-portal-api/pkg/database"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/mail"
)

// Container holds the long lived dependencies of one process.
type Container struct {
	Config  *config.Config
	DB      *sqlx.DB
	Redis   redis.UniversalClient
	Metrics *service.MetricsService
	Mailer  mail.Sender
	Reports *service.WeeklyReportService

	cacheRepo *repository.CacheRepository
	logger    *zap.Logger
}

// New validates the store configuration, connects to Postgres and (optionally)
// Redis, and builds the weekly report services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, err.Error())
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, report cache and run lock disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logger)
	var cacheBackend service.CacheRepository
	if redisClient != nil {
		cacheBackend = cacheRepo
	}
	cacheSvc := service.NewCacheService(cacheBackend, metrics, cfg.Reports.CacheTTL, logger)

	lessons := repository.NewLessonRepository(db)
	profiles := repository.NewProfileRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	mailer := mail.New(cfg.Mail, logger)
	if !mailer.Configured() {
		logger.Warn("mail credentials missing, report dispatch will fail", zap.String("driver", cfg.Mail.Driver))
	}

	formatter, err := service.NewReportFormatter()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	builder := service.NewReportBuilder(service.ReportBuilderParams{
		Lessons:     lessons,
		Teachers:    profiles,
		Submissions: submissions,
		Metrics:     metrics,
		Logger:      logger.Named("report_builder"),
		Config:      service.ReportBuilderConfig{FanoutLimit: cfg.Reports.FanoutLimit},
	})
	dispatcher := service.NewReportDispatcher(service.ReportDispatcherParams{
		Admins:    profiles,
		Mailer:    mailer,
		Formatter: formatter,
		Metrics:   metrics,
		Logger:    logger.Named("report_dispatcher"),
		Config: service.ReportDispatcherConfig{
			FanoutLimit: cfg.Reports.FanoutLimit,
			AttachPDF:   cfg.Reports.AttachPDF,
		},
	})
	reports := service.NewWeeklyReportService(service.WeeklyReportParams{
		Builder:    builder,
		Dispatcher: dispatcher,
		Formatter:  formatter,
		Cache:      cacheSvc,
		Locker:     cacheRepo,
		Validator:  validator.New(),
		Metrics:    metrics,
		Logger:     logger.Named("weekly_report"),
		Config: service.WeeklyReportConfig{
			Location: cfg.Reports.Location(),
			LockTTL:  cfg.Reports.LockTTL,
			CacheTTL: cfg.Reports.CacheTTL,
		},
	})

	return &Container{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Metrics:   metrics,
		Mailer:    mailer,
		Reports:   reports,
		cacheRepo: cacheRepo,
		logger:    logger,
	}, nil
}

// PingRedis reports Redis health; a disabled cache is healthy.
func (c *Container) PingRedis(ctx context.Context) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Ping(ctx).Err()
}

// Close releases the database and Redis connections.
func (c *Container) Close() {
	if err := c.cacheRepo.Close(); err != nil {
		c.logger.Warn("close redis", zap.Error(err))
	}
	if err := c.DB.Close(); err != nil {
		c.logger.Warn("close database", zap.Error(err))
	}
}
