package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/dto"
	"github.com/noah-isme/teachers-portal-api/internal/models"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/export"
)

type reportBuilder interface {
	Build(ctx context.Context, targetDate string) (*models.WeeklyReport, bool, error)
}

type reportDispatcher interface {
	Send(ctx context.Context, report *models.WeeklyReport) (*models.DispatchSummary, error)
}

type runLocker interface {
	Lock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, token string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// WeeklyReportConfig tunes the weekly run.
type WeeklyReportConfig struct {
	Location *time.Location
	LockTTL  time.Duration
	CacheTTL time.Duration
}

// WeeklyReportParams groups constructor dependencies.
type WeeklyReportParams struct {
	Builder    reportBuilder
	Dispatcher reportDispatcher
	Formatter  *ReportFormatter
	Cache      *CacheService
	Locker     runLocker
	CSV        csvRenderer
	PDF        pdfRenderer
	Validator  *validator.Validate
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     WeeklyReportConfig
}

// ExportFile is a rendered report export.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// WeeklyReportService runs the build→send cycle triggered by the scheduler and
// serves previews and exports of built reports.
type WeeklyReportService struct {
	builder    reportBuilder
	dispatcher reportDispatcher
	formatter  *ReportFormatter
	cache      *CacheService
	locker     runLocker
	csv        csvRenderer
	pdf        pdfRenderer
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        WeeklyReportConfig
}

// NewWeeklyReportService constructs the service.
func NewWeeklyReportService(params WeeklyReportParams) *WeeklyReportService {
	cfg := params.Config
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	formatter := params.Formatter
	if formatter == nil {
		formatter = MustReportFormatter()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &WeeklyReportService{
		builder:    params.Builder,
		dispatcher: params.Dispatcher,
		formatter:  formatter,
		cache:      params.Cache,
		locker:     params.Locker,
		csv:        csv,
		pdf:        pdf,
		validator:  validate,
		metrics:    params.Metrics,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Today returns the current date in the report timezone.
func (s *WeeklyReportService) Today() string {
	return s.now().In(s.cfg.Location).Format(models.DateLayout)
}

// Run builds the report for the requested date and, when a lesson exists, sends it.
// A missing lesson is reported through LessonFound=false without error.
func (s *WeeklyReportService) Run(ctx context.Context, req dto.GenerateWeeklyReportRequest) (*dto.WeeklyRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}
	date := req.Date
	if date == "" {
		date = s.Today()
	}
	runID := uuid.NewString()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("date", date))

	release, err := s.acquire(ctx, date, runID, logger)
	if err != nil {
		s.metrics.RecordRun(RunOutcomeLocked)
		return nil, err
	}
	defer release()

	resp := &dto.WeeklyRunResponse{RunID: runID, Date: date, DryRun: req.DryRun}

	report, found, err := s.builder.Build(ctx, date)
	if err != nil {
		s.metrics.RecordRun(RunOutcomeFailed)
		logger.Error("weekly report build failed", zap.Error(err))
		return nil, err
	}
	if !found {
		s.metrics.RecordRun(RunOutcomeNoLesson)
		logger.Info("no lesson today, nothing to send")
		return resp, nil
	}

	resp.LessonFound = true
	resp.GroupType = report.Lesson.GroupType
	resp.Statistics = &report.Statistics
	resp.JuniorCount = len(report.JuniorProgress)
	resp.SeniorCount = len(report.SeniorProgress)
	s.cache.Set(ctx, WeeklyReportKey(date), report, s.cfg.CacheTTL)

	if req.DryRun {
		s.metrics.RecordRun(RunOutcomeDryRun)
		return resp, nil
	}

	summary, err := s.dispatcher.Send(ctx, report)
	if err != nil {
		s.metrics.RecordRun(RunOutcomeFailed)
		logger.Error("weekly report dispatch failed", zap.Error(err))
		return nil, err
	}
	resp.Dispatch = summary
	s.metrics.RecordRun(RunOutcomeSent)
	logger.Info("weekly report run finished", zap.Int("sent", summary.SuccessCount), zap.Int("failed", summary.FailCount))
	return resp, nil
}

// Send dispatches a report supplied by the caller. Completion, statistics and the
// cohort partitions are recomputed from the submission flags before sending.
func (s *WeeklyReportService) Send(ctx context.Context, req dto.SendWeeklyReportRequest) (*models.DispatchSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lessonDate (YYYY-MM-DD) and reportData are required")
	}
	if got := req.ReportData.Lesson.DateString(); got != req.LessonDate {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("lessonDate %s does not match report lesson date %s", req.LessonDate, got))
	}
	report := req.ReportData.Normalized()
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = s.now().UTC()
	}
	// previews and exports rebuild from the store instead of serving a stale build
	s.cache.Invalidate(ctx, WeeklyReportKey(req.LessonDate))
	return s.dispatcher.Send(ctx, report)
}

// Preview renders the report of a lesson date, reusing a cached build when present.
func (s *WeeklyReportService) Preview(ctx context.Context, date string) (*RenderedReport, error) {
	report, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}
	rendered, err := s.formatter.Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return rendered, nil
}

// Export renders the teacher progress table of a lesson date as CSV or PDF.
func (s *WeeklyReportService) Export(ctx context.Context, date, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	report, err := s.load(ctx, date)
	if err != nil {
		return nil, err
	}

	data := s.formatter.Dataset(report)
	var content []byte
	switch format {
	case export.FormatPDF:
		content, err = s.pdf.Render(data, ExportTitle(report))
	default:
		content, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("weekly-report-%s.%s", date, format),
		ContentType: format.ContentType(),
		Content:     content,
	}, nil
}

func (s *WeeklyReportService) load(ctx context.Context, date string) (*models.WeeklyReport, error) {
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}
	var cached models.WeeklyReport
	if s.cache.Get(ctx, WeeklyReportKey(date), &cached) {
		return &cached, nil
	}
	report, found, err := s.builder.Build(ctx, date)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no lesson on "+date)
	}
	s.cache.Set(ctx, WeeklyReportKey(date), report, s.cfg.CacheTTL)
	return report, nil
}

// acquire takes the per-date run lock owned by runID. Lock backend failures are
// logged and the run proceeds unlocked.
func (s *WeeklyReportService) acquire(ctx context.Context, date, runID string, logger *zap.Logger) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	key := "report:weekly:run:" + date
	ok, err := s.locker.Lock(ctx, key, runID, s.cfg.LockTTL)
	if err != nil {
		logger.Warn("run lock unavailable, continuing without it", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, appErrors.ErrRunInProgress
	}
	return func() {
		// the request context may already be cancelled
		if err := s.locker.Unlock(context.Background(), key, runID); err != nil {
			logger.Warn("run lock release failed", zap.Error(err))
		}
	}, nil
}
