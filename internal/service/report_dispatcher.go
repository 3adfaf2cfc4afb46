package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/models"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/export"
	"github.com/noah-isme/teachers-portal-api/pkg/jobs"
	"github.com/noah-isme/teachers-portal-api/pkg/mail"
)

type adminLister interface {
	ListActiveAdmins(ctx context.Context) ([]models.AdminRecipient, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportDispatcherConfig tunes delivery.
type ReportDispatcherConfig struct {
	FanoutLimit int
	AttachPDF   bool
}

// ReportDispatcherParams groups constructor dependencies.
type ReportDispatcherParams struct {
	Admins    adminLister
	Mailer    mail.Sender
	Formatter *ReportFormatter
	PDF       pdfRenderer
	Metrics   *MetricsService
	Logger    *zap.Logger
	Config    ReportDispatcherConfig
}

// ReportDispatcher emails a built report to every active admin.
type ReportDispatcher struct {
	admins    adminLister
	mailer    mail.Sender
	formatter *ReportFormatter
	pdf       pdfRenderer
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReportDispatcherConfig
}

// NewReportDispatcher constructs a ReportDispatcher.
func NewReportDispatcher(params ReportDispatcherParams) *ReportDispatcher {
	cfg := params.Config
	if cfg.FanoutLimit <= 0 {
		cfg.FanoutLimit = 8
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	formatter := params.Formatter
	if formatter == nil {
		formatter = MustReportFormatter()
	}
	pdf := params.PDF
	if pdf == nil && cfg.AttachPDF {
		pdf = export.NewPDFExporter()
	}
	return &ReportDispatcher{
		admins:    params.Admins,
		mailer:    params.Mailer,
		formatter: formatter,
		pdf:       pdf,
		metrics:   params.Metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Send renders the report once and delivers it to each admin concurrently.
// It fails when the mailer is not configured, when there are no recipients, or
// when every delivery failed. Partial failures are listed on the summary.
func (d *ReportDispatcher) Send(ctx context.Context, report *models.WeeklyReport) (*models.DispatchSummary, error) {
	if d.mailer == nil || !d.mailer.Configured() {
		return nil, appErrors.ErrMailNotConfigured
	}
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report data is required")
	}

	recipients, err := d.admins.ListActiveAdmins(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admin recipients")
	}
	if len(recipients) == 0 {
		return nil, appErrors.ErrNoRecipients
	}

	rendered, err := d.formatter.Render(report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	attachments := d.attachments(report)

	tasks := make([]jobs.Task[struct{}], len(recipients))
	for i, recipient := range recipients {
		recipient := recipient
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			msg := mail.Message{
				ToEmail:      recipient.Email,
				ToName:       recipient.FullName,
				Subject:      rendered.Subject,
				TemplateData: rendered.TemplateData(recipient),
				Attachments:  attachments,
			}
			return struct{}{}, d.mailer.Send(ctx, msg)
		}
	}
	results := jobs.Batch(ctx, d.cfg.FanoutLimit, tasks)

	outcomes := make([]models.RecipientOutcome, len(recipients))
	for i, res := range results {
		outcome := models.RecipientOutcome{Email: recipients[i].Email, Name: recipients[i].FullName, Success: res.Err == nil}
		if res.Err != nil {
			outcome.Error = res.Err.Error()
			d.logger.Warn("report email failed", zap.String("to", recipients[i].Email), zap.Error(res.Err))
		}
		d.metrics.RecordEmail(outcome.Success)
		outcomes[i] = outcome
	}

	summary := models.Summarize(rendered.LessonDate, outcomes)
	d.logger.Info("weekly report dispatched",
		zap.String("date", summary.LessonDate),
		zap.Int("recipients", summary.Total),
		zap.Int("sent", summary.SuccessCount),
		zap.Int("failed", summary.FailCount),
	)
	if !summary.Delivered() {
		return &summary, appErrors.WithDetails(appErrors.ErrAllSendsFailed, summary.Failures)
	}
	return &summary, nil
}

func (d *ReportDispatcher) attachments(report *models.WeeklyReport) []mail.Attachment {
	if !d.cfg.AttachPDF || d.pdf == nil || len(report.TeacherProgress) == 0 {
		return nil
	}
	content, err := d.pdf.Render(d.formatter.Dataset(report), ExportTitle(report))
	if err != nil {
		d.logger.Warn("pdf attachment skipped", zap.Error(err))
		return nil
	}
	return []mail.Attachment{{
		Filename:    fmt.Sprintf("weekly-report-%s.pdf", report.Lesson.DateString()),
		ContentType: "application/pdf",
		Content:     content,
	}}
}
