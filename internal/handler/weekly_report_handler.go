package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/dto"
	"github.com/noah-isme/teachers-portal-api/internal/models"
	"github.com/noah-isme/teachers-portal-api/internal/service"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/logger"
	"github.com/noah-isme/teachers-portal-api/pkg/response"
)

type weeklyReportService interface {
	Run(ctx context.Context, req dto.GenerateWeeklyReportRequest) (*dto.WeeklyRunResponse, error)
	Send(ctx context.Context, req dto.SendWeeklyReportRequest) (*models.DispatchSummary, error)
	Preview(ctx context.Context, date string) (*service.RenderedReport, error)
	Export(ctx context.Context, date, format string) (*service.ExportFile, error)
}

// WeeklyReportHandler exposes the weekly report trigger, preview and export endpoints.
type WeeklyReportHandler struct {
	reports weeklyReportService
	logger  *zap.Logger
	debug   bool
}

// NewWeeklyReportHandler constructs the handler. debug exposes wrapped error causes
// in responses and must stay off in production.
func NewWeeklyReportHandler(reports weeklyReportService, logger *zap.Logger, debug bool) *WeeklyReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeeklyReportHandler{reports: reports, logger: logger, debug: debug}
}

// Generate godoc
// @Summary Build and send the weekly report
// @Description Builds the report for the given date (default today) and emails it to every active admin. Responds 200 with lessonFound=false when no lesson was held.
// @Tags Reports
// @Accept json
// @Produce json
// @Security TriggerSecret
// @Param payload body dto.GenerateWeeklyReportRequest false "Run options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /reports/weekly/generate [post]
func (h *WeeklyReportHandler) Generate(c *gin.Context) {
	var req dto.GenerateWeeklyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	result, err := h.reports.Run(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch {
	case !result.LessonFound:
		response.Message(c, http.StatusOK, "No lesson today", result)
	case result.DryRun:
		response.Message(c, http.StatusOK, "Weekly report built (dry run)", result)
	default:
		response.Message(c, http.StatusOK, sentMessage(result.Dispatch), result)
	}
}

// Send godoc
// @Summary Send a supplied weekly report
// @Tags Reports
// @Accept json
// @Produce json
// @Security TriggerSecret
// @Param payload body dto.SendWeeklyReportRequest true "Report to send"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /reports/weekly/send [post]
func (h *WeeklyReportHandler) Send(c *gin.Context) {
	var req dto.SendWeeklyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, appErrors.Clone(appErrors.ErrValidation, "lessonDate and reportData are required"))
		return
	}

	summary, err := h.reports.Send(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Message(c, http.StatusOK, sentMessage(summary), summary)
}

// Preview godoc
// @Summary Preview the weekly report email body
// @Tags Reports
// @Produce html
// @Security TriggerSecret
// @Param date path string true "Lesson date (YYYY-MM-DD)"
// @Success 200 {string} string "HTML"
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/weekly/{date}/preview [get]
func (h *WeeklyReportHandler) Preview(c *gin.Context) {
	rendered, err := h.reports.Preview(c.Request.Context(), c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(rendered.HTML))
}

// Export godoc
// @Summary Export teacher progress for a lesson date
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security TriggerSecret
// @Param date path string true "Lesson date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/weekly/{date}/export [get]
func (h *WeeklyReportHandler) Export(c *gin.Context) {
	file, err := h.reports.Export(c.Request.Context(), c.Param("date"), c.Query("format"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}

// MethodNotAllowed answers requests using a verb the route does not accept.
func MethodNotAllowed(c *gin.Context) {
	response.Error(c, appErrors.ErrMethodNotAllowed)
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
}

func (h *WeeklyReportHandler) fail(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		logger.WithRequest(h.logger, c).Error("weekly report request failed",
			zap.String("route", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	response.ErrorWithDebug(c, appErr, h.debug)
}

func sentMessage(summary *models.DispatchSummary) string {
	if summary == nil {
		return "Weekly report sent"
	}
	return fmt.Sprintf("Weekly report sent to %d of %d admins", summary.SuccessCount, summary.Total)
}
