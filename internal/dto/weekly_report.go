package dto

import "github.com/noah-isme/teachers-portal-api/internal/models"

// GenerateWeeklyReportRequest captures POST /reports/weekly/generate payload.
// An empty date means today in the report timezone.
type GenerateWeeklyReportRequest struct {
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	DryRun bool   `json:"dryRun"`
}

// SendWeeklyReportRequest captures POST /reports/weekly/send payload.
type SendWeeklyReportRequest struct {
	LessonDate string               `json:"lessonDate" validate:"required,datetime=2006-01-02"`
	ReportData *models.WeeklyReport `json:"reportData" validate:"required"`
}

// WeeklyRunResponse summarises one build→send cycle.
type WeeklyRunResponse struct {
	RunID       string                   `json:"runId"`
	Date        string                   `json:"date"`
	LessonFound bool                     `json:"lessonFound"`
	DryRun      bool                     `json:"dryRun,omitempty"`
	GroupType   models.CohortScope       `json:"groupType,omitempty"`
	Statistics  *models.ReportStatistics `json:"statistics,omitempty"`
	JuniorCount int                      `json:"juniorCount"`
	SeniorCount int                      `json:"seniorCount"`
	Dispatch    *models.DispatchSummary  `json:"dispatch,omitempty"`
}
