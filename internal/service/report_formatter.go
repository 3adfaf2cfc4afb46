package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/teachers-portal-api/internal/models"
	"github.com/noah-isme/teachers-portal-api/pkg/export"
)

//go:embed templates/weekly_report.html
var reportTemplates embed.FS

// Status labels, in precedence order.
const (
	StatusComplete       = "Complete"
	StatusAttendanceOnly = "Attendance only"
	StatusEvaluationOnly = "Evaluation only"
	StatusNotSubmitted   = "Not submitted"
)

const (
	longDateLayout    = "Monday, January 2, 2006"
	subjectDateLayout = "Jan 2, 2006"
	subjectPrefix     = "Weekly Lesson Report - "
)

// StatusFor labels a teacher's progress.
func StatusFor(p models.TeacherProgress) string {
	switch {
	case p.IsComplete:
		return StatusComplete
	case p.HasAttendance:
		return StatusAttendanceOnly
	case p.HasEvaluation:
		return StatusEvaluationOnly
	default:
		return StatusNotSubmitted
	}
}

// CohortSummary renders "<name> (<class>): <status>" lines for a cohort.
func CohortSummary(progress []models.TeacherProgress) string {
	lines := make([]string, 0, len(progress))
	for _, p := range progress {
		lines = append(lines, fmt.Sprintf("%s (%s): %s", p.Teacher.FullName, p.Teacher.ClassLabel(), StatusFor(p)))
	}
	return strings.Join(lines, "\n")
}

// RenderedReport is the recipient independent rendering of a weekly report.
type RenderedReport struct {
	LessonDate    string
	Subject       string
	LongDate      string
	Scope         string
	JuniorSummary string
	SeniorSummary string
	HTML          string
	Statistics    models.ReportStatistics
}

// TemplateData returns a fresh parameter map for one recipient.
func (r RenderedReport) TemplateData(recipient models.AdminRecipient) map[string]interface{} {
	junior := r.JuniorSummary
	if junior == "" {
		junior = "No junior teachers for this lesson."
	}
	senior := r.SeniorSummary
	if senior == "" {
		senior = "No senior teachers for this lesson."
	}
	return map[string]interface{}{
		"to_email":        recipient.Email,
		"to_name":         recipient.FullName,
		"subject":         r.Subject,
		"report_date":     r.LongDate,
		"group_type":      r.Scope,
		"total_teachers":  r.Statistics.Total,
		"completed_both":  r.Statistics.CompletedBoth,
		"completion_rate": r.Statistics.CompletionRate,
		"attendance_rate": r.Statistics.AttendanceRate,
		"evaluation_rate": r.Statistics.EvaluationRate,
		"junior_summary":  junior,
		"senior_summary":  senior,
		"html_content":    r.HTML,
	}
}

type cohortRow struct {
	Name          string
	Class         string
	Status        string
	StateClass    string
	HasAttendance bool
	HasEvaluation bool
	Background    string
	Color         string
}

type cohortSection struct {
	Title string
	Rows  []cohortRow
}

type reportView struct {
	LongDate       string
	Scope          string
	Stats          models.ReportStatistics
	AttendanceOnly int
	EvaluationOnly int
	Junior         cohortSection
	Senior         cohortSection
}

// ReportFormatter renders weekly reports. It performs no I/O after construction.
type ReportFormatter struct {
	tmpl *template.Template
}

// NewReportFormatter parses the embedded report template.
func NewReportFormatter() (*ReportFormatter, error) {
	tmpl, err := template.ParseFS(reportTemplates, "templates/weekly_report.html")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &ReportFormatter{tmpl: tmpl}, nil
}

// MustReportFormatter is NewReportFormatter for wiring code paths where the
// embedded template is known to be valid.
func MustReportFormatter() *ReportFormatter {
	f, err := NewReportFormatter()
	if err != nil {
		panic(err)
	}
	return f
}

// Render produces the subject, summaries and HTML body of a report.
func (f *ReportFormatter) Render(report *models.WeeklyReport) (*RenderedReport, error) {
	if report == nil {
		return nil, fmt.Errorf("report is required")
	}
	lessonDate := report.Lesson.Date
	view := reportView{
		LongDate:       lessonDate.Format(longDateLayout),
		Scope:          string(report.Lesson.GroupType),
		Stats:          report.Statistics,
		AttendanceOnly: report.Statistics.AttendanceOnly(),
		EvaluationOnly: report.Statistics.EvaluationOnly(),
		Junior:         cohortSection{Title: "Junior", Rows: rows(report.JuniorProgress)},
		Senior:         cohortSection{Title: "Senior", Rows: rows(report.SeniorProgress)},
	}

	var buf bytes.Buffer
	if err := f.tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}

	return &RenderedReport{
		LessonDate:    report.Lesson.DateString(),
		Subject:       Subject(lessonDate.Time),
		LongDate:      view.LongDate,
		Scope:         view.Scope,
		JuniorSummary: CohortSummary(report.JuniorProgress),
		SeniorSummary: CohortSummary(report.SeniorProgress),
		HTML:          buf.String(),
		Statistics:    report.Statistics,
	}, nil
}

// Subject builds the email subject for a lesson date.
func Subject(date time.Time) string {
	return subjectPrefix + date.Format(subjectDateLayout)
}

// Dataset flattens teacher progress for CSV/PDF export.
func (f *ReportFormatter) Dataset(report *models.WeeklyReport) export.Dataset {
	headers := []string{"Teacher", "Class", "Cohort", "Attendance", "Evaluation", "Status"}
	data := export.Dataset{Headers: headers, Rows: make([]map[string]string, 0, len(report.TeacherProgress))}
	for _, p := range report.TeacherProgress {
		data.Rows = append(data.Rows, map[string]string{
			"Teacher":    p.Teacher.FullName,
			"Class":      p.Teacher.ClassLabel(),
			"Cohort":     string(p.Cohort),
			"Attendance": yesNo(p.HasAttendance),
			"Evaluation": yesNo(p.HasEvaluation),
			"Status":     StatusFor(p),
		})
	}
	return data
}

// ExportTitle is the title printed on PDF exports.
func ExportTitle(report *models.WeeklyReport) string {
	return "Weekly Lesson Report " + report.Lesson.DateString() + " (" + strconv.Itoa(report.Statistics.CompletionRate) + "% complete)"
}

func rows(progress []models.TeacherProgress) []cohortRow {
	out := make([]cohortRow, 0, len(progress))
	for _, p := range progress {
		row := cohortRow{
			Name:          p.Teacher.FullName,
			Class:         p.Teacher.ClassLabel(),
			Status:        StatusFor(p),
			HasAttendance: p.HasAttendance,
			HasEvaluation: p.HasEvaluation,
		}
		switch row.Status {
		case StatusComplete:
			row.StateClass, row.Background, row.Color = "complete", "#ecfdf5", "#047857"
		case StatusAttendanceOnly, StatusEvaluationOnly:
			row.StateClass, row.Background, row.Color = "partial", "#fffbeb", "#b45309"
		default:
			row.StateClass, row.Background, row.Color = "missing", "#fef2f2", "#b91c1c"
		}
		out = append(out, row)
	}
	return out
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
