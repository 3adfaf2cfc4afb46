package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/models"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/jobs"
)

type lessonFinder interface {
	FindByDate(ctx context.Context, date string) (*models.Lesson, error)
}

type teacherLister interface {
	ListActiveTeachers(ctx context.Context) ([]models.TeacherProfile, error)
}

type submissionChecker interface {
	HasAttendance(ctx context.Context, teacherID, date string) (bool, error)
	HasEvaluation(ctx context.Context, teacherID, date string) (bool, error)
}

// Submission lookup kinds, used as log and metric labels.
const (
	lookupAttendance = "attendance"
	lookupEvaluation = "evaluation"
)

// ReportBuilderConfig tunes report building.
type ReportBuilderConfig struct {
	FanoutLimit int
}

// ReportBuilderParams groups constructor dependencies.
type ReportBuilderParams struct {
	Lessons     lessonFinder
	Teachers    teacherLister
	Submissions submissionChecker
	Metrics     *MetricsService
	Logger      *zap.Logger
	Config      ReportBuilderConfig
}

// ReportBuilder loads a lesson and its teacher roster and computes completion progress.
type ReportBuilder struct {
	lessons     lessonFinder
	teachers    teacherLister
	submissions submissionChecker
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
	cfg         ReportBuilderConfig
}

// NewReportBuilder constructs a ReportBuilder.
func NewReportBuilder(params ReportBuilderParams) *ReportBuilder {
	cfg := params.Config
	if cfg.FanoutLimit <= 0 {
		cfg.FanoutLimit = 8
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportBuilder{
		lessons:     params.Lessons,
		teachers:    params.Teachers,
		submissions: params.Submissions,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Build computes the weekly report for targetDate (YYYY-MM-DD). The boolean is false
// when no lesson was held on that date; that outcome is not an error.
func (b *ReportBuilder) Build(ctx context.Context, targetDate string) (*models.WeeklyReport, bool, error) {
	if _, err := time.Parse(models.DateLayout, targetDate); err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must use YYYY-MM-DD format")
	}
	start := b.now()
	defer func() { b.metrics.ObserveBuild(time.Since(start)) }()

	lesson, err := b.lessons.FindByDate(ctx, targetDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			b.logger.Info("no lesson scheduled", zap.String("date", targetDate))
			return nil, false, nil
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if !lesson.ChapterInRange() {
		b.logger.Warn("lesson chapter outside expected range", zap.String("lesson_id", lesson.ID), zap.Intp("chapter", lesson.Chapter))
	}

	teachers, err := b.teachers.ListActiveTeachers(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	junior, senior := b.classify(teachers)
	relevant := RelevantTeachers(lesson.GroupType, junior, senior)
	if !lesson.GroupType.Valid() {
		b.logger.Warn("unknown lesson group type, reporting no teachers", zap.String("group_type", string(lesson.GroupType)))
	}

	progress := b.collectProgress(ctx, relevant, targetDate)

	report := models.NewWeeklyReport(*lesson, progress, b.now().UTC())
	b.logger.Info("weekly report built",
		zap.String("date", targetDate),
		zap.String("group_type", string(lesson.GroupType)),
		zap.Int("teachers", report.Statistics.Total),
		zap.Int("completion_rate", report.Statistics.CompletionRate),
	)
	return report, true, nil
}

func (b *ReportBuilder) classify(teachers []models.TeacherProfile) (junior, senior []models.TeacherProfile) {
	junior, senior, skipped := ClassifyTeachers(teachers)
	if skipped > 0 {
		b.logger.Warn("teachers without a resolvable class were skipped", zap.Int("count", skipped))
	}
	return junior, senior
}

// collectProgress fans out the two existence checks of every teacher and joins them.
// A failed check counts as not submitted.
func (b *ReportBuilder) collectProgress(ctx context.Context, teachers []models.TeacherProfile, date string) []models.TeacherProgress {
	tasks := make([]jobs.Task[bool], 0, len(teachers)*2)
	for _, t := range teachers {
		teacherID := t.ID
		tasks = append(tasks,
			func(ctx context.Context) (bool, error) { return b.submissions.HasAttendance(ctx, teacherID, date) },
			func(ctx context.Context) (bool, error) { return b.submissions.HasEvaluation(ctx, teacherID, date) },
		)
	}
	results := jobs.Batch(ctx, b.cfg.FanoutLimit, tasks)
	if failed := jobs.Failed(results); len(failed) > 0 {
		b.logger.Warn("submission lookups failed", zap.Int("failed", len(failed)), zap.Int("total", len(results)))
	}

	progress := make([]models.TeacherProgress, 0, len(teachers))
	for i, t := range teachers {
		hasAttendance := b.lookupValue(results[2*i], t, lookupAttendance)
		hasEvaluation := b.lookupValue(results[2*i+1], t, lookupEvaluation)
		progress = append(progress, models.NewTeacherProgress(t, hasAttendance, hasEvaluation))
	}
	return progress
}

func (b *ReportBuilder) lookupValue(res jobs.Result[bool], teacher models.TeacherProfile, kind string) bool {
	if res.Err == nil {
		return res.Value
	}
	b.metrics.RecordLookupFailure(kind)
	b.logger.Warn("submission lookup failed, counting as not submitted",
		zap.String("kind", kind),
		zap.String("teacher_id", teacher.ID),
		zap.Error(res.Err),
	)
	return false
}

// ClassifyTeachers splits teachers into junior and senior cohorts by class year level.
// Teachers whose class relation is missing are counted as skipped.
func ClassifyTeachers(teachers []models.TeacherProfile) (junior, senior []models.TeacherProfile, skipped int) {
	for _, t := range teachers {
		switch t.Cohort() {
		case models.CohortJunior:
			junior = append(junior, t)
		case models.CohortSenior:
			senior = append(senior, t)
		default:
			skipped++
		}
	}
	return junior, senior, skipped
}

// RelevantTeachers selects the teachers a lesson scope reports on. Unknown scopes
// select nobody. A teacher is never listed twice.
func RelevantTeachers(scope models.CohortScope, junior, senior []models.TeacherProfile) []models.TeacherProfile {
	var candidates []models.TeacherProfile
	switch scope {
	case models.ScopeBoth:
		candidates = append(append(candidates, junior...), senior...)
	case models.ScopeJunior:
		candidates = append(candidates, junior...)
	case models.ScopeSenior:
		candidates = append(candidates, senior...)
	default:
		return []models.TeacherProfile{}
	}

	seen := make(map[string]struct{}, len(candidates))
	relevant := make([]models.TeacherProfile, 0, len(candidates))
	for _, t := range candidates {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		relevant = append(relevant, t)
	}
	return relevant
}
