package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/teachers-portal-api/internal/models"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
)

type lessonFinderStub struct {
	lesson *models.Lesson
	err    error
	calls  int
}

func (s *lessonFinderStub) FindByDate(ctx context.Context, date string) (*models.Lesson, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.lesson == nil {
		return nil, sql.ErrNoRows
	}
	return s.lesson, nil
}

type teacherListerStub struct {
	teachers []models.TeacherProfile
	err      error
}

func (s *teacherListerStub) ListActiveTeachers(ctx context.Context) ([]models.TeacherProfile, error) {
	return s.teachers, s.err
}

type submissionStub struct {
	mu            sync.Mutex
	attendance    map[string]bool
	evaluation    map[string]bool
	attendanceErr map[string]error
	evaluationErr map[string]error
	calls         int
}

func (s *submissionStub) HasAttendance(ctx context.Context, teacherID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.attendanceErr[teacherID]; err != nil {
		return false, err
	}
	return s.attendance[teacherID], nil
}

func (s *submissionStub) HasEvaluation(ctx context.Context, teacherID, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.evaluationErr[teacherID]; err != nil {
		return false, err
	}
	return s.evaluation[teacherID], nil
}

func teacher(id string, yearLevel int) models.TeacherProfile {
	classID := "class-" + id
	className := "Class " + id
	level := yearLevel
	return models.TeacherProfile{
		ID:              id,
		FullName:        "Teacher " + id,
		Email:           id + "@portal.test",
		Role:            models.RoleTeacher,
		Status:          models.StatusActive,
		AssignedClassID: &classID,
		ClassName:       &className,
		YearLevel:       &level,
	}
}

func lessonOn(date string, scope models.CohortScope) *models.Lesson {
	d, _ := time.Parse(models.DateLayout, date)
	return &models.Lesson{ID: "lesson-" + date, Date: models.NewDate(d), GroupType: scope}
}

func newBuilderForTest(lessons *lessonFinderStub, teachers *teacherListerStub, subs *submissionStub) *ReportBuilder {
	return NewReportBuilder(ReportBuilderParams{
		Lessons:     lessons,
		Teachers:    teachers,
		Submissions: subs,
		Metrics:     NewMetricsService(),
		Logger:      zap.NewNop(),
		Config:      ReportBuilderConfig{FanoutLimit: 3},
	})
}

// scenarioA has three junior and two senior teachers; j3 only took attendance.
func scenarioA() ([]models.TeacherProfile, *submissionStub) {
	teachers := []models.TeacherProfile{
		teacher("j1", 1), teacher("j2", 3), teacher("j3", 5),
		teacher("s1", 6), teacher("s2", 9),
	}
	subs := &submissionStub{
		attendance: map[string]bool{"j1": true, "j2": true, "j3": true, "s1": true, "s2": true},
		evaluation: map[string]bool{"j1": true, "j2": true, "s1": true, "s2": true},
	}
	return teachers, subs
}

func TestReportBuilderBuildBothScope(t *testing.T) {
	teachers, subs := scenarioA()
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeBoth)}, &teacherListerStub{teachers: teachers}, subs)

	report, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, models.ReportStatistics{
		Total:               5,
		CompletedBoth:       4,
		CompletedAttendance: 5,
		CompletedEvaluation: 4,
		CompletedNeither:    0,
		AttendanceRate:      100,
		EvaluationRate:      80,
		CompletionRate:      80,
	}, report.Statistics)
	assert.Len(t, report.JuniorProgress, 3)
	assert.Len(t, report.SeniorProgress, 2)
	assert.Equal(t, 10, subs.calls)

	byID := map[string]models.TeacherProgress{}
	for _, p := range report.TeacherProgress {
		byID[p.Teacher.ID] = p
	}
	assert.True(t, byID["j3"].HasAttendance)
	assert.False(t, byID["j3"].IsComplete)
	assert.Equal(t, models.CohortJunior, byID["j3"].Cohort)
	assert.Equal(t, models.CohortSenior, byID["s1"].Cohort)
}

func TestReportBuilderBuildNoLesson(t *testing.T) {
	subs := &submissionStub{}
	builder := newBuilderForTest(&lessonFinderStub{}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("j1", 2)}}, subs)

	report, found, err := builder.Build(context.Background(), "2024-03-11")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, report)
	assert.Zero(t, subs.calls)
}

func TestReportBuilderBuildJuniorScopeWithoutJuniors(t *testing.T) {
	subs := &submissionStub{attendance: map[string]bool{"s1": true}}
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeJunior)}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("s1", 7)}}, subs)

	report, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, models.ReportStatistics{}, report.Statistics)
	assert.Empty(t, report.TeacherProgress)
	assert.Empty(t, report.JuniorProgress)
	assert.Empty(t, report.SeniorProgress)
	assert.Zero(t, subs.calls)
}

func TestReportBuilderBuildLookupFailureCountsAsNotSubmitted(t *testing.T) {
	subs := &submissionStub{
		attendance:    map[string]bool{"j1": true, "j2": true},
		evaluation:    map[string]bool{"j1": true, "j2": true},
		evaluationErr: map[string]error{"j2": errors.New("connection reset")},
	}
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeJunior)}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("j1", 1), teacher("j2", 2)}}, subs)

	report, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, report.Statistics.Total)
	assert.Equal(t, 1, report.Statistics.CompletedBoth)
	assert.Equal(t, 2, report.Statistics.CompletedAttendance)
	assert.Equal(t, 1, report.Statistics.CompletedEvaluation)
	assert.Equal(t, 50, report.Statistics.CompletionRate)
}

func TestReportBuilderBuildLogsFailedLookupCount(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	subs := &submissionStub{
		attendanceErr: map[string]error{"j1": errors.New("timeout")},
		evaluationErr: map[string]error{"j1": errors.New("timeout")},
	}
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeJunior)}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("j1", 1), teacher("j2", 2)}}, subs)
	builder.logger = zap.New(core)

	_, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)

	entries := logs.FilterMessage("submission lookups failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 2, fields["failed"])
	assert.EqualValues(t, 4, fields["total"])
}

func TestReportBuilderBuildSkipsUnclassifiedTeachers(t *testing.T) {
	orphan := models.TeacherProfile{ID: "x1", FullName: "No Class", Role: models.RoleTeacher, Status: models.StatusActive}
	subs := &submissionStub{}
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeBoth)}, &teacherListerStub{teachers: []models.TeacherProfile{orphan, teacher("j1", 4)}}, subs)

	report, _, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.Len(t, report.TeacherProgress, 1)
	assert.Equal(t, "j1", report.TeacherProgress[0].Teacher.ID)
}

func TestReportBuilderBuildUnknownScope(t *testing.T) {
	subs := &submissionStub{}
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.CohortScope("Mixed"))}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("j1", 1)}}, subs)

	report, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.Zero(t, report.Statistics.Total)
	assert.Zero(t, subs.calls)
}

func TestReportBuilderBuildErrors(t *testing.T) {
	t.Run("invalid date", func(t *testing.T) {
		builder := newBuilderForTest(&lessonFinderStub{}, &teacherListerStub{}, &submissionStub{})
		_, _, err := builder.Build(context.Background(), "10/03/2024")
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrValidation))
	})

	t.Run("lesson store failure", func(t *testing.T) {
		builder := newBuilderForTest(&lessonFinderStub{err: errors.New("timeout")}, &teacherListerStub{}, &submissionStub{})
		_, found, err := builder.Build(context.Background(), "2024-03-10")
		require.Error(t, err)
		assert.False(t, found)
		assert.True(t, errors.Is(err, appErrors.ErrInternal))
	})

	t.Run("teacher store failure", func(t *testing.T) {
		builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeBoth)}, &teacherListerStub{err: errors.New("timeout")}, &submissionStub{})
		_, _, err := builder.Build(context.Background(), "2024-03-10")
		require.Error(t, err)
	})
}

func TestRelevantTeachersDeduplicates(t *testing.T) {
	j1 := teacher("j1", 1)
	s1 := teacher("s1", 8)

	both := RelevantTeachers(models.ScopeBoth, []models.TeacherProfile{j1, j1}, []models.TeacherProfile{s1, j1})
	require.Len(t, both, 2)
	assert.Equal(t, "j1", both[0].ID)
	assert.Equal(t, "s1", both[1].ID)

	assert.Len(t, RelevantTeachers(models.ScopeJunior, []models.TeacherProfile{j1}, []models.TeacherProfile{s1}), 1)
	assert.Len(t, RelevantTeachers(models.ScopeSenior, []models.TeacherProfile{j1}, []models.TeacherProfile{s1}), 1)
	assert.NotNil(t, RelevantTeachers("", []models.TeacherProfile{j1}, nil))
	assert.Empty(t, RelevantTeachers("", []models.TeacherProfile{j1}, nil))
}

func TestClassifyTeachers(t *testing.T) {
	orphan := models.TeacherProfile{ID: "x"}
	junior, senior, skipped := ClassifyTeachers([]models.TeacherProfile{teacher("a", 5), teacher("b", 6), orphan})
	require.Len(t, junior, 1)
	require.Len(t, senior, 1)
	assert.Equal(t, "a", junior[0].ID)
	assert.Equal(t, "b", senior[0].ID)
	assert.Equal(t, 1, skipped)
}
