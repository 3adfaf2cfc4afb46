package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/internal/models"
	appErrors "github.com/noah-isme/teachers-portal-api/pkg/errors"
	"github.com/noah-isme/teachers-portal-api/pkg/export"
	"github.com/noah-isme/teachers-portal-api/pkg/mail"
)

type adminListerStub struct {
	admins []models.AdminRecipient
	err    error
}

func (s adminListerStub) ListActiveAdmins(ctx context.Context) ([]models.AdminRecipient, error) {
	return s.admins, s.err
}

type mailerStub struct {
	mu         sync.Mutex
	configured bool
	failFor    map[string]error
	sent       []mail.Message
	attempts   int
}

func (m *mailerStub) Configured() bool { return m.configured }

func (m *mailerStub) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if err := m.failFor[msg.ToEmail]; err != nil {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type pdfStub struct {
	calls int
	err   error
}

func (p *pdfStub) Render(data export.Dataset, title string) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return []byte("%PDF-1.3"), nil
}

func admins(emails ...string) []models.AdminRecipient {
	out := make([]models.AdminRecipient, 0, len(emails))
	for i, e := range emails {
		out = append(out, models.AdminRecipient{ID: string(rune('a' + i)), Email: e, FullName: "Admin " + e})
	}
	return out
}

func builtReport(t *testing.T) *models.WeeklyReport {
	t.Helper()
	teachers, subs := scenarioA()
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-10", models.ScopeBoth)}, &teacherListerStub{teachers: teachers}, subs)
	report, found, err := builder.Build(context.Background(), "2024-03-10")
	require.NoError(t, err)
	require.True(t, found)
	return report
}

func newDispatcherForTest(lister adminListerStub, mailer *mailerStub, cfg ReportDispatcherConfig, pdf pdfRenderer) *ReportDispatcher {
	return NewReportDispatcher(ReportDispatcherParams{
		Admins:  lister,
		Mailer:  mailer,
		PDF:     pdf,
		Metrics: NewMetricsService(),
		Logger:  zap.NewNop(),
		Config:  cfg,
	})
}

func TestReportDispatcherSendAllAdmins(t *testing.T) {
	mailer := &mailerStub{configured: true}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test", "b@portal.test")}, mailer, ReportDispatcherConfig{}, nil)

	summary, err := dispatcher.Send(context.Background(), builtReport(t))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Zero(t, summary.FailCount)
	assert.Equal(t, "2024-03-10", summary.LessonDate)
	require.Len(t, mailer.sent, 2)

	for _, msg := range mailer.sent {
		assert.Equal(t, "Weekly Lesson Report - Mar 10, 2024", msg.Subject)
		assert.Equal(t, msg.ToEmail, msg.TemplateData["to_email"])
		assert.Equal(t, 80, msg.TemplateData["completion_rate"])
		assert.Equal(t, "Sunday, March 10, 2024", msg.TemplateData["report_date"])
		assert.Empty(t, msg.Attachments)
	}
}

func TestReportDispatcherSendPartialFailure(t *testing.T) {
	mailer := &mailerStub{configured: true, failFor: map[string]error{"b@portal.test": errors.New("mailbox unavailable")}}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test", "b@portal.test", "c@portal.test")}, mailer, ReportDispatcherConfig{}, nil)

	summary, err := dispatcher.Send(context.Background(), builtReport(t))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailCount)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "b@portal.test", summary.Failures[0].Email)
	assert.Equal(t, "mailbox unavailable", summary.Failures[0].Error)
	assert.Equal(t, 3, mailer.attempts)
}

func TestReportDispatcherSendAllFail(t *testing.T) {
	boom := errors.New("provider down")
	mailer := &mailerStub{configured: true, failFor: map[string]error{"a@portal.test": boom, "b@portal.test": boom}}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test", "b@portal.test")}, mailer, ReportDispatcherConfig{}, nil)

	summary, err := dispatcher.Send(context.Background(), builtReport(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAllSendsFailed))
	require.NotNil(t, summary)
	assert.Equal(t, 2, summary.FailCount)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Len(t, appErr.Details, 2)
}

func TestReportDispatcherSendNoAdmins(t *testing.T) {
	mailer := &mailerStub{configured: true}
	dispatcher := newDispatcherForTest(adminListerStub{}, mailer, ReportDispatcherConfig{}, nil)

	summary, err := dispatcher.Send(context.Background(), builtReport(t))
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.True(t, errors.Is(err, appErrors.ErrNoRecipients))
	assert.Equal(t, "no admin users found", err.Error())
	assert.Zero(t, mailer.attempts)
}

func TestReportDispatcherSendMailNotConfigured(t *testing.T) {
	mailer := &mailerStub{}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test")}, mailer, ReportDispatcherConfig{}, nil)

	_, err := dispatcher.Send(context.Background(), builtReport(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConfiguration))
	assert.Zero(t, mailer.attempts)
}

func TestReportDispatcherSendAdminLookupFails(t *testing.T) {
	mailer := &mailerStub{configured: true}
	dispatcher := newDispatcherForTest(adminListerStub{err: errors.New("db down")}, mailer, ReportDispatcherConfig{}, nil)

	_, err := dispatcher.Send(context.Background(), builtReport(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestReportDispatcherSendNilReport(t *testing.T) {
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test")}, &mailerStub{configured: true}, ReportDispatcherConfig{}, nil)
	_, err := dispatcher.Send(context.Background(), nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestReportDispatcherAttachesPDF(t *testing.T) {
	mailer := &mailerStub{configured: true}
	pdf := &pdfStub{}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test", "b@portal.test")}, mailer, ReportDispatcherConfig{AttachPDF: true}, pdf)

	_, err := dispatcher.Send(context.Background(), builtReport(t))
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.calls)
	for _, msg := range mailer.sent {
		require.Len(t, msg.Attachments, 1)
		assert.Equal(t, "weekly-report-2024-03-10.pdf", msg.Attachments[0].Filename)
	}
}

func TestReportDispatcherPDFFailureStillSends(t *testing.T) {
	mailer := &mailerStub{configured: true}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test")}, mailer, ReportDispatcherConfig{AttachPDF: true}, &pdfStub{err: errors.New("font missing")})

	summary, err := dispatcher.Send(context.Background(), builtReport(t))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Empty(t, mailer.sent[0].Attachments)
}

func TestReportDispatcherSendsEmptyReport(t *testing.T) {
	builder := newBuilderForTest(&lessonFinderStub{lesson: lessonOn("2024-03-17", models.ScopeJunior)}, &teacherListerStub{teachers: []models.TeacherProfile{teacher("s1", 8)}}, &submissionStub{})
	report, found, err := builder.Build(context.Background(), "2024-03-17")
	require.NoError(t, err)
	require.True(t, found)

	mailer := &mailerStub{configured: true}
	dispatcher := newDispatcherForTest(adminListerStub{admins: admins("a@portal.test")}, mailer, ReportDispatcherConfig{AttachPDF: true}, &pdfStub{})

	summary, err := dispatcher.Send(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SuccessCount)
	require.Len(t, mailer.sent, 1)
	msg := mailer.sent[0]
	assert.Equal(t, "No junior teachers for this lesson.", msg.TemplateData["junior_summary"])
	assert.Equal(t, 0, msg.TemplateData["total_teachers"])
	assert.Contains(t, msg.TemplateData["html_content"], "empty-state")
	assert.Empty(t, msg.Attachments)
}
