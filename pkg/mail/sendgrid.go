package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/pkg/config"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendgridSender delivers messages through a SendGrid dynamic template.
type SendgridSender struct {
	client     sendgridClient
	apiKey     string
	templateID string
	from       *sgmail.Email
	logger     *zap.Logger
}

var _ Sender = (*SendgridSender)(nil)

// NewSendgridSender constructs a sender from the mail configuration.
func NewSendgridSender(cfg config.MailConfig, logger *zap.Logger) *SendgridSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &SendgridSender{
		apiKey:     strings.TrimSpace(cfg.SendgridAPIKey),
		templateID: strings.TrimSpace(cfg.TemplateID),
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger:     logger,
	}
	if s.apiKey != "" {
		s.client = sendgrid.NewSendClient(s.apiKey)
	}
	return s
}

// Configured reports whether both the API key and template are set.
func (s *SendgridSender) Configured() bool {
	return s != nil && s.client != nil && s.apiKey != "" && s.templateID != ""
}

// Send delivers one message. Non 2xx provider responses are returned as errors.
func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	if !s.Configured() {
		return fmt.Errorf("sendgrid sender is not configured")
	}
	if err := msg.Validate(); err != nil {
		return err
	}

	res, err := s.client.SendWithContext(ctx, s.prepare(msg))
	if err != nil {
		return fmt.Errorf("sendgrid send to %s: %w", msg.ToEmail, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send to %s: status %d: %s", msg.ToEmail, res.StatusCode, strings.TrimSpace(res.Body))
	}
	s.logger.Debug("email accepted", zap.String("to", msg.ToEmail), zap.Int("status", res.StatusCode))
	return nil
}

func (s *SendgridSender) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))
	p.Subject = msg.Subject
	for key, value := range msg.TemplateData {
		p.SetDynamicTemplateData(key, value)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.SetTemplateID(s.templateID)
	m.AddPersonalizations(p)

	for _, at := range msg.Attachments {
		a := sgmail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(at.Content))
		a.SetType(at.ContentType)
		a.SetFilename(at.Filename)
		a.SetDisposition("attachment")
		m.AddAttachment(a)
	}
	return m
}
