// Package mail delivers template based emails.
package mail

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/teachers-portal-api/pkg/config"
)

// Attachment is a file attached to a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one email rendered through a provider template.
type Message struct {
	ToEmail      string
	ToName       string
	Subject      string
	TemplateData map[string]interface{}
	Attachments  []Attachment
}

// Validate checks the recipient address.
func (m Message) Validate() error {
	if strings.TrimSpace(m.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}
	if _, err := mail.ParseAddress(m.ToEmail); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", m.ToEmail, err)
	}
	return nil
}

// Sender delivers messages. Configured reports whether the credentials needed to
// deliver are present.
type Sender interface {
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// New selects the sender for the configured driver.
func New(cfg config.MailConfig, logger *zap.Logger) Sender {
	switch cfg.Driver {
	case config.MailDriverConsole:
		return NewConsoleSender(logger)
	default:
		return NewSendgridSender(cfg, logger)
	}
}
