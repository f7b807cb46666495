// Package mailer delivers verification and password reset links.
package mailer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/eci4ever/bizadmin/internal/boundaries/out"
)

var _ out.Mailer = (*LogMailer)(nil)

// LogMailer writes each message to the log instead of sending it. It is
// the only transport; operators copy links from the server output.
type LogMailer struct {
	log *log.Logger
}

// NewLogMailer creates a mailer that logs through logger.
func NewLogMailer(logger *log.Logger) *LogMailer {
	if logger == nil {
		logger = log.Default()
	}
	return &LogMailer{log: logger}
}

// Send logs m at info level.
func (m *LogMailer) Send(ctx context.Context, mail out.Mail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if mail.To == "" || mail.Link == "" {
		return fmt.Errorf("mail %s: recipient and link are required", mail.Kind)
	}
	m.log.Info("outgoing mail", "kind", mail.Kind, "to", mail.To, "link", mail.Link)
	return nil
}
