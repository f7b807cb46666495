package out

import "context"

// MailKind identifies the flow an outbound message belongs to.
type MailKind string

const (
	MailVerifyEmail   MailKind = "verify-email"
	MailResetPassword MailKind = "reset-password"
)

// Mail is an outbound message carrying a one-time link.
type Mail struct {
	Kind MailKind
	To   string
	Link string
}

// Mailer delivers verification and password reset links.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// AuthMetrics records auth outcomes.
type AuthMetrics interface {
	// Observe counts one result of an auth operation, e.g. ("sign_in", "ok").
	Observe(operation, result string)
}
