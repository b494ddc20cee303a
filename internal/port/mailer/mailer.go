// Package mailer defines the port interface for outbound email.
package mailer

import "context"

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
