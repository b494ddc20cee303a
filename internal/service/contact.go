package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	cfotel "github.com/Strob0t/technews/internal/adapter/otel"
	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/contact"
	"github.com/Strob0t/technews/internal/port/mailer"
)

// ErrSendFailed is returned when the mail transport rejects a message.
var ErrSendFailed = errors.New("failed to send message")

// ContactService forwards contact-form submissions to the site owner by mail.
type ContactService struct {
	mailer mailer.Mailer // nil when mail is not configured
	to     string

	notConfigured sync.Once
}

// NewContactService creates a ContactService delivering to the given address.
// A nil mailer or empty recipient leaves the service unconfigured.
func NewContactService(m mailer.Mailer, to string) *ContactService {
	return &ContactService{mailer: m, to: to}
}

// Submit validates, sanitises and sends msg.
func (s *ContactService) Submit(ctx context.Context, msg contact.Message) error {
	if err := contact.Validate(&msg); err != nil {
		return err
	}
	if s.mailer == nil || s.to == "" {
		s.notConfigured.Do(func() {
			slog.ErrorContext(ctx, "mail credentials are not configured; contact form is disabled")
		})
		return fmt.Errorf("contact mailer: %w", domain.ErrNotConfigured)
	}

	clean := contact.Sanitize(&msg)

	ctx, span := cfotel.StartMailSpan(ctx)
	defer span.End()

	if err := s.mailer.Send(ctx, s.to, contact.Subject(&clean), contact.HTMLBody(&clean)); err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "contact mail send failed", "error", err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	slog.InfoContext(ctx, "contact message sent", "subject_length", len(clean.Subject))
	return nil
}
