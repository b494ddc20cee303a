// Package contact validates and sanitises contact-form submissions.
package contact

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Strob0t/technews/internal/domain"
)

// Field length limits, in characters.
const (
	MaxNameLength    = 100
	MaxEmailLength   = 254
	MaxSubjectLength = 200
	MaxMessageLength = 5000
)

// Message is a contact-form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Validate checks that every field is present, within its length limit, and
// that the email address is a bare, well-formed address.
func Validate(m *Message) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"name", m.Name, MaxNameLength},
		{"email", m.Email, MaxEmailLength},
		{"subject", m.Subject, MaxSubjectLength},
		{"message", m.Message, MaxMessageLength},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("all fields are required: %w", domain.ErrValidation)
		}
		if utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%s exceeds %d characters: %w", f.name, f.max, domain.ErrValidation)
		}
	}
	if !ValidEmail(m.Email) {
		return fmt.Errorf("email address is invalid: %w", domain.ErrValidation)
	}
	return nil
}

// ValidEmail reports whether s is a plain address without a display name.
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}

// Sanitize returns a copy of m with HTML-significant and control characters
// removed from every field. Newlines in the message body are kept.
func Sanitize(m *Message) Message {
	return Message{
		Name:    strip(m.Name, false),
		Email:   strip(m.Email, false),
		Subject: strip(m.Subject, false),
		Message: strip(m.Message, true),
	}
}

func strip(s string, keepNewlines bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case strings.ContainsRune(`<>&"'`, r):
			continue
		case r == '\n' && keepNewlines:
			b.WriteRune(r)
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Subject returns the outgoing mail subject for m.
func Subject(m *Message) string {
	return "Contact Form: " + m.Subject
}

// HTMLBody renders the outgoing mail body. m must already be sanitised.
func HTMLBody(m *Message) string {
	body := strings.ReplaceAll(m.Message, "\n", "<br>")
	return fmt.Sprintf(`<h2>New Contact Form Submission</h2>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`, m.Name, m.Email, m.Subject, body)
}
