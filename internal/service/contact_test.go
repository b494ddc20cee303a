package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Strob0t/technews/internal/domain"
	"github.com/Strob0t/technews/internal/domain/contact"
)

// mockMailer implements mailer.Mailer for testing.
type mockMailer struct {
	to, subject, body string
	sent              int
	sendErr           error
}

func (m *mockMailer) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to, m.subject, m.body = to, subject, body
	m.sent++
	return nil
}

func contactMessage() contact.Message {
	return contact.Message{
		Name:    "Ravi <b>K</b>",
		Email:   "ravi@example.com",
		Subject: "Hello",
		Message: "Line 1\nLine 2",
	}
}

func TestContactService_Submit(t *testing.T) {
	m := &mockMailer{}
	svc := NewContactService(m, "owner@example.com")

	if err := svc.Submit(context.Background(), contactMessage()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if m.sent != 1 || m.to != "owner@example.com" {
		t.Fatalf("unexpected delivery: sent=%d to=%q", m.sent, m.to)
	}
	if m.subject != "Contact Form: Hello" {
		t.Errorf("unexpected subject %q", m.subject)
	}
	if strings.Contains(m.body, "<b>") {
		t.Error("user-supplied markup must be stripped")
	}
	if !strings.Contains(m.body, "Line 1<br>Line 2") {
		t.Errorf("expected line breaks preserved, got %q", m.body)
	}
}

func TestContactService_ValidationFirst(t *testing.T) {
	m := &mockMailer{}
	svc := NewContactService(m, "owner@example.com")

	msg := contactMessage()
	msg.Email = "nope"
	if err := svc.Submit(context.Background(), msg); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if m.sent != 0 {
		t.Fatal("invalid message must not be sent")
	}
}

func TestContactService_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		svc  *ContactService
	}{
		{"no mailer", NewContactService(nil, "owner@example.com")},
		{"no recipient", NewContactService(&mockMailer{}, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.svc.Submit(context.Background(), contactMessage())
			if !errors.Is(err, domain.ErrNotConfigured) {
				t.Fatalf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestContactService_SendFailure(t *testing.T) {
	svc := NewContactService(&mockMailer{sendErr: errors.New("535 auth failed")}, "owner@example.com")
	err := svc.Submit(context.Background(), contactMessage())
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}
