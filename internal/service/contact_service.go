package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"alcyxob/gym-app/internal/mailer"

	"go.uber.org/zap"
)

var ErrContactUnavailable = errors.New("contact form is temporarily unavailable")

type ContactService interface {
	Submit(ctx context.Context, name, email, message string) error
}

type contactService struct {
	mail   mailer.Mailer
	inbox  string
	logger *zap.Logger
}

func NewContactService(mail mailer.Mailer, inbox string, logger *zap.Logger) ContactService {
	return &contactService{mail: mail, inbox: inbox, logger: logger}
}

// Submit forwards a contact form message to the gym inbox.
func (s *contactService) Submit(ctx context.Context, name, email, message string) error {
	name, email, message = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(message)
	if name == "" || email == "" || message == "" {
		return validationErrorf("name, email and message are required")
	}
	if s.inbox == "" {
		return ErrContactUnavailable
	}

	msg, err := mailer.ContactMessage(s.inbox, name, email, message)
	if err != nil {
		return fmt.Errorf("build contact message: %w", err)
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		if errors.Is(err, mailer.ErrMailDisabled) {
			return ErrContactUnavailable
		}
		s.logger.Error("Failed to send contact message", zap.Error(err))
		return fmt.Errorf("send contact message: %w", err)
	}
	s.logger.Info("Contact message forwarded", zap.String("from", email))
	return nil
}
