package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendAppointmentCancellation(_ context.Context, to, patientName, doctorName, location, formattedTime string) error {
	subject := "Important: Your Appointment Has Been Cancelled"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour appointment with Dr. %s at %s on %s has been cancelled by the doctor. "+
			"Please book a new appointment at your convenience.\n\nWe apologize for the inconvenience.",
		patientName, doctorName, location, formattedTime,
	)
	return s.send(to, subject, body)
}

func (s *smtpService) SendPasswordReset(_ context.Context, to, token string) error {
	subject := "Password Reset Request"
	body := fmt.Sprintf("Use the following token to reset your password. It expires shortly.\n\n%s", token)
	return s.send(to, subject, body)
}

func (s *smtpService) SendCustom(_ context.Context, to, subject, content string) error {
	return s.send(to, subject, content)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
