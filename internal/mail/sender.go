package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

type MailSender interface {
	Send(to string, subject string, textBody string, htmlBody string) error
}

// ConsoleMailSender logs emails instead of sending them; the default when no
// SMTP provider is configured.
type ConsoleMailSender struct{}

func (s *ConsoleMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	log.Printf("=== MOCK EMAIL ===\nTo: %s\nSubject: %s\nText Body: %s\nHTML Body: %s\n==================", to, subject, textBody, htmlBody)
	return nil
}

type SmtpConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type SmtpMailSender struct {
	config SmtpConfig
}

func NewSmtpMailSender(config SmtpConfig) *SmtpMailSender {
	return &SmtpMailSender{config: config}
}

func (s *SmtpMailSender) Send(to string, subject string, textBody string, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	address := fmt.Sprintf("%s:%s", s.config.Host, s.config.Port)

	contentType := "text/html"
	body := htmlBody
	if htmlBody == "" {
		contentType = "text/plain"
		body = textBody
	}

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-version: 1.0;\nContent-Type: %s; charset=\"UTF-8\";\n\n\r\n%s",
		to, s.config.From, subject, contentType, body))

	if err := smtp.SendMail(address, auth, s.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func NewSenderFromEnv() MailSender {
	if os.Getenv("MAIL_PROVIDER") == "smtp" {
		return NewSmtpMailSender(SmtpConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
		})
	}
	return &ConsoleMailSender{}
}
