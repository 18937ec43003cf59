package emailsender

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"

	"focusflow/config"
)

type EmailSender struct {
	SmtpServer *gomail.Dialer
	fromEmail  string
}

func New(cfg config.SMTPConfig) (*EmailSender, error) {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, os.Getenv("SMTP_PASSWORD"))

	conn, err := d.Dial()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server %s:%d for user %s: %w", cfg.Host, cfg.Port, cfg.Username, err)
	}
	defer conn.Close()

	return &EmailSender{SmtpServer: d, fromEmail: cfg.Username}, nil
}

// SendReminderEmail delivers a reminder as a plain email. Used as the
// fallback channel when a user has no registered devices.
func (e *EmailSender) SendReminderEmail(recipientEmail, title, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", e.fromEmail)
	m.SetHeader("To", recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Reminder: %s", title))
	m.SetBody("text/html", fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; color: #222;">
  <h2 style="margin-bottom: 4px;">%s</h2>
  <p style="margin-top: 0;">%s</p>
  <p style="color: #888; font-size: 12px;">Sent by FocusFlow because this reminder could not reach any of your devices.</p>
</body>
</html>`, title, body))

	if err := e.SmtpServer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reminder email to %s: %w", recipientEmail, err)
	}
	return nil
}
