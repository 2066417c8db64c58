package main

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/caarlos0/env/v11"
	"github.com/go-mail/mail/v2"
)

// smtpEnv holds raw env values before post-parse validation.
type smtpEnv struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"25"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	Sender   string `env:"SMTP_SENDER"`
}

type smtpConfig struct {
	host     string
	port     int
	username string
	password string
	sender   string
}

// loadSMTPConfigFromEnv reads the SMTP settings. An empty SMTP_HOST means
// mail is disabled, which is not an error.
func loadSMTPConfigFromEnv() (smtpConfig, error) {
	var raw smtpEnv
	if err := env.Parse(&raw); err != nil {
		return smtpConfig{}, fmt.Errorf("parse smtp env: %w", err)
	}
	if raw.Host != "" && raw.Sender == "" {
		return smtpConfig{}, fmt.Errorf("SMTP_SENDER is required when SMTP_HOST is set")
	}
	return smtpConfig{
		host:     raw.Host,
		port:     raw.Port,
		username: raw.Username,
		password: raw.Password,
		sender:   raw.Sender,
	}, nil
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
{{define "subject"}}Welcome to the todo list{{end}}
{{define "plainBody"}}Hi {{.Username}},

Your account was created. Log in to start managing your tasks.
{{end}}
{{define "htmlBody"}}<!doctype html>
<html>
<body>
<p>Hi {{.Username}},</p>
<p>Your account was created. Log in to start managing your tasks.</p>
</body>
</html>
{{end}}`))

type mailer struct {
	dialer *mail.Dialer
	sender string
}

// newMailer returns nil when SMTP is not configured; callers must treat a
// nil mailer as mail disabled.
func newMailer(cfg smtpConfig) *mailer {
	if cfg.host == "" {
		return nil
	}
	dialer := mail.NewDialer(cfg.host, cfg.port, cfg.username, cfg.password)
	return &mailer{
		dialer: dialer,
		sender: cfg.sender,
	}
}

func (m *mailer) sendWelcome(u *user) error {
	var subject bytes.Buffer
	err := welcomeTemplate.ExecuteTemplate(&subject, "subject", u)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = welcomeTemplate.ExecuteTemplate(&plainBody, "plainBody", u)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = welcomeTemplate.ExecuteTemplate(&htmlBody, "htmlBody", u)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", u.Email)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}
