package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/meddist/internal-api/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type PasswordReset struct {
	Name      string
	Link      string
	ExpiresIn string
}

type SMTPMailer struct {
	conf *config.SMTPConfig
	send sendFunc
}

func NewSMTPMailer(conf *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		conf: conf,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to string, data PasswordReset) error {
	body, err := Render("reset_password.html", data)
	if err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	msg := m.buildMessage(to, "Password reset", body)

	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.conf.Host, m.conf.Port)
	if err = m.send(addr, auth, m.conf.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp.SendMail -> %w", err)
	}

	zap.L().Info("password reset email sent", zap.String("to", to))

	return nil
}

func (m *SMTPMailer) buildMessage(to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.conf.FromName, m.conf.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	return []byte(b.String())
}

// Render executes the named embedded template.
func Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("templates.ExecuteTemplate -> %w", err)
	}

	return buf.String(), nil
}
