// Package mailer sends templated plain-text email over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"sort"
	"strings"

	"github.com/dojohub/backend/config"
)

// Mailer formats and delivers email via the configured SMTP relay.
type Mailer struct {
	cfg config.EmailConfig
}

// New creates a mailer.
func New(cfg config.EmailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Configured reports whether an SMTP relay is set up. When false, Send fails
// and jobs land in the DLQ instead of silently disappearing.
func (m *Mailer) Configured() bool {
	return m.cfg.SMTPHost != ""
}

// Send delivers one message.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	from := m.cfg.FromAddress

	msg := "From: " + m.cfg.FromName + " <" + from + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n" +
		body + "\r\n"

	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPass, m.cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, from, []string{to}, []byte(msg))
}

// RenderBody builds a plain-text body from template merge data: a greeting
// followed by the merge variables in stable order. Template-specific HTML
// lives with the email provider; this is the text fallback.
func RenderBody(merge map[string]string) string {
	var b strings.Builder
	if name := merge["first_name"]; name != "" {
		fmt.Fprintf(&b, "Hi %s,\n\n", name)
	}

	keys := make([]string, 0, len(merge))
	for k := range merge {
		switch k {
		case "first_name", "last_name", "company", "site_url", "current_year":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := merge[k]; v != "" {
			fmt.Fprintf(&b, "%s: %s\n", strings.ReplaceAll(k, "_", " "), v)
		}
	}

	if company := merge["company"]; company != "" {
		fmt.Fprintf(&b, "\n%s", company)
		if url := merge["site_url"]; url != "" {
			fmt.Fprintf(&b, " | %s", url)
		}
		b.WriteString("\n")
	}
	return b.String()
}
