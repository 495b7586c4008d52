package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
)

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// PortalURL is linked from the email so members know where to log in.
	PortalURL string
}

// SMTPMailer sends the approval email over plain SMTP.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer builds a mailer for the given transport settings.
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

// SetSendOverride replaces the underlying send function. Test hook.
func (m *SMTPMailer) SetSendOverride(fn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) {
	m.send = fn
}

var approvalTemplate = template.Must(template.New("approval").Parse(`<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f3f4f6;padding:20px">
  <div style="max-width:650px;margin:0 auto;background:#fff;border-radius:12px;padding:32px">
    <h1 style="color:#ea580c">Registration Approved</h1>
    <p>Dear {{.FirstName}} {{.LastName}},</p>
    <p>Your registration has been approved and your account is now active.
       You have full access to the heritage portal: explore your ancestral
       lineage, discover family connections and stay updated with community
       news and events.</p>
    <h2>Your Account Credentials</h2>
    <table>
      <tr><td><strong>Username:</strong></td><td>{{.Username}}</td></tr>
      <tr><td><strong>Password:</strong></td><td>{{.Password}}</td></tr>
    </table>
    <p>Please change your password after your first login and keep your
       credentials confidential.</p>
    {{if .PortalURL}}<p><a href="{{.PortalURL}}">Log in to the portal</a></p>{{end}}
    <p>Warm regards,<br>The Heritage Portal Team</p>
  </div>
</body>
</html>`))

// SendApproval renders and sends the credentials email. The caller decides
// whether the address is worth attempting (ValidEmail); this method only
// transports.
func (m *SMTPMailer) SendApproval(_ context.Context, msg ApprovalEmail) error {
	var body bytes.Buffer
	err := approvalTemplate.Execute(&body, struct {
		ApprovalEmail
		PortalURL string
	}{ApprovalEmail: msg, PortalURL: m.cfg.PortalURL})
	if err != nil {
		return fmt.Errorf("render approval email: %w", err)
	}

	var headers strings.Builder
	headers.WriteString("From: Heritage Portal <" + m.cfg.From + ">\r\n")
	headers.WriteString("To: " + msg.Email + "\r\n")
	headers.WriteString("Subject: Registration Approved - Heritage Portal\r\n")
	headers.WriteString("MIME-Version: 1.0\r\n")
	headers.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	headers.WriteString("\r\n")

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + m.cfg.Port

	if err := m.send(addr, auth, m.cfg.From, []string{msg.Email}, append([]byte(headers.String()), body.Bytes()...)); err != nil {
		return fmt.Errorf("send approval email: %w", err)
	}
	return nil
}
