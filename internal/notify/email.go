package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"solace/internal/domain"
	"solace/pkg/errors"
)

// SMTPConfig is the subset of pkg/config.SMTP the email sender needs,
// kept narrow so this package doesn't import pkg/config directly.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

type emailSender struct {
	cfg SMTPConfig
}

// formatEmailHTML builds the HTML body, ported from format_email_html in
// notifications.py, kept in the teacher's Go idiom (the teacher has no
// email sender of its own to adapt — built fresh from the Python original).
func formatEmailHTML(incident domain.Incident, event domain.IncidentEventType, dashboardURL string) (subject, body string) {
	severity := strings.ToUpper(string(incident.Severity))
	label := eventLabel(event)
	subject = fmt.Sprintf("[Solace] [%s] %s: %s", severity, label, incident.Title)

	const td = `padding:6px 12px;border-bottom:1px solid #1e2736`
	var rows strings.Builder
	limit := len(incident.Alerts)
	if limit > 10 {
		limit = 10
	}
	for _, a := range incident.Alerts[:limit] {
		svc := a.Service
		if svc == "" {
			svc = "-"
		}
		fmt.Fprintf(&rows,
			`<tr><td style="%s">%s</td><td style="%s">%s</td><td style="%s">%s</td><td style="%s">%s</td></tr>`,
			td, a.Name, td, a.Severity, td, a.Status, td, svc)
	}

	alertsTable := ""
	if rows.Len() > 0 {
		alertsTable = fmt.Sprintf(`
			<h3 style="color:#e8ecf1;margin-top:24px;">Correlated Alerts</h3>
			<table style="width:100%%;border-collapse:collapse;font-size:13px;">
				<tr style="background:#111720;">
					<th style="padding:8px 12px;text-align:left;color:#3d4f65;">Name</th>
					<th style="padding:8px 12px;text-align:left;color:#3d4f65;">Severity</th>
					<th style="padding:8px 12px;text-align:left;color:#3d4f65;">Status</th>
					<th style="padding:8px 12px;text-align:left;color:#3d4f65;">Service</th>
				</tr>
				%s
			</table>`, rows.String())
	}

	body = fmt.Sprintf(`
	<div style="font-family:sans-serif;max-width:600px;margin:0 auto;background:#0a0e14;color:#c5cdd8;padding:24px;border-radius:8px">
		<h2 style="color:#e8ecf1;margin-top:0;">%s</h2>
		<table style="width:100%%;border-collapse:collapse;margin-bottom:16px;">
			<tr><td style="padding:8px 0;color:#3d4f65;">Incident</td><td style="padding:8px 0;color:#e8ecf1;font-weight:600;">%s</td></tr>
			<tr><td style="padding:8px 0;color:#3d4f65;">Severity</td><td style="padding:8px 0;color:#e8ecf1;font-weight:600;">%s</td></tr>
			<tr><td style="padding:8px 0;color:#3d4f65;">Alert Count</td><td style="padding:8px 0;color:#e8ecf1;">%d</td></tr>
			<tr><td style="padding:8px 0;color:#3d4f65;">Status</td><td style="padding:8px 0;color:#e8ecf1;">%s</td></tr>
		</table>
		%s
		<p style="margin-top:24px;"><a href="%s" style="color:#10b981;">View in Solace</a></p>
	</div>`, label, incident.Title, severity, len(incident.Alerts), incident.Status, alertsTable, dashboardURL)

	return subject, body
}

func (s *emailSender) Send(ctx context.Context, channel domain.NotificationChannel, incident domain.Incident, event domain.IncidentEventType) error {
	if s.cfg.Host == "" {
		return &errors.DeliveryError{Channel: "email", Err: fmt.Errorf("SMTP not configured")}
	}

	var recipients []string
	if raw, ok := channel.Config["recipients"].([]interface{}); ok {
		for _, r := range raw {
			if str, ok := r.(string); ok && str != "" {
				recipients = append(recipients, str)
			}
		}
	}
	if len(recipients) == 0 {
		return &errors.DeliveryError{Channel: "email", Err: fmt.Errorf("missing recipients in config")}
	}

	from := channel.Config.String("from_address")
	if from == "" {
		from = s.cfg.From
	}
	dashboardURL := channel.Config.String("dashboard_url")

	subject, html := formatEmailHTML(incident, event, dashboardURL)

	msg := buildMIMEMessage(from, recipients, subject, html)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var sendErr error
	if s.cfg.StartTLS {
		sendErr = sendWithStartTLS(addr, s.cfg.Host, auth, from, recipients, msg)
	} else {
		sendErr = smtp.SendMail(addr, auth, from, recipients, msg)
	}
	if sendErr != nil {
		return &errors.DeliveryError{Channel: "email", Err: sendErr}
	}
	return nil
}

func buildMIMEMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sendWithStartTLS mirrors the original's smtplib STARTTLS path, which the
// stdlib smtp.SendMail doesn't support directly.
func sendWithStartTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, r := range to {
		if err := client.Rcpt(r); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}
