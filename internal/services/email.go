package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
)

// EmailService sends transactional mail: workflow event digests to the
// studio inbox and review-window reminders to clients.
type EmailService struct {
	cfg *config.SMTPConfig
}

func NewEmailService(cfg *config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendWorkflowEvent mails a workflow event to the studio staff inboxes.
func (s *EmailService) SendWorkflowEvent(event *WorkflowEvent) error {
	if !s.cfg.Enabled || s.cfg.Host == "" {
		return nil
	}

	recipients := splitRecipients(s.cfg.StaffTo)
	if len(recipients) == 0 {
		return nil
	}

	var subject string
	switch event.Kind {
	case KindFeedbackReceived:
		subject = fmt.Sprintf("[Sonora] Novo feedback: %s", event.ClientName)
	case KindPreviewApproved:
		subject = fmt.Sprintf("[Sonora] Prévia aprovada: %s", event.ClientName)
	default:
		subject = fmt.Sprintf("[Sonora] %s: %s", event.Kind, event.ClientName)
	}

	return s.send(recipients, subject, s.buildEventBody(event))
}

// SendDeadlineReminder mails the client that their review window is closing.
func (s *EmailService) SendDeadlineReminder(project *models.Project, daysLeft int) error {
	if !s.cfg.Enabled || s.cfg.Host == "" {
		return nil
	}
	if project.ClientEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("[Sonora] Sua prévia expira em %d dia(s)", daysLeft)

	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<p>Olá %s,</p>", project.ClientName))
	sb.WriteString(fmt.Sprintf(
		"<p>O período de avaliação da sua música <strong>%s</strong> termina em %s.</p>",
		project.Title, project.ExpiresAt.Format("02/01/2006")))
	sb.WriteString("<p>Acesse o link da prévia para ouvir as versões e deixar seu feedback ou aprovação.</p>")
	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Sonora Studio</p>")
	sb.WriteString("</body></html>")

	return s.send([]string{project.ClientEmail}, subject, sb.String())
}

func (s *EmailService) buildEventBody(e *WorkflowEvent) string {
	var sb strings.Builder

	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString("<h2>🎵 Atividade na prévia</h2>")
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")

	rows := []struct{ label, value string }{
		{"Projeto", e.Title},
		{"Cliente", e.ClientName},
		{"Email", e.ClientEmail},
		{"Evento", e.Kind},
	}
	if e.VersionName != "" {
		rows = append(rows, struct{ label, value string }{"Versão", e.VersionName})
	}

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>", r.label, r.value))
	}
	sb.WriteString("</table>")

	if e.Message != "" {
		sb.WriteString("<h3>Mensagem do cliente</h3>")
		sb.WriteString(fmt.Sprintf("<div style=\"background: #f9f9f9; padding: 16px; border-radius: 4px; white-space: pre-wrap;\">%s</div>", e.Message))
	}

	sb.WriteString("<hr><p style=\"color: #888; font-size: 12px;\">Sonora Studio</p>")
	sb.WriteString("</body></html>")

	return sb.String()
}

func (s *EmailService) send(to []string, subject, body string) error {
	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	headers := map[string]string{
		"From":         from,
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"Date":         time.Now().Format(time.RFC1123Z),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var err error
	if s.cfg.UseTLS {
		err = s.sendTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Warnf("[Email] failed to send: %v", err)
		return err
	}

	logger.Infof("[Email] sent %q to %v", subject, to)
	return nil
}

func (s *EmailService) sendTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}

	return w.Close()
}

func splitRecipients(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
