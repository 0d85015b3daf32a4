package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
	"gorm.io/gorm"
)

// Workflow event kinds dispatched to the studio.
const (
	KindFeedbackReceived = "feedback_received"
	KindPreviewApproved  = "preview_approved"
)

// WorkflowEvent is the payload handed to the notification collaborator when
// a client acts on a preview.
type WorkflowEvent struct {
	Kind        string `json:"kind"`
	ProjectID   string `json:"project_id"` // public project ID
	Title       string `json:"title,omitempty"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email,omitempty"`
	ClientPhone string `json:"client_phone,omitempty"`
	Message     string `json:"message,omitempty"`      // feedback content
	VersionID   string `json:"version_id,omitempty"`   // approved version public ID
	VersionName string `json:"version_name,omitempty"` // approved version display name
}

// Notifier delivers workflow events to the studio. Delivery is best-effort:
// the workflow engine never rolls back a mutation because a notification
// failed.
type Notifier interface {
	Notify(event *WorkflowEvent) error
}

// NotificationService fans workflow events out to every active notification
// channel plus the studio email inbox.
type NotificationService struct {
	db     *gorm.DB
	email  *EmailService
	client *http.Client
}

func NewNotificationService(db *gorm.DB, email *EmailService) *NotificationService {
	return &NotificationService{
		db:     db,
		email:  email,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify dispatches the event to all active channels. Per-channel failures
// are logged and do not stop delivery to the remaining channels.
func (s *NotificationService) Notify(event *WorkflowEvent) error {
	var channels []models.NotificationChannel
	if err := s.db.Where("is_active = ?", true).Find(&channels).Error; err != nil {
		return fmt.Errorf("load notification channels: %w", err)
	}

	var lastErr error
	for i := range channels {
		ch := &channels[i]
		var err error
		switch ch.Type {
		case "slack":
			err = s.sendSlack(ch, event)
		case "discord":
			err = s.sendDiscord(ch, event)
		case "whatsapp":
			err = s.sendWhatsAppRelay(ch, event)
		default:
			err = s.sendGenericWebhook(ch, event)
		}
		if err != nil {
			logger.Warnf("[Notification] channel %s (%s) delivery failed: %v", ch.Name, ch.Type, err)
			lastErr = err
		}
	}

	if s.email != nil {
		if err := s.email.SendWorkflowEvent(event); err != nil {
			logger.Warnf("[Notification] email delivery failed: %v", err)
			lastErr = err
		}
	}

	return lastErr
}

// buildMessage renders the plain-text body shared by the chat channels.
func (s *NotificationService) buildMessage(e *WorkflowEvent) string {
	title := e.Title
	if title == "" {
		title = e.ProjectID
	}

	switch e.Kind {
	case KindFeedbackReceived:
		return fmt.Sprintf("🎧 Novo feedback em %q\nCliente: %s (%s)\n\n%s",
			title, e.ClientName, e.ClientEmail, e.Message)
	case KindPreviewApproved:
		return fmt.Sprintf("✅ Prévia aprovada em %q\nCliente: %s (%s)\nVersão aprovada: %s",
			title, e.ClientName, e.ClientEmail, e.VersionName)
	default:
		return fmt.Sprintf("Evento %s em %q (cliente %s)", e.Kind, title, e.ClientName)
	}
}

func (s *NotificationService) sendSlack(ch *models.NotificationChannel, e *WorkflowEvent) error {
	msg := s.buildMessage(e)
	payload := map[string]interface{}{
		"text": msg,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": msg,
				},
			},
		},
	}
	return s.postJSON(ch.Webhook, payload)
}

func (s *NotificationService) sendDiscord(ch *models.NotificationChannel, e *WorkflowEvent) error {
	payload := map[string]interface{}{
		"content": s.buildMessage(e),
	}
	return s.postJSON(ch.Webhook, payload)
}

// sendWhatsAppRelay posts to a WhatsApp relay service that forwards the text
// to the studio group. The relay authenticates with the channel secret.
func (s *NotificationService) sendWhatsAppRelay(ch *models.NotificationChannel, e *WorkflowEvent) error {
	payload := map[string]interface{}{
		"token":   ch.Secret,
		"message": s.buildMessage(e),
		"phone":   e.ClientPhone,
	}
	return s.postJSON(ch.Webhook, payload)
}

func (s *NotificationService) sendGenericWebhook(ch *models.NotificationChannel, e *WorkflowEvent) error {
	return s.postJSON(ch.Webhook, e)
}

func (s *NotificationService) postJSON(webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
