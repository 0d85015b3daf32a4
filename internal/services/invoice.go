package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
	"gorm.io/gorm"
)

// InvoiceService issues charges against projects through the hosted-checkout
// payment gateway and reconciles them via the gateway webhook.
type InvoiceService struct {
	db      *gorm.DB
	cfg     *config.PaymentConfig
	client  *http.Client
	baseURL string
}

func NewInvoiceService(db *gorm.DB, cfg *config.PaymentConfig) *InvoiceService {
	return &InvoiceService{
		db:      db,
		cfg:     cfg,
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: cfg.BaseURL,
	}
}

type CreateInvoiceRequest struct {
	ProjectID   string `json:"project_id" binding:"required"` // project public ID
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

// checkoutRequest is the payload sent to the gateway's checkout endpoint.
type checkoutRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	PayerName   string `json:"payer_name"`
	PayerEmail  string `json:"payer_email"`
	Reference   string `json:"reference"`
}

type checkoutResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

// Create records an invoice and, when the gateway is enabled, requests a
// hosted checkout link for the client.
func (s *InvoiceService) Create(req *CreateInvoiceRequest) (*models.Invoice, error) {
	var project models.Project
	if err := s.db.Where("public_id = ?", req.ProjectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = "BRL"
	}

	invoice := models.Invoice{
		ProjectID:   project.ID,
		AmountCents: req.AmountCents,
		Currency:    currency,
		Description: req.Description,
		Status:      models.InvoicePending,
	}

	if s.cfg.Enabled {
		checkout, err := s.requestCheckout(&project, &invoice)
		if err != nil {
			return nil, fmt.Errorf("payment gateway: %w", err)
		}
		invoice.CheckoutURL = checkout.CheckoutURL
		invoice.GatewayRef = checkout.ID
	}

	if err := s.db.Create(&invoice).Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

func (s *InvoiceService) requestCheckout(project *models.Project, invoice *models.Invoice) (*checkoutResponse, error) {
	payload := checkoutRequest{
		AmountCents: invoice.AmountCents,
		Currency:    invoice.Currency,
		Description: invoice.Description,
		PayerName:   project.ClientName,
		PayerEmail:  project.ClientEmail,
		Reference:   project.PublicID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIToken)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var checkout checkoutResponse
	if err := json.Unmarshal(respBody, &checkout); err != nil {
		return nil, err
	}

	return &checkout, nil
}

// ListByProject returns the invoices for one project, newest first.
func (s *InvoiceService) ListByProject(projectPublicID string) ([]models.Invoice, error) {
	var project models.Project
	if err := s.db.Where("public_id = ?", projectPublicID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var invoices []models.Invoice
	err := s.db.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&invoices).Error
	return invoices, err
}

// MarkPaid reconciles a gateway payment event against the matching invoice.
// Unknown references are logged and ignored: the gateway may relay events for
// charges created outside this system.
func (s *InvoiceService) MarkPaid(gatewayRef string) error {
	var invoice models.Invoice
	if err := s.db.Where("gateway_ref = ?", gatewayRef).First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warnf("[Invoice] payment event for unknown reference %s ignored", gatewayRef)
			return nil
		}
		return err
	}

	if invoice.Status == models.InvoicePaid {
		return nil
	}

	now := time.Now()
	return s.db.Model(&invoice).Updates(map[string]interface{}{
		"status":  models.InvoicePaid,
		"paid_at": &now,
	}).Error
}

// Cancel voids a pending invoice.
func (s *InvoiceService) Cancel(id uint) error {
	var invoice models.Invoice
	if err := s.db.First(&invoice, id).Error; err != nil {
		return err
	}

	if invoice.Status == models.InvoicePaid {
		return errors.New("paid invoices cannot be cancelled")
	}

	return s.db.Model(&invoice).Update("status", models.InvoiceCancelled).Error
}
