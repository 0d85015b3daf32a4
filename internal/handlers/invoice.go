package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// InvoiceHandler covers admin billing plus the payment gateway webhook.
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	webhookSecret  string
}

func NewInvoiceHandler(db *gorm.DB, cfg *config.Config) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: services.NewInvoiceService(db, &cfg.Payment),
		webhookSecret:  cfg.Payment.WebhookSecret,
	}
}

// Create issues an invoice against a project
// POST /api/invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req services.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.Create(&req)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, invoice)
}

// ListByProject returns the invoices for one project
// GET /api/projects/:id/invoices
func (h *InvoiceHandler) ListByProject(c *gin.Context) {
	invoices, err := h.invoiceService.ListByProject(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, invoices)
}

// Cancel voids a pending invoice
// POST /api/invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid invoice id")
		return
	}

	if err := h.invoiceService.Cancel(uint(id)); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "invoice cancelled"})
}

// gatewayEvent is the payload the payment gateway posts on charge updates.
type gatewayEvent struct {
	Event      string `json:"event"`
	CheckoutID string `json:"checkout_id"`
}

// HandlePaymentWebhook reconciles gateway payment events. The gateway signs
// the raw body with HMAC-SHA256 in the X-Webhook-Signature header.
// POST /api/payments/webhook
func (h *InvoiceHandler) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if h.webhookSecret != "" && !verifyWebhookSignature(h.webhookSecret, body, signature) {
		services.LogWarning("payments", "invalid_signature", "payment webhook signature mismatch",
			nil, c.ClientIP(), c.Request.UserAgent(), nil)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var event gatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	switch event.Event {
	case "payment.paid":
		if err := h.invoiceService.MarkPaid(event.CheckoutID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		// Other gateway events carry nothing to reconcile
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func verifyWebhookSignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
