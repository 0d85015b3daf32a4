package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses.
const (
	InvoicePending   = "pending"
	InvoicePaid      = "paid"
	InvoiceCancelled = "cancelled"
)

// Invoice is one charge issued against a Project, paid through the hosted
// checkout of the configured payment gateway.
type Invoice struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"index;not null" json:"project_id"`
	Project     *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Currency    string         `gorm:"size:10;default:BRL" json:"currency"`
	Description string         `gorm:"size:500" json:"description"`
	Status      string         `gorm:"size:20;default:pending;index" json:"status"` // pending, paid, cancelled
	CheckoutURL string         `gorm:"size:1000" json:"checkout_url"`
	GatewayRef  string         `gorm:"size:200;index" json:"gateway_ref"` // gateway-side charge reference
	PaidAt      *time.Time     `json:"paid_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Invoice) TableName() string { return "invoices" }
