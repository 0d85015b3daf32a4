package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationChannel is a webhook target that receives workflow events
// (client feedback, preview approvals) for the studio staff.
type NotificationChannel struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Type      string         `gorm:"size:50;not null" json:"type"` // slack, discord, whatsapp, generic
	Webhook   string         `gorm:"size:500;not null" json:"webhook"`
	Secret    string         `gorm:"size:255" json:"-"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (NotificationChannel) TableName() string { return "notification_channels" }
