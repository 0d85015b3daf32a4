package models

import (
	"time"

	"gorm.io/gorm"
)

// PortfolioItem is a published sample work shown on the marketing site.
type PortfolioItem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"size:1000" json:"description"`
	Genre       string         `gorm:"size:100" json:"genre"`
	AudioURL    string         `gorm:"size:1000;not null" json:"audio_url"`
	CoverURL    string         `gorm:"size:1000" json:"cover_url"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PortfolioItem) TableName() string { return "portfolio_items" }
