package models

import (
	"time"

	"gorm.io/gorm"
)

// Project status values. Status is derived from review actions and is never
// set arbitrarily by a caller.
const (
	StatusWaiting  = "waiting"
	StatusFeedback = "feedback"
	StatusApproved = "approved"
)

// Supported commercial package tiers.
var PackageTiers = []string{"essencial", "premium", "master"}

// IsValidPackageTier reports whether tier is one of the supported tiers.
func IsValidPackageTier(tier string) bool {
	for _, t := range PackageTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Project represents one commissioned-music engagement tracked through review.
type Project struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	PublicID       string         `gorm:"uniqueIndex;size:64;not null" json:"public_id"` // opaque ID used in client links
	ClientName     string         `gorm:"size:200;not null" json:"client_name"`
	ClientEmail    string         `gorm:"size:255;not null" json:"client_email"`
	ClientPhone    string         `gorm:"size:50" json:"client_phone"`
	PackageTier    string         `gorm:"size:50;not null" json:"package_tier"` // essencial, premium, master
	Title          string         `gorm:"size:300" json:"title"`
	Status         string         `gorm:"size:20;default:waiting" json:"status"` // waiting, feedback, approved
	ExpiresAt      time.Time      `json:"expires_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`
	Versions       []Version      `gorm:"foreignKey:ProjectID" json:"versions,omitempty"`
	Feedbacks      []Feedback     `gorm:"foreignKey:ProjectID" json:"feedbacks,omitempty"`
	History        []HistoryEntry `gorm:"foreignKey:ProjectID" json:"history,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// Version represents one candidate audio rendering offered for client review.
// Versions are never edited in place; corrections become a new Version.
type Version struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"index;not null" json:"project_id"`
	PublicID    string    `gorm:"uniqueIndex;size:64;not null" json:"public_id"`
	Name        string    `gorm:"size:200;not null" json:"name"`
	Description string    `gorm:"size:1000" json:"description"`
	AudioURL    string    `gorm:"size:1000;not null" json:"audio_url"`
	Recommended bool      `gorm:"default:false" json:"recommended"`
	Final       bool      `gorm:"default:false" json:"final"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// Feedback is one client comment tied to a reviewed Version. Immutable once
// created. VersionPublicID may be empty when the client submitted before
// selecting a version.
type Feedback struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ProjectID       uint      `gorm:"index;not null" json:"project_id"`
	VersionPublicID string    `gorm:"size:64" json:"version_public_id"`
	Content         string    `gorm:"type:text" json:"content"`
	CreatedAt       time.Time `json:"created_at"`
}

// HistoryEntry is an append-only audit record of a mutating action on a
// Project. Payload carries structured JSON describing the action.
type HistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"index;not null" json:"project_id"`
	Action    string    `gorm:"size:100;not null" json:"action"`
	Payload   string    `gorm:"type:text" json:"payload"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Project) TableName() string      { return "projects" }
func (Version) TableName() string      { return "versions" }
func (Feedback) TableName() string     { return "feedbacks" }
func (HistoryEntry) TableName() string { return "history_entries" }
