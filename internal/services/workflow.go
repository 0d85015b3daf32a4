package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/logger"
	"gorm.io/gorm"
)

// FinalVersionPrefix flags the delivery artifact in the version display name.
const FinalVersionPrefix = "Versão Final - "

// History actions appended by the workflow engine, one per mutating call.
const (
	ActionProjectCreated   = "project created"
	ActionVersionAdded     = "new version added"
	ActionFinalAdded       = "final version added"
	ActionVersionRemoved   = "version removed"
	ActionFeedbackReceived = "feedback received"
	ActionPreviewApproved  = "preview approved"
	ActionDeadlineExtended = "deadline extended"
)

// WorkflowService owns the review lifecycle of a commissioned project:
// version registration, status transitions, feedback capture and
// notification dispatch. Status moves only through these operations.
type WorkflowService struct {
	db       *gorm.DB
	cache    ProjectCache
	notifier Notifier
	cfg      *config.ReviewConfig
}

func NewWorkflowService(db *gorm.DB, cache ProjectCache, notifier Notifier, cfg *config.ReviewConfig) *WorkflowService {
	if cache == nil {
		cache = NopProjectCache()
	}
	return &WorkflowService{db: db, cache: cache, notifier: notifier, cfg: cfg}
}

type CreateProjectRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
	ClientPhone string `json:"client_phone"`
	PackageTier string `json:"package_tier" binding:"required"`
	Title       string `json:"title"`
}

type AddVersionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AudioURL    string `json:"audio_url"`
	Recommended bool   `json:"recommended"`
	Final       bool   `json:"final"`
}

// CreateProject opens a new engagement in waiting status with an empty
// version/feedback/history set and the configured review window.
func (s *WorkflowService) CreateProject(req *CreateProjectRequest) (*models.Project, error) {
	if req.ClientName == "" {
		return nil, newValidationError("client_name", "required")
	}
	if req.ClientEmail == "" {
		return nil, newValidationError("client_email", "required")
	}
	if !models.IsValidPackageTier(req.PackageTier) {
		return nil, newValidationError("package_tier", "must be one of the supported tiers")
	}

	now := time.Now()
	project := models.Project{
		PublicID:       uuid.NewString(),
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		PackageTier:    req.PackageTier,
		Title:          req.Title,
		Status:         models.StatusWaiting,
		ExpiresAt:      now.AddDate(0, 0, s.windowDays()),
		LastActivityAt: now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return appendHistory(tx, project.ID, ActionProjectCreated, map[string]interface{}{
			"package_tier": project.PackageTier,
			"expires_at":   project.ExpiresAt.Format(time.RFC3339),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.reload(project.PublicID)
}

// AddVersion appends a candidate rendering to the project. When the version
// is marked recommended, the flag is cleared on every sibling first so at
// most one recommendation exists after each addition.
func (s *WorkflowService) AddVersion(projectID string, req *AddVersionRequest) (*models.Version, error) {
	if req.Name == "" {
		return nil, newValidationError("name", "required")
	}
	if req.AudioURL == "" {
		return nil, newValidationError("audio_url", "required")
	}

	var created models.Version

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		name := req.Name
		action := ActionVersionAdded
		if req.Final {
			name = FinalVersionPrefix + name
			action = ActionFinalAdded
		}

		if req.Recommended {
			if err := tx.Model(&models.Version{}).
				Where("project_id = ?", project.ID).
				Update("recommended", false).Error; err != nil {
				return err
			}
		}

		created = models.Version{
			ProjectID:   project.ID,
			PublicID:    uuid.NewString(),
			Name:        name,
			Description: req.Description,
			AudioURL:    req.AudioURL,
			Recommended: req.Recommended,
			Final:       req.Final,
			Position:    len(project.Versions) + 1,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}

		if err := appendHistory(tx, project.ID, action, map[string]interface{}{
			"version_id": created.PublicID,
			"name":       created.Name,
		}); err != nil {
			return err
		}

		return touchActivity(tx, project.ID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(projectID)
	return &created, nil
}

// AddVersionBatch adds several versions in list order. Entries missing a name
// or audio URL are silently dropped; each survivor goes through the single-add
// path, so a later recommended entry overrides an earlier one in the batch.
func (s *WorkflowService) AddVersionBatch(projectID string, entries []AddVersionRequest) ([]models.Version, error) {
	var added []models.Version
	for i := range entries {
		entry := entries[i]
		if entry.Name == "" || entry.AudioURL == "" {
			continue
		}
		v, err := s.AddVersion(projectID, &entry)
		if err != nil {
			return added, err
		}
		added = append(added, *v)
	}
	return added, nil
}

// DeleteVersion removes a version from the project. A versionID that does not
// resolve is a silent no-op, preserved from the original product behavior.
func (s *WorkflowService) DeleteVersion(projectID, versionID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		version := findVersion(project, versionID)
		if version == nil {
			return nil
		}

		if err := tx.Delete(&models.Version{}, version.ID).Error; err != nil {
			return err
		}

		if err := appendHistory(tx, project.ID, ActionVersionRemoved, map[string]interface{}{
			"version_id": version.PublicID,
			"name":       version.Name,
		}); err != nil {
			return err
		}

		return touchActivity(tx, project.ID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(projectID)
	return nil
}

// SubmitFeedback records a client comment against a version and moves the
// project into feedback status. An already-approved project never re-enters
// feedback through this path; the comment is still recorded for the audit
// trail. Notification delivery is best-effort and never rolls the write back.
func (s *WorkflowService) SubmitFeedback(projectID, versionID, content string) error {
	var project *models.Project

	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}
		project = p

		feedback := models.Feedback{
			ProjectID:       p.ID,
			VersionPublicID: versionID,
			Content:         content,
		}
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}

		if p.Status != models.StatusApproved && p.Status != models.StatusFeedback {
			if err := tx.Model(&models.Project{}).Where("id = ?", p.ID).
				Update("status", models.StatusFeedback).Error; err != nil {
				return err
			}
		}

		if err := appendHistory(tx, p.ID, ActionFeedbackReceived, map[string]interface{}{
			"version_id": versionID,
			"message":    content,
		}); err != nil {
			return err
		}

		return touchActivity(tx, p.ID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(projectID)
	s.notify(&WorkflowEvent{
		Kind:        KindFeedbackReceived,
		ProjectID:   project.PublicID,
		Title:       project.Title,
		ClientName:  project.ClientName,
		ClientEmail: project.ClientEmail,
		ClientPhone: project.ClientPhone,
		Message:     content,
		VersionID:   versionID,
	})
	return nil
}

// ApproveVersion marks the project approved. Approval is terminal for
// client-initiated transitions and idempotent on repeat calls.
func (s *WorkflowService) ApproveVersion(projectID, versionID string) error {
	var (
		project *models.Project
		version *models.Version
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		p, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}
		project = p

		version = findVersion(p, versionID)
		if version == nil {
			return ErrVersionNotFound
		}

		if err := tx.Model(&models.Project{}).Where("id = ?", p.ID).
			Update("status", models.StatusApproved).Error; err != nil {
			return err
		}

		if err := appendHistory(tx, p.ID, ActionPreviewApproved, map[string]interface{}{
			"version_id": version.PublicID,
			"name":       version.Name,
		}); err != nil {
			return err
		}

		return touchActivity(tx, p.ID)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(projectID)
	s.notify(&WorkflowEvent{
		Kind:        KindPreviewApproved,
		ProjectID:   project.PublicID,
		Title:       project.Title,
		ClientName:  project.ClientName,
		ClientEmail: project.ClientEmail,
		ClientPhone: project.ClientPhone,
		VersionID:   version.PublicID,
		VersionName: version.Name,
	})
	return nil
}

// ExtendDeadline advances the expiration from its current value, so repeated
// extensions compound even when granted after the window lapsed. days <= 0
// uses the configured default step.
func (s *WorkflowService) ExtendDeadline(projectID string, days int) (time.Time, error) {
	if days <= 0 {
		days = s.extensionDays()
	}

	var newExpiry time.Time

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := loadProject(tx, projectID)
		if err != nil {
			return err
		}

		newExpiry = project.ExpiresAt.AddDate(0, 0, days)
		if err := tx.Model(&models.Project{}).Where("id = ?", project.ID).
			Update("expires_at", newExpiry).Error; err != nil {
			return err
		}

		if err := appendHistory(tx, project.ID, ActionDeadlineExtended, map[string]interface{}{
			"days":       days,
			"expires_at": newExpiry.Format(time.RFC3339),
		}); err != nil {
			return err
		}

		return touchActivity(tx, project.ID)
	})
	if err != nil {
		return time.Time{}, err
	}

	s.cache.Invalidate(projectID)
	return newExpiry, nil
}

// GetProjectByID returns the full project with ordered versions, feedback and
// history. Reads go through the injected cache first.
func (s *WorkflowService) GetProjectByID(projectID string) (*models.Project, error) {
	if cached, ok := s.cache.Get(projectID); ok {
		return cached, nil
	}

	project, err := loadProject(s.db, projectID)
	if err != nil {
		return nil, err
	}

	s.cache.Put(projectID, project)
	return project, nil
}

// reload fetches the project fresh from the database, bypassing the cache.
func (s *WorkflowService) reload(projectID string) (*models.Project, error) {
	return loadProject(s.db, projectID)
}

func (s *WorkflowService) notify(event *WorkflowEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(event); err != nil {
		logger.Warnf("[Workflow] notification dispatch failed for %s: %v", event.Kind, err)
	}
}

func (s *WorkflowService) windowDays() int {
	if s.cfg != nil && s.cfg.WindowDays > 0 {
		return s.cfg.WindowDays
	}
	return 30
}

func (s *WorkflowService) extensionDays() int {
	if s.cfg != nil && s.cfg.ExtensionDays > 0 {
		return s.cfg.ExtensionDays
	}
	return 7
}

// loadProject fetches a project by public ID with its list-valued fields in
// insertion order.
func loadProject(db *gorm.DB, publicID string) (*models.Project, error) {
	var project models.Project
	err := db.Where("public_id = ?", publicID).
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		Preload("Feedbacks", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func findVersion(project *models.Project, versionID string) *models.Version {
	for i := range project.Versions {
		if project.Versions[i].PublicID == versionID {
			return &project.Versions[i]
		}
	}
	return nil
}

// appendHistory writes one audit entry; every mutating workflow operation
// goes through here exactly once.
func appendHistory(tx *gorm.DB, projectID uint, action string, payload map[string]interface{}) error {
	var count int64
	if err := tx.Model(&models.HistoryEntry{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return tx.Create(&models.HistoryEntry{
		ProjectID: projectID,
		Action:    action,
		Payload:   string(data),
		Position:  int(count) + 1,
	}).Error
}

func touchActivity(tx *gorm.DB, projectID uint) error {
	return tx.Model(&models.Project{}).Where("id = ?", projectID).
		Update("last_activity_at", time.Now()).Error
}
