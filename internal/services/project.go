package services

import (
	"errors"

	"github.com/sonorastudio/backend/internal/models"
	"gorm.io/gorm"
)

// ProjectAdminService backs the administrative console: listing, searching
// and deleting engagements. Mutations of the review lifecycle live in
// WorkflowService.
type ProjectAdminService struct {
	db    *gorm.DB
	cache ProjectCache
}

func NewProjectAdminService(db *gorm.DB, cache ProjectCache) *ProjectAdminService {
	if cache == nil {
		cache = NopProjectCache()
	}
	return &ProjectAdminService{db: db, cache: cache}
}

type ProjectListRequest struct {
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	ClientName  string `form:"client_name"`
	PackageTier string `form:"package_tier"`
	Status      string `form:"status"`
}

type ProjectListResponse struct {
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Items    []models.Project `json:"items"`
}

// List returns paginated projects for the console overview.
func (s *ProjectAdminService) List(req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var projects []models.Project
	var total int64

	query := s.db.Model(&models.Project{})

	if req.ClientName != "" {
		query = query.Where("client_name LIKE ?", "%"+req.ClientName+"%")
	}
	if req.PackageTier != "" {
		query = query.Where("package_tier = ?", req.PackageTier)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return &ProjectListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    projects,
	}, nil
}

// Delete soft-deletes a project. The soft delete also invalidates any
// outstanding client link: deleted projects no longer resolve, so a
// well-formed preview token decodes but the lookup reports not found.
func (s *ProjectAdminService) Delete(publicID string) error {
	var project models.Project
	if err := s.db.Where("public_id = ?", publicID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}

	if err := s.db.Delete(&project).Error; err != nil {
		return err
	}

	s.cache.Invalidate(publicID)
	return nil
}

// Stats summarises the pipeline for the console dashboard.
type ProjectStats struct {
	Total    int64 `json:"total"`
	Waiting  int64 `json:"waiting"`
	Feedback int64 `json:"feedback"`
	Approved int64 `json:"approved"`
}

func (s *ProjectAdminService) Stats() (*ProjectStats, error) {
	var stats ProjectStats

	if err := s.db.Model(&models.Project{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	s.db.Model(&models.Project{}).Where("status = ?", models.StatusWaiting).Count(&stats.Waiting)
	s.db.Model(&models.Project{}).Where("status = ?", models.StatusFeedback).Count(&stats.Feedback)
	s.db.Model(&models.Project{}).Where("status = ?", models.StatusApproved).Count(&stats.Approved)

	return &stats, nil
}
