package services

import (
	"errors"

	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

type PortfolioService struct {
	db *gorm.DB
}

func NewPortfolioService(db *gorm.DB) *PortfolioService {
	return &PortfolioService{db: db}
}

type CreatePortfolioItemRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	AudioURL    string `json:"audio_url" binding:"required"`
	CoverURL    string `json:"cover_url"`
	Published   bool   `json:"published"`
	SortOrder   int    `json:"sort_order"`
}

type UpdatePortfolioItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	AudioURL    string `json:"audio_url"`
	CoverURL    string `json:"cover_url"`
	Published   *bool  `json:"published"`
	SortOrder   *int   `json:"sort_order"`
}

// ListPublished returns published items for the marketing site, in the order
// the studio arranged them.
func (s *PortfolioService) ListPublished() ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	err := s.db.Where("published = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	return items, err
}

// ListAll returns every item for the admin console.
func (s *PortfolioService) ListAll() ([]models.PortfolioItem, error) {
	var items []models.PortfolioItem
	err := s.db.Order("sort_order ASC, id ASC").Find(&items).Error
	return items, err
}

func (s *PortfolioService) GetByID(id uint) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("portfolio item not found")
		}
		return nil, err
	}
	return &item, nil
}

func (s *PortfolioService) Create(req *CreatePortfolioItemRequest) (*models.PortfolioItem, error) {
	item := models.PortfolioItem{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		AudioURL:    req.AudioURL,
		CoverURL:    req.CoverURL,
		Published:   req.Published,
		SortOrder:   req.SortOrder,
	}

	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *PortfolioService) Update(id uint, req *UpdatePortfolioItemRequest) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := s.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("portfolio item not found")
		}
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Genre != "" {
		updates["genre"] = req.Genre
	}
	if req.AudioURL != "" {
		updates["audio_url"] = req.AudioURL
	}
	if req.CoverURL != "" {
		updates["cover_url"] = req.CoverURL
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}

	if err := s.db.Model(&item).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *PortfolioService) Delete(id uint) error {
	result := s.db.Delete(&models.PortfolioItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("portfolio item not found")
	}
	return nil
}
