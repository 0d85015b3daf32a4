package services

import (
	"errors"

	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// ChannelService manages the webhook targets that receive workflow events.
type ChannelService struct {
	db *gorm.DB
}

func NewChannelService(db *gorm.DB) *ChannelService {
	return &ChannelService{db: db}
}

type ChannelListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Name     string `form:"name"`
	Type     string `form:"type"`
	IsActive *bool  `form:"is_active"`
}

type ChannelListResponse struct {
	Total    int64                        `json:"total"`
	Page     int                          `json:"page"`
	PageSize int                          `json:"page_size"`
	Items    []models.NotificationChannel `json:"items"`
}

type CreateChannelRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=slack discord whatsapp generic"`
	Webhook  string `json:"webhook" binding:"required"`
	Secret   string `json:"secret"`
	IsActive bool   `json:"is_active"`
}

type UpdateChannelRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type" binding:"omitempty,oneof=slack discord whatsapp generic"`
	Webhook  string `json:"webhook"`
	Secret   string `json:"secret"`
	IsActive *bool  `json:"is_active"`
}

func (s *ChannelService) List(req *ChannelListRequest) (*ChannelListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 10
	}

	var channels []models.NotificationChannel
	var total int64

	query := s.db.Model(&models.NotificationChannel{})

	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&channels).Error; err != nil {
		return nil, err
	}

	return &ChannelListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    channels,
	}, nil
}

func (s *ChannelService) GetByID(id uint) (*models.NotificationChannel, error) {
	var channel models.NotificationChannel
	if err := s.db.First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("notification channel not found")
		}
		return nil, err
	}
	return &channel, nil
}

func (s *ChannelService) Create(req *CreateChannelRequest) (*models.NotificationChannel, error) {
	channel := models.NotificationChannel{
		Name:     req.Name,
		Type:     req.Type,
		Webhook:  req.Webhook,
		Secret:   req.Secret,
		IsActive: req.IsActive,
	}

	if err := s.db.Create(&channel).Error; err != nil {
		return nil, err
	}

	return &channel, nil
}

func (s *ChannelService) Update(id uint, req *UpdateChannelRequest) (*models.NotificationChannel, error) {
	var channel models.NotificationChannel
	if err := s.db.First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("notification channel not found")
		}
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}
	if req.Webhook != "" {
		updates["webhook"] = req.Webhook
	}
	if req.Secret != "" {
		updates["secret"] = req.Secret
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.Model(&channel).Updates(updates).Error; err != nil {
		return nil, err
	}

	s.db.First(&channel, id)
	return &channel, nil
}

func (s *ChannelService) Delete(id uint) error {
	result := s.db.Delete(&models.NotificationChannel{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return response.NewNotFound("notification channel not found")
	}
	return nil
}
