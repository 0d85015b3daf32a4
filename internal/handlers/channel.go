package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// ChannelHandler manages notification channel targets.
type ChannelHandler struct {
	channelService *services.ChannelService
}

func NewChannelHandler(db *gorm.DB) *ChannelHandler {
	return &ChannelHandler{
		channelService: services.NewChannelService(db),
	}
}

// List returns paginated channels
// GET /api/channels
func (h *ChannelHandler) List(c *gin.Context) {
	var req services.ChannelListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.channelService.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// Create registers a webhook channel
// POST /api/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	var req services.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	channel, err := h.channelService.Create(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, channel)
}

// Update edits a channel
// PUT /api/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid channel id")
		return
	}

	var req services.UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	channel, err := h.channelService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, channel)
}

// Delete removes a channel
// DELETE /api/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid channel id")
		return
	}

	if err := h.channelService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "channel deleted"})
}
