package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// PortfolioHandler serves the public showcase and its admin CRUD.
type PortfolioHandler struct {
	portfolioService *services.PortfolioService
}

func NewPortfolioHandler(db *gorm.DB) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: services.NewPortfolioService(db),
	}
}

// ListPublished returns the public showcase
// GET /api/portfolio
func (h *PortfolioHandler) ListPublished(c *gin.Context) {
	items, err := h.portfolioService.ListPublished()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, items)
}

// ListAll returns every item including drafts
// GET /api/admin/portfolio
func (h *PortfolioHandler) ListAll(c *gin.Context) {
	items, err := h.portfolioService.ListAll()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, items)
}

// Create adds a portfolio item
// POST /api/admin/portfolio
func (h *PortfolioHandler) Create(c *gin.Context) {
	var req services.CreatePortfolioItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.portfolioService.Create(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, item)
}

// Update edits a portfolio item
// PUT /api/admin/portfolio/:id
func (h *PortfolioHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid portfolio item id")
		return
	}

	var req services.UpdatePortfolioItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	item, err := h.portfolioService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, item)
}

// Delete removes a portfolio item
// DELETE /api/admin/portfolio/:id
func (h *PortfolioHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid portfolio item id")
		return
	}

	if err := h.portfolioService.Delete(uint(id)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "portfolio item deleted"})
}
