package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/config"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
	"gorm.io/gorm"
)

// ProjectHandler is the admin console surface for engagements: listing,
// creation, deadline control and preview link issuance.
type ProjectHandler struct {
	workflow *services.WorkflowService
	admin    *services.ProjectAdminService
	baseURL  string
}

func NewProjectHandler(db *gorm.DB, workflow *services.WorkflowService, cache services.ProjectCache, cfg *config.Config) *ProjectHandler {
	return &ProjectHandler{
		workflow: workflow,
		admin:    services.NewProjectAdminService(db, cache),
		baseURL:  strings.TrimRight(cfg.Server.BaseURL, "/"),
	}
}

// List returns paginated projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.admin.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// GetByID returns a project with versions, feedback and history
// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	project, err := h.workflow.GetProjectByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, project)
}

// Create opens a new engagement
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.workflow.CreateProject(&req)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			response.BadRequest(c, vErr.Error())
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Created(c, project)
}

// Delete soft-deletes a project, which also invalidates its client link
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.admin.Delete(c.Param("id")); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "project deleted"})
}

// Stats summarises the pipeline for the dashboard
// GET /api/projects/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, stats)
}

// PreviewLink issues the client-facing preview URL for a project
// GET /api/projects/:id/link
func (h *ProjectHandler) PreviewLink(c *gin.Context) {
	projectID := c.Param("id")

	// Confirm the project resolves before handing out a link
	if _, err := h.workflow.GetProjectByID(projectID); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	token := services.EncodePreviewToken(projectID)
	response.Success(c, gin.H{
		"token": token,
		"url":   h.baseURL + "/p/" + token,
	})
}

type extendDeadlineRequest struct {
	Days int `json:"days"`
}

// ExtendDeadline pushes the review window out from its current expiry
// POST /api/projects/:id/extend
func (h *ProjectHandler) ExtendDeadline(c *gin.Context) {
	var req extendDeadlineRequest
	// Empty body means the configured default extension
	_ = c.ShouldBindJSON(&req)

	newExpiry, err := h.workflow.ExtendDeadline(c.Param("id"), req.Days)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "project not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"expires_at": newExpiry})
}
