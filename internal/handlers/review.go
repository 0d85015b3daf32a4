package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/models"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
)

// ReviewHandler is the client-facing preview surface. Clients reach it
// through opaque link tokens, never through raw project IDs, and it carries
// no authentication: the token is the capability.
type ReviewHandler struct {
	workflow *services.WorkflowService
}

func NewReviewHandler(workflow *services.WorkflowService) *ReviewHandler {
	return &ReviewHandler{workflow: workflow}
}

// clientVersion is the version shape exposed to clients.
type clientVersion struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AudioURL    string `json:"audio_url"`
	Recommended bool   `json:"recommended"`
	Final       bool   `json:"final"`
}

// clientProject trims the project to what the preview page needs. Client
// contact data and the internal history stay server-side.
type clientProject struct {
	Title      string          `json:"title"`
	ClientName string          `json:"client_name"`
	Status     string          `json:"status"`
	ExpiresAt  time.Time       `json:"expires_at"`
	Expired    bool            `json:"expired"`
	Versions   []clientVersion `json:"versions"`
}

func toClientProject(p *models.Project) *clientProject {
	view := &clientProject{
		Title:      p.Title,
		ClientName: p.ClientName,
		Status:     p.Status,
		ExpiresAt:  p.ExpiresAt,
		Expired:    time.Now().After(p.ExpiresAt),
		Versions:   make([]clientVersion, 0, len(p.Versions)),
	}
	for i := range p.Versions {
		v := &p.Versions[i]
		view.Versions = append(view.Versions, clientVersion{
			ID:          v.PublicID,
			Name:        v.Name,
			Description: v.Description,
			AudioURL:    v.AudioURL,
			Recommended: v.Recommended,
			Final:       v.Final,
		})
	}
	return view
}

// resolveToken maps the link token onto a project public ID, writing the
// appropriate error response on failure. A malformed token and a vanished
// project are reported differently on purpose.
func (h *ReviewHandler) resolveToken(c *gin.Context) (string, bool) {
	projectID, err := services.DecodePreviewToken(c.Param("token"))
	if err != nil {
		response.BadRequest(c, "link de prévia inválido")
		return "", false
	}
	return projectID, true
}

// GetPreview returns the preview page data for a link token
// GET /p/:token
func (h *ReviewHandler) GetPreview(c *gin.Context) {
	projectID, ok := h.resolveToken(c)
	if !ok {
		return
	}

	project, err := h.workflow.GetProjectByID(projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "projeto não encontrado")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, toClientProject(project))
}

type submitFeedbackRequest struct {
	VersionID string `json:"version_id"`
	Content   string `json:"content" binding:"required"`
}

// SubmitFeedback records a client comment
// POST /p/:token/feedback
func (h *ReviewHandler) SubmitFeedback(c *gin.Context) {
	projectID, ok := h.resolveToken(c)
	if !ok {
		return
	}

	var req submitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.workflow.SubmitFeedback(projectID, req.VersionID, req.Content); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			response.NotFound(c, "projeto não encontrado")
			return
		}
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"message": "feedback recebido"})
}

type approveRequest struct {
	VersionID string `json:"version_id" binding:"required"`
}

// Approve marks the project approved on the chosen version
// POST /p/:token/approve
func (h *ReviewHandler) Approve(c *gin.Context) {
	projectID, ok := h.resolveToken(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.workflow.ApproveVersion(projectID, req.VersionID); err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			response.NotFound(c, "projeto não encontrado")
		case errors.Is(err, services.ErrVersionNotFound):
			response.NotFound(c, "versão não encontrada")
		default:
			response.ServerError(c, err.Error())
		}
		return
	}

	response.Success(c, gin.H{"message": "prévia aprovada"})
}
