package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sonorastudio/backend/internal/services"
	"github.com/sonorastudio/backend/pkg/response"
)

// VersionHandler manages the candidate renderings attached to a project.
type VersionHandler struct {
	workflow *services.WorkflowService
}

func NewVersionHandler(workflow *services.WorkflowService) *VersionHandler {
	return &VersionHandler{workflow: workflow}
}

// Add appends one version to a project
// POST /api/projects/:id/versions
func (h *VersionHandler) Add(c *gin.Context) {
	var req services.AddVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	version, err := h.workflow.AddVersion(c.Param("id"), &req)
	if err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	response.Created(c, version)
}

type addVersionBatchRequest struct {
	Versions []services.AddVersionRequest `json:"versions" binding:"required"`
}

// AddBatch appends several versions in list order. Invalid entries are
// dropped rather than failing the whole batch.
// POST /api/projects/:id/versions/batch
func (h *VersionHandler) AddBatch(c *gin.Context) {
	var req addVersionBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	added, err := h.workflow.AddVersionBatch(c.Param("id"), req.Versions)
	if err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	response.Created(c, gin.H{
		"added": added,
		"count": len(added),
	})
}

// Delete removes a version. Deleting an unknown version succeeds quietly.
// DELETE /api/projects/:id/versions/:versionId
func (h *VersionHandler) Delete(c *gin.Context) {
	if err := h.workflow.DeleteVersion(c.Param("id"), c.Param("versionId")); err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "version removed"})
}

func (h *VersionHandler) writeWorkflowError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		response.NotFound(c, "project not found")
	case errors.Is(err, services.ErrVersionNotFound):
		response.NotFound(c, "version not found")
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	default:
		response.ServerError(c, err.Error())
	}
}
