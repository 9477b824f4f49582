package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// UpsertModuleProgress sets the completion of one learning module
// @Summary Update module progress
// @Tags progress
// @Accept json
// @Produce json
// @Param module_id path string true "Module ID"
// @Param request body services.ModuleProgressRequest true "Completion percent"
// @Success 200 {object} models.ModuleProgress
// @Router /progress/modules/{module_id} [put]
func (h *ProgressHandler) UpsertModuleProgress(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.ModuleProgressRequest
	if !h.bindJSON(c, &req) {
		return
	}

	progress, err := h.service.UpsertModule(c.Request.Context(), userID, c.Param("module_id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// ListProgress lists module completion and the resulting coverage
// @Summary List module progress
// @Tags progress
// @Produce json
// @Success 200 {object} services.ProgressResponse
// @Router /progress [get]
func (h *ProgressHandler) ListProgress(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
