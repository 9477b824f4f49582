package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	service services.AttemptService
}

func NewAttemptHandler(service services.AttemptService, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListAttempts lists the caller's attempt history
// @Summary List attempts
// @Description Completed practice sessions and recorded assessments, newest first
// @Tags attempts
// @Produce json
// @Param source query string false "practice_session or assessment"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AttemptListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query services.AttemptListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordAttempt stores an assessment completed elsewhere
// @Summary Record attempt
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body services.RecordAttemptRequest true "Attempt"
// @Success 201 {object} models.AttemptRecord
// @Failure 400 {object} ErrorResponse
// @Router /attempts [post]
func (h *AttemptHandler) RecordAttempt(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.RecordAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Recording attempt", "user_id", userID, "total", req.TotalQuestions)

	attempt, err := h.service.Record(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}
