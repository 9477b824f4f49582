package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
	"github.com/SAP-F-2025/prep-service/internal/validator"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// BaseHandler carries what every handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	args = append(args, "error", err)
	utils.GetLogger(c, h.logger).Error(msg, args...)
}

// currentUserID returns the authenticated user id or writes a 401
func (h *BaseHandler) currentUserID(c *gin.Context) (string, bool) {
	userID, err := GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return userID, true
}

// parseIDParam parses a positive integer path parameter or writes a 400
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name,
			Details: c.Param(name),
		})
		return 0, false
	}
	return uint(id), true
}

// bindJSON decodes the body or writes a 400
func (h *BaseHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// bindQuery decodes query parameters or writes a 400
func (h *BaseHandler) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Session not found"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrSessionAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied to session"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
	case errors.Is(err, services.ErrSessionTimeExpired):
		c.JSON(http.StatusGone, ErrorResponse{Message: "Session time limit exceeded; the session was completed"})
	case errors.Is(err, services.ErrSessionNotActive):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Session is not in progress"})
	case errors.Is(err, services.ErrAnswerLocked):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Answer already submitted"})
	case errors.Is(err, services.ErrQuestionNotInSession):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Question is not part of this session"})
	case services.IsInputError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
