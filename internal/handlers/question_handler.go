package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

// maxImportSize bounds an uploaded workbook
const maxImportSize = 10 << 20

type QuestionHandler struct {
	BaseHandler
	service services.QuestionService
}

func NewQuestionHandler(service services.QuestionService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListQuestions lists active pool items
// @Summary List questions
// @Tags questions
// @Produce json
// @Param subject query []string false "Subjects"
// @Param system query []string false "Systems"
// @Param difficulty query []string false "easy, medium or hard"
// @Param specialty_id query []string false "Specialties"
// @Param topic query string false "Topic"
// @Param sort_by query string false "id, subject, system, topic, difficulty or created_at"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} services.QuestionListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var query services.QuestionListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.service.List(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CountAvailableQuestions counts active items matching a filter
// @Summary Count available questions
// @Tags questions
// @Produce json
// @Success 200 {object} services.AvailabilityResponse
// @Router /questions/available [get]
func (h *QuestionHandler) CountAvailableQuestions(c *gin.Context) {
	var query services.QuestionListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.service.CountAvailable(c.Request.Context(), &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateQuestionsBatch adds pool items, all or none
// @Summary Create questions
// @Tags questions
// @Accept json
// @Produce json
// @Param request body services.CreateQuestionBatchRequest true "Questions"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions/batch [post]
func (h *QuestionHandler) CreateQuestionsBatch(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateQuestionBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating questions", "user_id", userID, "count", len(req.Questions))

	questions, err := h.service.CreateBatch(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"questions": questions,
		"created":   len(questions),
	})
}

// SetQuestionActive activates or deactivates a pool item
// @Summary Set question availability
// @Description Inactive items are never drawn into new sessions
// @Tags questions
// @Accept json
// @Produce json
// @Param id path int true "Question ID"
// @Param request body services.SetQuestionActiveRequest true "Availability"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id}/active [patch]
func (h *QuestionHandler) SetQuestionActive(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SetQuestionActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Setting question availability", "question_id", id)

	question, err := h.service.SetActive(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ImportQuestions reads pool items from an uploaded xlsx sheet
// @Summary Import questions
// @Description First sheet, header row then one question per row. Nothing is stored when any row is invalid.
// @Tags questions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 201 {object} services.ImportResult
// @Failure 422 {object} services.ImportResult "Rows rejected"
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing import file",
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable import file"})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions", "user_id", userID, "filename", header.Filename, "size", header.Size)

	result, err := h.service.Import(c.Request.Context(), file, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if len(result.Errors) > 0 {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}
