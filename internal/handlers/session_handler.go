package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	service services.SessionService
}

func NewSessionHandler(service services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateSession starts a practice session
// @Summary Create practice session
// @Description Select questions from the active pool by filter and start a session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.CreateSessionRequest true "Session settings"
// @Success 201 {object} services.SessionCreateResponse
// @Success 200 {object} services.SessionCreateResponse "No question matches the filters"
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating practice session", "user_id", userID, "mode", req.Mode, "count", req.QuestionCount)

	resp, err := h.service.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if !resp.Available {
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListSessions lists the caller's sessions
// @Summary List practice sessions
// @Tags sessions
// @Produce json
// @Param status query string false "in_progress, completed or abandoned"
// @Param mode query string false "tutor or timed"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.SessionListResponse
// @Router /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query services.SessionListQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.service.List(c.Request.Context(), &query, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSession resumes a session
// @Summary Get practice session
// @Description Fixed question order with per-question state. Answers stay masked until revealed.
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoToQuestion moves the session cursor
// @Summary Navigate to question
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.NavigateRequest true "Target index"
// @Success 200 {object} services.SessionQuestionView
// @Router /sessions/{id}/position [put]
func (h *SessionHandler) GoToQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.NavigateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.service.GoTo(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AnswerQuestion selects and optionally submits an answer
// @Summary Answer question
// @Description Selects an option and, unless submit is false, locks and grades it
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param request body services.AnswerRequest true "Answer"
// @Success 200 {object} services.AnswerResponse
// @Failure 409 {object} ErrorResponse "Session not in progress"
// @Failure 410 {object} ErrorResponse "Time limit exceeded"
// @Router /sessions/{id}/questions/{question_id}/answer [post]
func (h *SessionHandler) AnswerQuestion(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.AnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Answer(c.Request.Context(), c.Param("id"), questionID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ToggleFlag flags or unflags a question
// @Summary Toggle flag
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Success 200 {object} models.SessionQuestionState
// @Router /sessions/{id}/questions/{question_id}/flag [post]
func (h *SessionHandler) ToggleFlag(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	state, err := h.service.ToggleFlag(c.Request.Context(), c.Param("id"), questionID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ToggleStrikethrough strikes or restores an option
// @Summary Toggle strikethrough
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param request body services.StrikethroughRequest true "Option index"
// @Success 200 {object} models.SessionQuestionState
// @Router /sessions/{id}/questions/{question_id}/strikethrough [post]
func (h *SessionHandler) ToggleStrikethrough(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.StrikethroughRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.service.ToggleStrikethrough(c.Request.Context(), c.Param("id"), questionID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// AddHighlight stores a highlighted range of the stem
// @Summary Add highlight
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param request body services.HighlightRequest true "Range"
// @Success 200 {object} models.SessionQuestionState
// @Router /sessions/{id}/questions/{question_id}/highlights [post]
func (h *SessionHandler) AddHighlight(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.HighlightRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.service.AddHighlight(c.Request.Context(), c.Param("id"), questionID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// AddTime adds time spent on a question
// @Summary Add time spent
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param question_id path int true "Question ID"
// @Param request body services.AddTimeRequest true "Seconds"
// @Success 200 {object} models.SessionQuestionState
// @Router /sessions/{id}/questions/{question_id}/time [post]
func (h *SessionHandler) AddTime(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	questionID, ok := h.parseIDParam(c, "question_id")
	if !ok {
		return
	}

	var req services.AddTimeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	state, err := h.service.AddTime(c.Request.Context(), c.Param("id"), questionID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// CompleteSession scores the session and records an attempt
// @Summary Complete practice session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionSummaryResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/complete [post]
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Completing practice session", "user_id", userID, "session_id", c.Param("id"))

	resp, err := h.service.Complete(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AbandonSession ends the session without scoring it
// @Summary Abandon practice session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.PracticeSession
// @Router /sessions/{id}/abandon [post]
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := h.service.Abandon(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
