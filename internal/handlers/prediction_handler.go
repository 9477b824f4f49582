package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PredictionHandler struct {
	BaseHandler
	service services.PredictionService
	reports services.ReportService
}

func NewPredictionHandler(service services.PredictionService, reports services.ReportService, logger utils.Logger) *PredictionHandler {
	return &PredictionHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		reports:     reports,
	}
}

// GetCurrentPrediction projects today's scores
// @Summary Current score prediction
// @Description Aggregates the caller's history, projects Step 1 and Step 2 CK scores and stores today's snapshot
// @Tags predictions
// @Produce json
// @Success 200 {object} services.PredictionResponse
// @Failure 401 {object} ErrorResponse
// @Router /predictions/current [get]
func (h *PredictionHandler) GetCurrentPrediction(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Computing prediction", "user_id", userID)

	resp, err := h.service.Current(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetPredictionHistory lists stored snapshots
// @Summary Prediction history
// @Tags predictions
// @Produce json
// @Param days query int false "Window in days (default 30, max 365)"
// @Success 200 {object} services.PredictionHistoryResponse
// @Router /predictions/history [get]
func (h *PredictionHandler) GetPredictionHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query services.HistoryQuery
	if !h.bindQuery(c, &query) {
		return
	}

	resp, err := h.service.History(c.Request.Context(), userID, &query)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportPredictionHistory downloads snapshots and attempts as a workbook
// @Summary Export prediction history
// @Tags predictions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param days query int false "Window in days (default 30, max 365)"
// @Success 200 {file} file
// @Router /predictions/history/export [get]
func (h *PredictionHandler) ExportPredictionHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var query services.HistoryQuery
	if !h.bindQuery(c, &query) {
		return
	}

	// buffered so a failed export can still answer with a JSON error
	var buf bytes.Buffer
	if err := h.reports.ExportHistory(c.Request.Context(), userID, &query, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("prediction-history-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
