package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/services"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

const serviceName = "prep-service"

type HandlerManager struct {
	sessionHandler    *SessionHandler
	predictionHandler *PredictionHandler
	attemptHandler    *AttemptHandler
	progressHandler   *ProgressHandler
	questionHandler   *QuestionHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
	logger            utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	authMiddleware *CasdoorAuthMiddleware,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		sessionHandler:    NewSessionHandler(serviceManager.Session(), logger),
		predictionHandler: NewPredictionHandler(serviceManager.Prediction(), serviceManager.Report(), logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), logger),
		progressHandler:   NewProgressHandler(serviceManager.Progress(), logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), logger),
		userHandler:       NewUserHandler(logger),
		authMiddleware:    authMiddleware,
		serviceManager:    serviceManager,
		logger:            logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.health)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		v1.GET("/users/me", hm.userHandler.GetCurrentUser)

		predictions := v1.Group("/predictions")
		{
			predictions.GET("/current", hm.predictionHandler.GetCurrentPrediction)
			predictions.GET("/history", hm.predictionHandler.GetPredictionHistory)
			predictions.GET("/history/export", hm.predictionHandler.ExportPredictionHistory)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.POST("", hm.attemptHandler.RecordAttempt)
		}

		progress := v1.Group("/progress")
		{
			progress.GET("", hm.progressHandler.ListProgress)
			progress.PUT("/modules/:module_id", hm.progressHandler.UpsertModuleProgress)
		}

		// Question pool. Reading is open to authors, writing is admin only.
		questions := v1.Group("/questions")
		{
			questions.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.questionHandler.ListQuestions)
			questions.GET("/available", hm.questionHandler.CountAvailableQuestions)
			questions.POST("/batch", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.CreateQuestionsBatch)
			questions.POST("/import", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.ImportQuestions)
			questions.PATCH("/:id/active", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.SetQuestionActive)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.PUT("/:id/position", hm.sessionHandler.GoToQuestion)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)
			sessions.POST("/:id/abandon", hm.sessionHandler.AbandonSession)

			// Per-question interaction
			sessions.POST("/:id/questions/:question_id/answer", hm.sessionHandler.AnswerQuestion)
			sessions.POST("/:id/questions/:question_id/flag", hm.sessionHandler.ToggleFlag)
			sessions.POST("/:id/questions/:question_id/strikethrough", hm.sessionHandler.ToggleStrikethrough)
			sessions.POST("/:id/questions/:question_id/highlights", hm.sessionHandler.AddHighlight)
			sessions.POST("/:id/questions/:question_id/time", hm.sessionHandler.AddTime)
		}
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.serviceManager.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": serviceName,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}
