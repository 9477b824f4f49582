package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
}

func NewUserHandler(logger utils.Logger) *UserHandler {
	return &UserHandler{BaseHandler: NewBaseHandler(logger)}
}

// GetCurrentUser returns the caller's profile
// @Summary Current user
// @Description Profile from the identity provider, or from the token when the provider has no record
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := GetUserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}
	c.JSON(http.StatusOK, user)
}
