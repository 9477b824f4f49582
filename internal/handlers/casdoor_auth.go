package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/prep-service/internal/config"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
	"github.com/SAP-F-2025/prep-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/prep-service/internal/utils"
)

// TokenParser validates a bearer token and returns its claims.
// *casdoorsdk.Client satisfies it.
type TokenParser interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorAuthMiddleware provides authentication using Casdoor SDK
type CasdoorAuthMiddleware struct {
	parser   TokenParser
	userRepo repositories.UserRepository
	logger   utils.Logger
}

// NewCasdoorAuthMiddleware creates a new Casdoor authentication middleware
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return NewAuthMiddleware(client, userRepo, logger)
}

// NewAuthMiddleware builds the middleware around any token parser
func NewAuthMiddleware(parser TokenParser, userRepo repositories.UserRepository, logger utils.Logger) *CasdoorAuthMiddleware {
	return &CasdoorAuthMiddleware{
		parser:   parser,
		userRepo: userRepo,
		logger:   logger,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": err.Error(),
			})
			return
		}

		claims, err := cam.parser.ParseJwtToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("invalid token: %v", err),
			})
			return
		}

		user, err := cam.extractUserFromClaims(c, claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": fmt.Sprintf("failed to extract user info: %v", err),
			})
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireRoleMiddleware checks if user has required role. Admins always pass.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": err.Error(),
			})
			return
		}

		if role != models.RoleAdmin && !containsRole(requiredRoles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			return
		}

		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return parts[1], nil
}

func containsRole(roles []models.UserRole, role models.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func setUser(c *gin.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", user.Role)
	c.Set("user_email", user.Email)
}

// extractUserFromClaims prefers the stored profile and falls back to the token
func (cam *CasdoorAuthMiddleware) extractUserFromClaims(c *gin.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	userID := claims.Id
	if userID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	user, err := cam.lookupUser(c.Request.Context(), userID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			utils.GetLogger(c, cam.logger).Warn("User lookup failed, using token claims",
				"user_id", userID, "error", err)
		}
		user = createUserFromClaims(claims)
	}
	return user, nil
}

func (cam *CasdoorAuthMiddleware) lookupUser(ctx context.Context, userID string) (*models.User, error) {
	if cam.userRepo == nil {
		return nil, repositories.ErrNotFound
	}
	return cam.userRepo.GetByID(ctx, userID)
}

// createUserFromClaims creates a user model from JWT claims
func createUserFromClaims(claims *casdoorsdk.Claims) *models.User {
	role := casdoor.MapRole(claims.User.Type)
	if claims.User.IsAdmin {
		role = models.RoleAdmin
	}

	var avatarURL *string
	if claims.User.Avatar != "" {
		avatar := claims.User.Avatar
		avatarURL = &avatar
	}

	now := time.Now().UTC()
	return &models.User{
		ID:            claims.Id,
		FullName:      claims.User.DisplayName,
		Email:         claims.User.Email,
		Role:          role,
		AvatarURL:     avatarURL,
		EmailVerified: claims.User.EmailVerified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get("user_role")
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}
