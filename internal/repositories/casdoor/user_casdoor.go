package casdoor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/prep-service/internal/cache"
	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// userFetcher is the part of the Casdoor client used here
type userFetcher interface {
	GetUserByUserId(userId string) (*casdoorsdk.User, error)
}

type UserCasdoor struct {
	client userFetcher
	cache  *cache.CacheHelper
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return newUserCasdoor(client, redisClient)
}

func newUserCasdoor(client userFetcher, redisClient *redis.Client) *UserCasdoor {
	return &UserCasdoor{
		client: client,
		cache:  cache.NewCacheManager(redisClient).User,
	}
}

// GetByID retrieves a user by ID, cached for cache.UserCacheConfig.TTL
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	return cache.GetOrLoad(ctx, u.cache, fmt.Sprintf("id:%s", id), cache.UserCacheConfig.TTL, func() (*models.User, error) {
		casdoorUser, err := u.client.GetUserByUserId(id)
		if err != nil {
			return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
		}
		if casdoorUser == nil {
			return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
		}
		return convertCasdoorUserToModel(casdoorUser), nil
	})
}

// ===== CONVERSION =====

func convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	var createdAt, updatedAt time.Time
	if casdoorUser.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, casdoorUser.CreatedTime)
	}
	if casdoorUser.UpdatedTime != "" {
		updatedAt, _ = time.Parse(time.RFC3339, casdoorUser.UpdatedTime)
	}

	var avatar *string
	if casdoorUser.Avatar != "" {
		avatar = &casdoorUser.Avatar
	}

	return &models.User{
		ID:            casdoorUser.Id,
		FullName:      casdoorUser.DisplayName,
		Email:         casdoorUser.Email,
		Role:          convertCasdoorRolesToModel(casdoorUser),
		AvatarURL:     avatar,
		EmailVerified: casdoorUser.EmailVerified,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}
}

// convertCasdoorRolesToModel picks the primary role; admin wins over everything
func convertCasdoorRolesToModel(casdoorUser *casdoorsdk.User) models.UserRole {
	var roles []models.UserRole
	for _, casdoorRole := range casdoorUser.Roles {
		if casdoorRole == nil {
			continue
		}
		mapped := MapRole(casdoorRole.Name)
		if !slices.Contains(roles, mapped) {
			roles = append(roles, mapped)
		}
	}

	if slices.Contains(roles, models.RoleAdmin) || casdoorUser.IsAdmin {
		return models.RoleAdmin
	}
	if len(roles) == 0 {
		return models.RoleStudent
	}
	return roles[0]
}

// MapRole maps a Casdoor role name onto a service role, student by default
func MapRole(name string) models.UserRole {
	switch strings.ToLower(name) {
	case "teacher", "instructor", "author":
		return models.RoleTeacher
	case "admin", "administrator":
		return models.RoleAdmin
	default:
		return models.RoleStudent
	}
}
