package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/prep-service/internal/models"
	"github.com/SAP-F-2025/prep-service/internal/repositories"
)

type fakeFetcher struct {
	users map[string]*casdoorsdk.User
	err   error
	calls int
}

func (f *fakeFetcher) GetUserByUserId(id string) (*casdoorsdk.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func TestMapRole(t *testing.T) {
	tests := []struct {
		name string
		want models.UserRole
	}{
		{"student", models.RoleStudent},
		{"Instructor", models.RoleTeacher},
		{"teacher", models.RoleTeacher},
		{"ADMIN", models.RoleAdmin},
		{"proctor", models.RoleStudent},
		{"", models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapRole(tt.name))
		})
	}
}

func TestConvertCasdoorRolesToModel(t *testing.T) {
	assert.Equal(t, models.RoleStudent, convertCasdoorRolesToModel(&casdoorsdk.User{}))
	assert.Equal(t, models.RoleAdmin, convertCasdoorRolesToModel(&casdoorsdk.User{IsAdmin: true}))
	assert.Equal(t, models.RoleAdmin, convertCasdoorRolesToModel(&casdoorsdk.User{
		Roles: []*casdoorsdk.Role{{Name: "teacher"}, {Name: "admin"}},
	}))
	assert.Equal(t, models.RoleTeacher, convertCasdoorRolesToModel(&casdoorsdk.User{
		Roles: []*casdoorsdk.Role{nil, {Name: "teacher"}, {Name: "student"}},
	}))
}

func TestUserCasdoor_GetByIDCachesResult(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	fetcher := &fakeFetcher{users: map[string]*casdoorsdk.User{
		"u-1": {Id: "u-1", DisplayName: "Ada", Email: "ada@example.com", CreatedTime: "2026-01-02T03:04:05Z"},
	}}
	repo := newUserCasdoor(fetcher, client)

	user, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FullName)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Nil(t, user.AvatarURL)
	assert.Equal(t, 2026, user.CreatedAt.Year())

	again, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, user.Email, again.Email)
	assert.Equal(t, 1, fetcher.calls)
	assert.True(t, mr.Exists("user:id:u-1"))
}

func TestUserCasdoor_GetByIDErrors(t *testing.T) {
	repo := newUserCasdoor(&fakeFetcher{}, nil)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, repositories.IsNotFoundError(err))

	boom := errors.New("unreachable")
	repo = newUserCasdoor(&fakeFetcher{err: boom}, nil)
	_, err = repo.GetByID(context.Background(), "u-1")
	assert.ErrorIs(t, err, boom)
}
