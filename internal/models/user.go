package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is read from the identity provider; this service does not own it
type User struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`

	AvatarURL     *string `json:"avatar_url"`
	EmailVerified bool    `json:"email_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
