package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/your-org/familytree/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type UserResponse struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	Role        models.Role `json:"role"`
	IsActive    bool        `json:"is_active"`
	PersonID    *uuid.UUID  `json:"person_id,omitempty"`
	Person      *PersonRef  `json:"person,omitempty"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   string      `json:"created_at"`
}

type LinkPersonRequest struct {
	PersonID uuid.UUID `json:"person_id" binding:"required"`
}

type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
