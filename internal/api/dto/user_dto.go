package dto

import (
	"time"

	"github.com/spec-kit/asset-registry/internal/domain"
)

// RegisterRequest payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,role"`
}

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by a successful login.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateUserRequest payload for POST /users.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,role"`
}

// UpdateCredentialsRequest payload for PUT /users/:id.
type UpdateCredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateRoleRequest payload for PUT /users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// UserResponse never carries the password hash.
type UserResponse struct {
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
