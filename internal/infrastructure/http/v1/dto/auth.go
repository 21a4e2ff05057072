package dto

import (
	"time"

	"stockroom/internal/domain/auth"
)

// --- Request DTOs ---

// LoginRequest accepts a username or an email as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// CreateUserRequest for creating an account.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
}

// ToDomain converts to the service request.
func (r *CreateUserRequest) ToDomain() auth.CreateUserRequest {
	return auth.CreateUserRequest{
		Username:    r.Username,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Password:    r.Password,
		Role:        auth.Role(r.Role),
	}
}

// UpdateUserRequest changes selected account fields.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	DisplayName *string `json:"displayName"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"isActive"`
}

// ToDomain converts to the service request.
func (r *UpdateUserRequest) ToDomain() auth.UpdateUserRequest {
	req := auth.UpdateUserRequest{
		Email:       r.Email,
		DisplayName: r.DisplayName,
		Password:    r.Password,
		IsActive:    r.IsActive,
	}
	if r.Role != nil {
		role := auth.Role(*r.Role)
		req.Role = &role
	}
	return req
}

// UserListRequest filters the user listing.
type UserListRequest struct {
	Search   string `form:"search"`
	Role     string `form:"role"`
	IsActive *bool  `form:"isActive"`
}

// ToFilter converts to the repository filter.
func (r *UserListRequest) ToFilter() auth.UserFilter {
	return auth.UserFilter{Search: r.Search, Role: auth.Role(r.Role), IsActive: r.IsActive}
}

// --- Response DTOs ---

// UserResponse is the public view of an account.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"displayName"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// FromUser converts a domain user.
func FromUser(u *auth.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.Name(),
		Role:        string(u.Role),
		Permissions: u.Role.Permissions(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// FromUsers converts a slice of domain users.
func FromUsers(users []auth.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = FromUser(&users[i])
	}
	return out
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   UserResponse    `json:"user"`
}

// MeResponse describes the caller as seen through the token.
type MeResponse struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsAdmin     bool     `json:"isAdmin"`
	Locale      string   `json:"locale"`
}
