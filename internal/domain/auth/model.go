// Package auth provides authentication and user administration.
package auth

import (
	"slices"
	"strings"
	"time"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
)

// Role is a fixed user role with a static permission set.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleCashier     Role = "cashier"
	RoleStorekeeper Role = "storekeeper"
)

// Permission codes checked by the HTTP layer.
const (
	PermInventoryView   = "inventory:view"
	PermInventoryManage = "inventory:manage"
	PermSalesCreate     = "sales:create"
	PermPurchasesManage = "purchases:manage"
	PermRequestsManage  = "requests:manage"
	PermReportsView     = "reports:view"
	PermReportsManage   = "reports:manage"
	PermSettingsManage  = "settings:manage"
	PermUsersManage     = "users:manage"
	PermBackupManage    = "backup:manage"
)

var rolePermissions = map[Role][]string{
	RoleAdmin: {
		PermInventoryView, PermInventoryManage, PermSalesCreate, PermPurchasesManage,
		PermRequestsManage, PermReportsView, PermReportsManage, PermSettingsManage,
		PermUsersManage, PermBackupManage,
	},
	RoleManager: {
		PermInventoryView, PermInventoryManage, PermSalesCreate, PermPurchasesManage,
		PermRequestsManage, PermReportsView, PermReportsManage, PermSettingsManage,
	},
	RoleCashier: {
		PermInventoryView, PermSalesCreate, PermReportsView,
	},
	RoleStorekeeper: {
		PermInventoryView, PermInventoryManage, PermRequestsManage, PermReportsView,
	},
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns the permission codes granted to r.
func (r Role) Permissions() []string {
	return slices.Clone(rolePermissions[r])
}

// User is an application account.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Username            string     `db:"username" json:"username"`
	Email               string     `db:"email" json:"email,omitempty"`
	DisplayName         string     `db:"display_name" json:"displayName,omitempty"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	Role                Role       `db:"role" json:"role"`
	IsActive            bool       `db:"is_active" json:"isActive"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
}

// NewUser creates an active user.
func NewUser(username, email, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		ID:           id.New(),
		Username:     strings.TrimSpace(username),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates user data.
func (u *User) Validate() error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").WithDetail("field", "username")
	}
	if strings.ContainsAny(u.Username, " @") {
		return apperror.NewValidation("username cannot contain spaces or @").WithDetail("field", "username")
	}
	if u.Email != "" && !IsValidEmail(u.Email) {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	if !u.Role.IsValid() {
		return apperror.NewValidation("unknown role").WithDetail("role", u.Role)
	}
	return nil
}

// IsLocked returns true if account is locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// RecordFailedLogin increments failed login counter and locks the account
// once maxAttempts is reached.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if maxAttempts > 0 && u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
		u.FailedLoginAttempts = 0
	}
}

// RecordSuccessfulLogin resets failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPermission checks if user has a specific permission.
func (u *User) HasPermission(permission string) bool {
	return slices.Contains(rolePermissions[u.Role], permission)
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// CreateUserRequest holds the fields of a new account.
type CreateUserRequest struct {
	Username    string
	Email       string
	DisplayName string
	Password    string
	Role        Role
}

// UpdateUserRequest changes selected fields of an account. Nil fields are kept.
type UpdateUserRequest struct {
	Email       *string
	DisplayName *string
	Password    *string
	Role        *Role
	IsActive    *bool
}

// UserFilter for listing users.
type UserFilter struct {
	Search   string
	IsActive *bool
	Role     Role
}
