package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/core/apperror"
	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/i18n"
	"stockroom/internal/core/id"
	"stockroom/internal/core/tx"
	"stockroom/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts  int
	LockDuration      time.Duration
	PasswordMinLength int
	DefaultLocale     string
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:  5,
		LockDuration:      15 * time.Minute,
		PasswordMinLength: 6,
		DefaultLocale:     i18n.LocaleEN,
	}
}

// Service provides login and user administration.
type Service struct {
	userRepo   UserRepository
	txManager  tx.Manager
	jwtService *JWTService
	bundle     *i18n.Bundle
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	bundle *i18n.Bundle,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		bundle:     bundle,
		config:     config,
	}
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// authError builds a localized authentication failure.
func (s *Service) authError(ctx context.Context, code, key string) *apperror.AppError {
	locale := appctx.GetLocale(ctx, s.config.DefaultLocale)
	return apperror.NewAuth(code, s.bundle.T(locale, key))
}

// Login authenticates by username or email. Failures carry one of the
// AUTH_* codes with a localized message.
func (s *Service) Login(ctx context.Context, identifier, secret string) (*TokenPair, *User, error) {
	identifier = strings.TrimSpace(identifier)

	var (
		user *User
		err  error
	)
	if strings.Contains(identifier, "@") {
		if !IsValidEmail(identifier) {
			return nil, nil, s.authError(ctx, apperror.CodeAuthInvalidEmail, "auth.invalid_email")
		}
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "login failed", "identifier", identifier, "reason", "unknown user")
			return nil, nil, s.authError(ctx, apperror.CodeAuthInvalidCredential, "auth.invalid_credential")
		}
		logger.Error(ctx, "login lookup failed", "error", err)
		return nil, nil, s.authError(ctx, apperror.CodeAuthNetwork, "auth.network").WithCause(err)
	}

	if user.IsLocked() {
		return nil, nil, s.authError(ctx, apperror.CodeAuthTooManyRequests, "auth.too_many_requests")
	}
	if !user.IsActive {
		return nil, nil, s.authError(ctx, apperror.CodeAuthUserDisabled, "auth.user_disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			logger.Error(ctx, "record failed login", "user_id", user.ID, "error", err)
		}
		logger.Warn(ctx, "login failed", "user_id", user.ID, "reason", "wrong password")
		if user.IsLocked() {
			return nil, nil, s.authError(ctx, apperror.CodeAuthTooManyRequests, "auth.too_many_requests")
		}
		return nil, nil, s.authError(ctx, apperror.CodeAuthInvalidCredential, "auth.invalid_credential")
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	if err := s.userRepo.Update(ctx, user); err != nil {
		logger.Warn(ctx, "record successful login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"username", user.Username)

	return &TokenPair{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		TokenType:   "Bearer",
	}, user, nil
}

// --- User administration ---

// GetUser retrieves a user by id.
func (s *Service) GetUser(ctx context.Context, userID id.ID) (*User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.userRepo.List(ctx, UserFilter{})
}

// SearchUsers lists users matching filter.
func (s *Service) SearchUsers(ctx context.Context, filter UserFilter) ([]User, error) {
	return s.userRepo.List(ctx, filter)
}

func (s *Service) hashPassword(password string) (string, error) {
	if len(password) < s.config.PasswordMinLength {
		return "", apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) ensureUnique(ctx context.Context, user *User) error {
	if existing, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil && existing.ID != user.ID {
		return apperror.NewDuplicate("user", "username", user.Username)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if user.Email == "" {
		return nil
	}
	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing.ID != user.ID {
		return apperror.NewDuplicate("user", "email", user.Email)
	} else if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	return nil
}

// CreateUser creates an account.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if req.Role == "" {
		req.Role = RoleCashier
	}
	user := NewUser(req.Username, req.Email, "", req.Role)
	user.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := user.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureUnique(ctx, user); err != nil {
			return err
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user created",
		"user_id", user.ID,
		"username", user.Username,
		"role", user.Role)

	return user, nil
}

// UpdateUser applies req to an account.
func (s *Service) UpdateUser(ctx context.Context, userID id.ID, req UpdateUserRequest) (*User, error) {
	var user *User
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		self := appctx.GetUserID(ctx) == userID.String()
		if req.Email != nil {
			user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		}
		if req.DisplayName != nil {
			user.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.Role != nil {
			if self && *req.Role != user.Role {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "you cannot change your own role")
			}
			user.Role = *req.Role
		}
		if req.IsActive != nil {
			if self && !*req.IsActive {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "you cannot disable your own account")
			}
			user.IsActive = *req.IsActive
			if user.IsActive {
				user.LockedUntil = nil
				user.FailedLoginAttempts = 0
			}
		}
		if req.Password != nil {
			hash, err := s.hashPassword(*req.Password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
		}

		if err := user.Validate(); err != nil {
			return err
		}
		if err := s.ensureUnique(ctx, user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()
		return s.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user updated", "user_id", user.ID)
	return user, nil
}

// DeleteUser removes an account. Users cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, userID id.ID) error {
	if appctx.GetUserID(ctx) == userID.String() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "you cannot delete your own account")
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	logger.Info(ctx, "user deleted", "user_id", userID)
	return nil
}

// EnsureAdmin creates an admin account when the user table is empty.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.CreateUser(ctx, CreateUserRequest{
		Username:    username,
		DisplayName: "Administrator",
		Password:    password,
		Role:        RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
