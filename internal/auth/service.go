package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrSetupComplete    = errors.New("initial setup already completed")
	ErrAuthDisabled     = errors.New("authentication is disabled")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid     = errors.New("invalid email format")
)

// IsValidationError reports whether err was caused by bad user input.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrUsernameRequired, ErrEmailRequired, ErrPasswordRequired,
		ErrUsernameInvalid, ErrEmailInvalid, ErrPasswordTooShort,
		ErrPasswordTooLong, ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Service owns local users: registration, credential checks and API tokens.
type Service struct {
	db     *gorm.DB
	config config.Auth
}

func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateUser validates and stores a new user with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, username, email, password string, role entities.UserRole) (*entities.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	switch {
	case username == "":
		return nil, ErrUsernameRequired
	case email == "":
		return nil, ErrEmailRequired
	case password == "":
		return nil, ErrPasswordRequired
	case !usernamePattern.MatchString(username):
		return nil, ErrUsernameInvalid
	case len(email) > 254 || !emailPattern.MatchString(email):
		return nil, ErrEmailInvalid
	}

	if role != entities.UserRoleAdmin && role != entities.UserRoleLearner {
		return nil, ErrInvalidRole
	}

	var existing entities.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Setup creates the first admin. It fails with ErrSetupComplete once any user exists.
func (s *Service) Setup(ctx context.Context, username, email, password string) (*entities.User, error) {
	hasUsers, err := s.HasUsers(ctx)
	if err != nil {
		return nil, err
	}
	if hasUsers {
		return nil, ErrSetupComplete
	}
	return s.CreateUser(ctx, username, email, password, entities.UserRoleAdmin)
}

// Register creates a learner account.
func (s *Service) Register(ctx context.Context, username, email, password string) (*entities.User, error) {
	return s.CreateUser(ctx, username, email, password, entities.UserRoleLearner)
}

// Authenticate checks credentials by username or email and applies the account lockout.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*entities.User, error) {
	var user entities.User
	login = strings.TrimSpace(login)
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.LockedUntil != nil && time.Now().Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(ctx, &user)
		return nil, err
	}

	now := time.Now()
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	s.db.WithContext(ctx).Model(&user).Updates(map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	return &user, nil
}

func (s *Service) recordFailedLogin(ctx context.Context, user *entities.User) {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		updates["locked_until"] = time.Now().Add(lockout)
	}

	s.db.WithContext(ctx).Model(user).Updates(updates)
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ValidateToken resolves a plaintext bearer token to its user.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var user entities.User
	err := s.db.WithContext(ctx).Where("token_hash = ?", HashToken(token)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return &user, nil
}

// GenerateToken replaces the user's API token. Only the hash is stored; the
// plaintext is returned once.
func (s *Service) GenerateToken(ctx context.Context, userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	result := s.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now(),
	})
	if result.Error != nil {
		return "", fmt.Errorf("failed to save token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

func (s *Service) RevokeToken(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", userID).Updates(map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

func (s *Service) Mode() config.AuthMode {
	return s.config.Mode
}
