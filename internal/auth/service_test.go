package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
)

const testPassword = "password12345"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		Mode:             config.AuthModeLocal,
		SessionLifetime:  time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 3,
		LockoutDuration:  time.Minute,
	}
}

func TestService_CreateUser(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestDB(t), testAuthConfig())

	tests := []struct {
		name     string
		username string
		email    string
		password string
		role     entities.UserRole
		wantErr  error
	}{
		{name: "admin", username: "admin", email: "admin@example.com", password: testPassword, role: entities.UserRoleAdmin},
		{name: "learner", username: "learner", email: "Learner@Example.com", password: testPassword, role: entities.UserRoleLearner},
		{name: "missing username", email: "x@example.com", password: testPassword, role: entities.UserRoleLearner, wantErr: ErrUsernameRequired},
		{name: "missing email", username: "someone", password: testPassword, role: entities.UserRoleLearner, wantErr: ErrEmailRequired},
		{name: "missing password", username: "someone", email: "x@example.com", role: entities.UserRoleLearner, wantErr: ErrPasswordRequired},
		{name: "short password", username: "someone", email: "x@example.com", password: "short", role: entities.UserRoleLearner, wantErr: ErrPasswordTooShort},
		{name: "bad username", username: "a b", email: "x@example.com", password: testPassword, role: entities.UserRoleLearner, wantErr: ErrUsernameInvalid},
		{name: "bad email", username: "someone", email: "not-an-email", password: testPassword, role: entities.UserRoleLearner, wantErr: ErrEmailInvalid},
		{name: "unknown role", username: "someone", email: "x@example.com", password: testPassword, role: "editor", wantErr: ErrInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.CreateUser(ctx, tt.username, tt.email, tt.password, tt.role)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.Equal(t, tt.role, user.Role)
			assert.NotEqual(t, tt.password, user.PasswordHash)
		})
	}

	t.Run("email is stored lower-cased", func(t *testing.T) {
		var u entities.User
		require.NoError(t, svc.db.Where("username = ?", "learner").First(&u).Error)
		assert.Equal(t, "learner@example.com", u.Email)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, "admin", "other@example.com", testPassword, entities.UserRoleLearner)
		assert.ErrorIs(t, err, ErrUserExists)
		assert.False(t, IsValidationError(err))
	})
}

func TestService_SetupOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestDB(t), testAuthConfig())

	has, err := svc.HasUsers(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	admin, err := svc.Setup(ctx, "admin", "admin@example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	_, err = svc.Setup(ctx, "second", "second@example.com", testPassword)
	assert.ErrorIs(t, err, ErrSetupComplete)

	learner, err := svc.Register(ctx, "learner", "learner@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleLearner, learner.Role)
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestDB(t), testAuthConfig())
	_, err := svc.Register(ctx, "learner", "learner@example.com", testPassword)
	require.NoError(t, err)

	t.Run("by username", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "learner", testPassword)
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("by email", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "LEARNER@example.com", testPassword)
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", testPassword)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("lockout after repeated failures", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			_, err := svc.Authenticate(ctx, "learner", "wrong-password")
			assert.ErrorIs(t, err, ErrInvalidPassword)
		}
		_, err := svc.Authenticate(ctx, "learner", testPassword)
		assert.ErrorIs(t, err, ErrAccountLocked)
	})
}

func TestService_Tokens(t *testing.T) {
	ctx := context.Background()
	svc := NewService(setupTestDB(t), testAuthConfig())
	user, err := svc.Register(ctx, "learner", "learner@example.com", testPassword)
	require.NoError(t, err)

	token, err := svc.GenerateToken(ctx, user.ID)
	require.NoError(t, err)

	got, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.ValidateToken(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.RevokeToken(ctx, user.ID))
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.GenerateToken(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_TokenExpiry(t *testing.T) {
	ctx := context.Background()
	cfg := testAuthConfig()
	cfg.TokenExpiry = time.Hour
	svc := NewService(setupTestDB(t), cfg)

	user, err := svc.Register(ctx, "learner", "learner@example.com", testPassword)
	require.NoError(t, err)
	token, err := svc.GenerateToken(ctx, user.ID)
	require.NoError(t, err)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, svc.db.Model(&entities.User{}).Where("id = ?", user.ID).Update("token_created_at", old).Error)

	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_Mode(t *testing.T) {
	assert.True(t, NewService(nil, config.Auth{Mode: config.AuthModeLocal}).IsAuthEnabled())
	assert.False(t, NewService(nil, config.Auth{Mode: config.AuthModeNone}).IsAuthEnabled())
}
