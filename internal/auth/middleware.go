package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
)

const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyRole     = "auth_role"
	ContextKeyAuthType = "auth_type"
)

type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// DefaultUserID owns all data when AUTH_MODE=none.
const DefaultUserID = uint(0)

var publicPaths = map[string]bool{
	"/health":            true,
	"/ping":              true,
	"/api/auth/status":   true,
	"/api/auth/csrf":     true,
	"/api/auth/setup":    true,
	"/api/auth/register": true,
	"/api/auth/login":    true,
}

// Middleware resolves the caller from a bearer token or a session cookie.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	mode           config.AuthMode
}

func NewMiddleware(service *Service, sessionManager *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		mode:           cfg.Mode,
	}
}

func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode != config.AuthModeLocal {
		return func(c *gin.Context) {
			c.Set(ContextKeyUserID, DefaultUserID)
			c.Set(ContextKeyRole, entities.UserRoleAdmin)
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if user := m.bearerUser(c); user != nil {
			setUser(c, user, AuthTypeBearer)
			c.Next()
			return
		}
		if user := m.sessionUser(c); user != nil {
			setUser(c, user, AuthTypeSession)
			c.Next()
			return
		}
		if publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

// RequireRole rejects callers without one of roles. It is a no-op when auth is disabled.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	allowed := make(map[entities.UserRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		if m.mode != config.AuthModeLocal {
			c.Next()
			return
		}
		if !allowed[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return m.RequireRole(entities.UserRoleAdmin)
}

func (m *Middleware) bearerUser(c *gin.Context) *entities.User {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		return nil
	}
	user, err := m.service.ValidateToken(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) sessionUser(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func setUser(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyAuthType, authType)
}

// GetUserID returns DefaultUserID for anonymous requests and when auth is disabled.
func GetUserID(c *gin.Context) uint {
	if id, ok := c.Get(ContextKeyUserID); ok {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return DefaultUserID
}

func GetUserRole(c *gin.Context) entities.UserRole {
	if r, ok := c.Get(ContextKeyRole); ok {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

func GetAuthType(c *gin.Context) AuthType {
	if t, ok := c.Get(ContextKeyAuthType); ok {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return ""
}

// IsAuthenticated is true for a resolved user, and for everyone when auth is disabled.
func IsAuthenticated(c *gin.Context) bool {
	return GetAuthType(c) != ""
}
