package auth

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
	"github.com/opicprep/trainer/internal/logging"
)

// EventLogger receives auth events for the audit trail.
type EventLogger interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

// AuthController serves the /api/auth endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	events         EventLogger
	log            *logging.Logger

	// setupMu serializes setup so two requests cannot both create the first admin.
	setupMu sync.Mutex
}

func NewAuthController(service *Service, sessionManager *SessionManager, events EventLogger, log *logging.Logger, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		events: events,
		log:    log,
	}
}

// RegisterRoutes mounts the endpoints. Token routes require an authenticated caller,
// which Middleware.Handler enforces.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/api/auth")
	group.GET("/status", ac.Status)
	group.GET("/csrf", ac.CSRFToken)
	group.POST("/setup", ac.Setup)
	group.POST("/register", ac.Register)
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.POST("/token", ac.GenerateToken)
	group.DELETE("/token", ac.RevokeToken)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID       uint              `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     entities.UserRole `json:"role"`
}

func toUserResponse(u *entities.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Status tells the client which auth mode is active and whether setup is pending.
func (ac *AuthController) Status(c *gin.Context) {
	resp := gin.H{
		"mode":          ac.service.Mode(),
		"authenticated": IsAuthenticated(c),
	}
	if ac.service.IsAuthEnabled() {
		hasUsers, err := ac.service.HasUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read users"})
			return
		}
		resp["setup_required"] = !hasUsers
		if GetAuthType(c) == AuthTypeSession || GetAuthType(c) == AuthTypeBearer {
			if user, err := ac.service.GetUserByID(c.Request.Context(), GetUserID(c)); err == nil {
				resp["user"] = toUserResponse(user)
			}
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"token": GetCSRFToken(c), "header": CSRFTokenHeader})
}

// Setup creates the first admin account and signs it in.
func (ac *AuthController) Setup(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ac.setupMu.Lock()
	user, err := ac.service.Setup(c.Request.Context(), req.Username, req.Email, req.Password)
	ac.setupMu.Unlock()
	if err != nil {
		ac.respondCreateError(c, err)
		return
	}

	ac.startSession(c, user, http.StatusCreated, "setup")
}

// Register creates a learner account and signs it in.
func (ac *AuthController) Register(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		ac.respondCreateError(c, err)
		return
	}

	ac.startSession(c, user, http.StatusCreated, "register")
}

func (ac *AuthController) Login(c *gin.Context) {
	if !ac.requireLocalMode(c) {
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "login and password are required"})
		return
	}

	ip := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(ip, req.Login); !allowed {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		ac.rateLimiter.RecordFailure(ip, req.Login)
		ac.logEvent(c, 0, "login", false)

		switch {
		case errors.Is(err, ErrAccountLocked):
			c.JSON(http.StatusLocked, gin.H{"error": "account is locked, try again later"})
		case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		default:
			ac.log.Error("login failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		}
		return
	}

	ac.rateLimiter.RecordSuccess(ip, req.Login)
	ac.startSession(c, user, http.StatusOK, "login")
}

func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			ac.log.Warn("failed to destroy session", "error", err)
		}
	}
	ac.logEvent(c, GetUserID(c), "logout", true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GenerateToken issues a bearer token for the mobile client. The plaintext is
// only returned here.
func (ac *AuthController) GenerateToken(c *gin.Context) {
	if !ac.requireUser(c) {
		return
	}
	token, err := ac.service.GenerateToken(c.Request.Context(), GetUserID(c))
	if err != nil {
		ac.log.Error("failed to generate token", "user_id", GetUserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	ac.logEvent(c, GetUserID(c), "token_generate", true)
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "store this token securely, it will not be shown again",
	})
}

func (ac *AuthController) RevokeToken(c *gin.Context) {
	if !ac.requireUser(c) {
		return
	}
	if err := ac.service.RevokeToken(c.Request.Context(), GetUserID(c)); err != nil {
		ac.log.Error("failed to revoke token", "user_id", GetUserID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	ac.logEvent(c, GetUserID(c), "token_revoke", true)
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}

func (ac *AuthController) startSession(c *gin.Context, user *entities.User, status int, action string) {
	if ac.sessionManager != nil {
		if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
			ac.log.Error("failed to create session", "user_id", user.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
	}
	ac.logEvent(c, user.ID, action, true)
	c.JSON(status, gin.H{"user": toUserResponse(user)})
}

func (ac *AuthController) respondCreateError(c *gin.Context, err error) {
	switch {
	case IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUserExists), errors.Is(err, ErrSetupComplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		ac.log.Error("failed to create user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
	}
}

func (ac *AuthController) requireLocalMode(c *gin.Context) bool {
	if ac.service.IsAuthEnabled() {
		return true
	}
	c.JSON(http.StatusNotFound, gin.H{"error": ErrAuthDisabled.Error()})
	return false
}

// requireUser accepts only a resolved local user, so it fails when auth is disabled.
func (ac *AuthController) requireUser(c *gin.Context) bool {
	authType := GetAuthType(c)
	if authType == AuthTypeSession || authType == AuthTypeBearer {
		return true
	}
	if !ac.service.IsAuthEnabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrAuthDisabled.Error()})
		return false
	}
	c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	return false
}

func (ac *AuthController) logEvent(c *gin.Context, userID uint, action string, success bool) {
	if ac.events == nil {
		return
	}
	ac.events.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
}
