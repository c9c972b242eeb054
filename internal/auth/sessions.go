package auth

import (
	"database/sql"
	"encoding/gob"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/opicprep/trainer/internal/config"
	"github.com/opicprep/trainer/internal/entities"
)

const (
	SessionKeyUserID  = "user_id"
	SessionKeyRole    = "role"
	SessionKeyLoginAt = "login_at"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager wraps scs.SessionManager with the user bookkeeping the API needs.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager keeps sessions in the sqlite database when the app runs on
// sqlite. Other drivers use scs' in-memory store.
func NewSessionManager(sqlDB *sql.DB, driver config.DatabaseDriver, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if driver == config.DriverSQLite && sqlDB != nil {
		if _, err := sqlDB.Exec(sessionsSchema); err != nil {
			return nil, fmt.Errorf("failed to create sessions table: %w", err)
		}
		sm.Store = sqlite3store.New(sqlDB)
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "opic_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession renews the token and stores the user in the session.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	ctx := r.Context()
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyRole, user.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID returns 0 when the request carries no session.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}
