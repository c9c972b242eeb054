// Package auth implements local accounts for the trainer API.
//
// With AUTH_MODE=none (the default) every request runs as DefaultUserID with
// admin rights. With AUTH_MODE=local, callers authenticate with either a
// session cookie (scs) or an API bearer token, and admin-only routes are
// guarded by Middleware.RequireAdmin. Cookie-authenticated writes must echo the
// CSRF token from GET /api/auth/csrf in the X-CSRF-Token header.
//
// Route order:
//
//	router.Use(sessions.LoadAndSave(), middleware.Handler(), auth.CSRFMiddleware(csrfCfg))
package auth
