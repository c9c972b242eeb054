package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader carries the token on unsafe requests from cookie sessions.
const CSRFTokenHeader = "X-CSRF-Token"

const contextKeyCSRFToken = "csrf_token"

// CSRFConfig configures CSRFMiddleware.
type CSRFConfig struct {
	Secret         []byte
	Secure         bool
	AllowedOrigins []string
}

// CSRFMiddleware protects requests that are authenticated by the session cookie.
// Bearer-token and auth-disabled requests carry no ambient credentials and skip
// the check. It must run after Middleware.Handler.
func CSRFMiddleware(cfg CSRFConfig) gin.HandlerFunc {
	protect := csrf.Protect(
		cfg.Secret,
		csrf.Secure(cfg.Secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.TrustedOrigins(originHosts(cfg.AllowedOrigins)),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(c *gin.Context) {
		authType := GetAuthType(c)
		if authType == AuthTypeBearer || authType == AuthTypeNone {
			c.Next()
			return
		}
		if authType != AuthTypeSession && !isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		req := c.Request
		if !cfg.Secure {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Set(contextKeyCSRFToken, csrf.Token(r))
		})).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCSRFToken is empty when CSRFMiddleware skipped the request.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(contextKeyCSRFToken)
}

func csrfFailure(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// originHosts turns "http://host:port" origins into the host form csrf expects.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
