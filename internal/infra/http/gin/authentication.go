package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"skoropad/internal/app/services/auth"
	domainauth "skoropad/internal/domain/auth"
	domainuser "skoropad/internal/domain/user"
)

const principalContextKey = "skoropad.principal"

type principal struct {
	User      *domainuser.User
	Token     string
	ExpiresAt time.Time
}

func (p principal) ID() domainuser.ID { return p.User.ID }

func (p principal) Moderates() bool { return p.User.Moderates() }

type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

// Handle resolves the bearer token into a principal when one is present. An
// invalid or expired token is ignored rather than rejected; protected routes
// enforce sign-in themselves.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, domainauth.ErrSessionNotFound) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{
		User:      resolved.User,
		Token:     token,
		ExpiresAt: resolved.Session.ExpiresAt,
	})
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	if !ok || p.User == nil {
		return principal{}, false
	}
	return p, true
}

// requireSignIn aborts with 401 when no principal is attached.
func requireSignIn(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return principal{}, false
	}
	return p, true
}

// requireRole additionally checks for an exact role.
func requireRole(c *gin.Context, role domainuser.Role) (principal, bool) {
	p, ok := requireSignIn(c)
	if !ok {
		return principal{}, false
	}
	if p.User.Role != role {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return principal{}, false
	}
	return p, true
}

// requireModerator admits moderators and admins.
func requireModerator(c *gin.Context) (principal, bool) {
	p, ok := requireSignIn(c)
	if !ok {
		return principal{}, false
	}
	if !p.Moderates() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
