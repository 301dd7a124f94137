// JWT bearer-token guard for the authenticated API surface.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-social-backend/internal/auth"
)

// Context keys populated by RequireAuth for downstream handlers.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
	CtxUsername  = "username"
)

// TokenParser validates a compact token string and returns its claims.
// *auth.JWTIssuer satisfies this.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequireAuth returns a Gin middleware that rejects requests without a valid
// Bearer token. On success it stores the user id, email (token subject), and
// username in the Gin context for handlers and the access logger.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := parser.Parse(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserEmail, claims.Subject)
		c.Set(CtxUsername, claims.Username)
		c.Next()
	}
}

// bearerToken extracts the credential from an "Authorization: Bearer <tok>"
// header. The scheme comparison is case-insensitive.
func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
