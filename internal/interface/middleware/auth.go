package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

const (
	principalKey = "principal"
	bearerPrefix = "Bearer "
	authRequired = "authentication is required"
)

// Principal is the authenticated caller: the user and the exact token it
// presented, so logout can revoke that one session.
type Principal struct {
	User  *entity.User
	Token string
}

type principalCtxKey struct{}

// TokenVerifier resolves a bearer token to its user.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*entity.User, string, error)
}

// Auth rejects the request with 401 unless it carries a valid bearer token
// that is still active for its user.
func Auth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			response.Abort(c, http.StatusUnauthorized, authRequired, nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

		u, token, err := v.VerifyToken(c.Request.Context(), token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, authRequired, nil)
			return
		}

		p := Principal{User: u, Token: token}
		c.Set(principalKey, p)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), principalCtxKey{}, p))
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by Auth.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok && p.User != nil
}

// PrincipalFromContext is PrincipalFrom for code that only sees a context.Context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(Principal)
	return p, ok && p.User != nil
}
