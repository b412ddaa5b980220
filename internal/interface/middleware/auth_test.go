package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

func init() { gin.SetMode(gin.TestMode) }

type stubVerifier struct {
	valid string
	user  *entity.User
	seen  string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*entity.User, string, error) {
	s.seen = token
	if token != s.valid {
		return nil, "", errors.New("rejected")
	}
	return s.user, token, nil
}

func newAuthEngine(v TokenVerifier, reached *bool) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/me", Auth(v), func(c *gin.Context) {
		*reached = true
		p, ok := PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		fromCtx, ok := PrincipalFromContext(c.Request.Context())
		if !ok || fromCtx.Token != p.Token {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, p.User.ID+" "+p.Token)
	})
	return r
}

func TestAuth_AcceptsActiveBearerToken(t *testing.T) {
	v := &stubVerifier{valid: "good", user: &entity.User{ID: "u1"}}
	var reached bool
	r := newAuthEngine(v, &reached)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, reached)
	assert.Equal(t, "u1 good", w.Body.String())
}

func TestAuth_Rejects(t *testing.T) {
	cases := map[string]string{
		"no header":     "",
		"wrong scheme":  "Basic good",
		"no prefix":     "good",
		"invalid token": "Bearer bad",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			v := &stubVerifier{valid: "good", user: &entity.User{ID: "u1"}}
			var reached bool
			r := newAuthEngine(v, &reached)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, reached, "handler must not run")
			assert.Contains(t, w.Body.String(), "authentication is required")
			assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
		})
	}
}

func newIPEngine(t *testing.T, proxies []string) *gin.Engine {
	t.Helper()
	r := gin.New()
	require.NoError(t, TrustProxies(r, proxies))
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) {
		allowed := AllowPrivateIP()(c)
		c.String(http.StatusOK, "%s %t", c.GetString(realIPKey), allowed)
	})
	return r
}

func TestRealIP_IgnoresHeadersFromUntrustedPeer(t *testing.T) {
	r := newIPEngine(t, nil)

	for _, h := range ClientIPHeaders {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.50:4711"
		req.Header.Set(h, "127.0.0.1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "203.0.113.50 false", w.Body.String(), h)
	}
}

func TestRealIP_HonorsTrustedProxy(t *testing.T) {
	r := newIPEngine(t, []string{"10.0.0.0/8"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:4711"
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.2.2.2")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.9 false", w.Body.String())

	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.2 false", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:4711"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "10.1.1.1 true", w.Body.String())
}

func TestTrustProxies_RejectsGarbage(t *testing.T) {
	assert.Error(t, TrustProxies(gin.New(), []string{"not-an-ip"}))
}

func TestLimiter_DisabledPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/", NewLimiter(nil, true, nil).Limit(1, 0, KeyByIP(), nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestAllowPrivateIP(t *testing.T) {
	allow := AllowPrivateIP()
	for ip, want := range map[string]bool{"127.0.0.1": true, "10.1.2.3": true, "192.168.0.9": true, "8.8.8.8": false} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Set(realIPKey, ip)
		assert.Equal(t, want, allow(c), ip)
	}
}
