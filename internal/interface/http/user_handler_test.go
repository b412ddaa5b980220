package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

// ---- fakes ----

type failingTokens struct {
	*memory.UserRepository
}

func (failingTokens) AddToken(context.Context, string, string) error {
	return errors.New("connection reset")
}

func TestRegister_TokenFailureIsServerError(t *testing.T) {
	store := memory.NewStore()
	users := failingTokens{store.Users()}
	logger := helpers.NewDiscardLogger()
	h := NewUserHandler(
		application.NewUserService(users, logger, application.UserOptions{BcryptCost: 4}),
		application.NewSessionService(users, helpers.NewJWTManager("handler-secret", time.Hour), logger),
		logger,
	)
	r := gin.New()
	r.POST("/users", h.Register)
	r.POST("/login", h.Login)

	body := `{"name":"A","email":"a@x.com","password":"secret123"}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("/users", body))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	assert.NotContains(t, w.Body.String(), "connection reset")

	_, err := store.Users().GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err, "account is kept")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonRequest("/login", `{"email":"a@x.com","password":"secret123"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
