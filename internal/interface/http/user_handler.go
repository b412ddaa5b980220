package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/response"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

const avatarField = "avatar"

// multipartSlack covers boundaries and part headers around the avatar bytes.
const multipartSlack = 64 << 10

type UserHandler struct {
	Users    *application.UserService
	Sessions *application.SessionService
	Logger   *logrus.Logger
}

func NewUserHandler(users *application.UserService, sessions *application.SessionService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Sessions: sessions, Logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResult struct {
	User  entity.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// principal is only called behind middleware.Auth.
func principal(c *gin.Context) middleware.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

func invalidPayload(err error) error {
	return apperr.NewValidation("invalid payload", validation.ToDetails(err))
}

// Register creates a user and signs it in.
func (h *UserHandler) Register(c *gin.Context) {
	var in application.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, invalidPayload(err))
		return
	}
	ctx := c.Request.Context()
	u, err := h.Users.Register(ctx, in)
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, err)
		return
	}
	// The account exists at this point; a signing or storage failure is ours.
	token, err := h.Sessions.IssueToken(ctx, u)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, authResult{User: h.Users.PublicView(u), Token: token}, "user created", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, invalidPayload(err))
		return
	}
	ctx := c.Request.Context()
	u, err := h.Users.FindByCredentials(ctx, req.Email, req.Password)
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, err)
		return
	}
	token, err := h.Sessions.IssueToken(ctx, u)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, authResult{User: h.Users.PublicView(u), Token: token}, "login successful", nil)
}

func (h *UserHandler) Me(c *gin.Context) {
	response.Success(c, http.StatusOK, h.Users.PublicView(principal(c).User), "profile", nil)
}

// UpdateMe applies a partial profile update. Only name, email, password and
// age may appear in the body.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var fields map[string]json.RawMessage
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, h.Logger, invalidPayload(err))
		return
	}
	patch, err := application.ParseUserPatch(fields)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	u, err := h.Users.UpdateProfile(c.Request.Context(), principal(c).User, patch)
	if err != nil {
		fail(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, h.Users.PublicView(u), "profile updated", nil)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.Users.DeleteAccount(c.Request.Context(), principal(c).User); err != nil {
		failWith(c, h.Logger, http.StatusInternalServerError, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "deleted user successfully", nil)
}

// Logout revokes the presented token. A storage failure is logged and the
// caller still gets 200.
func (h *UserHandler) Logout(c *gin.Context) {
	p := principal(c)
	if err := h.Sessions.RevokeToken(c.Request.Context(), p.User, p.Token); err != nil {
		h.warn(err, p.User.ID, "revoke token failed")
	}
	response.Success[any](c, http.StatusOK, nil, "User logged out successfully", nil)
}

func (h *UserHandler) LogoutAll(c *gin.Context) {
	p := principal(c)
	if err := h.Sessions.RevokeAll(c.Request.Context(), p.User); err != nil {
		h.warn(err, p.User.ID, "revoke all tokens failed")
	}
	response.Success[any](c, http.StatusOK, nil, "all sessions logged out", nil)
}

// UploadAvatar reads the multipart field "avatar". The request body is capped
// just above the avatar limit so oversized uploads never reach memory.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	limit := h.Users.AvatarMaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	fh, err := c.FormFile(avatarField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			failWith(c, h.Logger, http.StatusBadRequest, application.ErrAvatarTooLarge)
			return
		}
		failWith(c, h.Logger, http.StatusBadRequest, apperr.NewValidation("avatar file is required", nil))
		return
	}
	if fh.Size > limit {
		failWith(c, h.Logger, http.StatusBadRequest, application.ErrAvatarTooLarge)
		return
	}
	f, err := fh.Open()
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, apperr.NewValidation("avatar file is unreadable", nil))
		return
	}
	defer func() { _ = f.Close() }()

	raw, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, apperr.NewValidation("avatar file is unreadable", nil))
		return
	}
	u := principal(c).User
	if err := h.Users.SetAvatar(c.Request.Context(), u, fh.Filename, raw); err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, err)
		return
	}
	response.Success(c, http.StatusOK, h.Users.PublicView(u), "avatar uploaded", nil)
}

// Avatar serves the stored PNG. Any failure is a 400.
func (h *UserHandler) Avatar(c *gin.Context) {
	png, err := h.Users.Avatar(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, h.Logger, http.StatusBadRequest, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	h.Users.ClearAvatar(c.Request.Context(), principal(c).User)
	response.Success[any](c, http.StatusOK, nil, "Profile avatar delete successfully.", nil)
}

func (h *UserHandler) warn(err error, userID, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
	}
}
