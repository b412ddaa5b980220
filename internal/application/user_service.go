package application

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	repo "github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	tpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// errLogin is returned for both an unknown email and a wrong password.
var errLogin = apperr.NewNotFound("unable to login")

// ErrAvatarTooLarge is returned for uploads over the configured byte limit.
var ErrAvatarTooLarge = apperr.NewValidation("File too large", nil)

// UserOptions configures optional behaviour of UserService.
type UserOptions struct {
	BcryptCost     int
	AvatarMaxBytes int64
	AvatarSize     int

	Avatars AvatarStore
	Cache   AvatarCache
	Index   TaskIndex

	Mail        JobPublisher
	MailEnabled bool
	AppName     string
	CompanyName string
	SupportURL  string
}

// UserService owns user records: registration, credentials, profile,
// avatar and account deletion.
type UserService struct {
	Repo   repo.UserRepository
	Logger *logrus.Logger
	opts   UserOptions
}

func NewUserService(r repo.UserRepository, logger *logrus.Logger, opts UserOptions) *UserService {
	if opts.AvatarMaxBytes <= 0 {
		opts.AvatarMaxBytes = 1000000
	}
	if opts.AvatarSize <= 0 {
		opts.AvatarSize = 250
	}
	return &UserService{Repo: r, Logger: logger, opts: opts}
}

// RegisterInput is the user draft accepted on sign-up.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Age      int    `json:"age" validate:"gte=0"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Password = strings.TrimSpace(in.Password)
}

// Register validates the draft, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, apperr.NewValidation("invalid user", validation.ToDetails(err))
	}
	hash, err := helpers.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Name: in.Name, Email: in.Email, Password: hash, Age: in.Age}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.notify(ctx, tpl.Welcome, u)
	return u, nil
}

// FindByCredentials returns the user for email when password matches its hash.
func (s *UserService) FindByCredentials(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, errLogin
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, errLogin
	}
	return u, nil
}

// GetProfile loads a user by id.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, userID)
}

// PublicView strips secrets before a user leaves the service boundary.
func (s *UserService) PublicView(u *entity.User) entity.PublicUser {
	return u.Public()
}

// UserPatch holds the mutable profile fields present in an update.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int
}

var userPatchFields = map[string]bool{"name": true, "email": true, "password": true, "age": true}

// ParseUserPatch decodes a partial update, rejecting unknown field names.
func ParseUserPatch(fields map[string]json.RawMessage) (UserPatch, error) {
	var p UserPatch
	if err := rejectUnknown(fields, userPatchFields); err != nil {
		return p, err
	}
	details := map[string]string{}
	decodeField(fields, "name", &p.Name, details)
	decodeField(fields, "email", &p.Email, details)
	decodeField(fields, "password", &p.Password, details)
	decodeField(fields, "age", &p.Age, details)
	if len(details) > 0 {
		return UserPatch{}, apperr.NewValidation("invalid updates", details)
	}
	return p, nil
}

// UpdateProfile applies p to u. The password is re-hashed only when p carries one.
func (s *UserService) UpdateProfile(ctx context.Context, u *entity.User, p UserPatch) (*entity.User, error) {
	details := map[string]string{}
	next := *u

	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
		checkVar(next.Name, "name", "required", details)
	}
	if p.Email != nil {
		next.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		checkVar(next.Email, "email", "required,email", details)
	}
	var newPassword string
	if p.Password != nil {
		newPassword = strings.TrimSpace(*p.Password)
		checkVar(newPassword, "password", "required,pwd", details)
	}
	if p.Age != nil {
		next.Age = *p.Age
		checkVar(next.Age, "age", "gte=0", details)
	}
	if len(details) > 0 {
		return nil, apperr.NewValidation("invalid updates", details)
	}

	if p.Password != nil {
		hash, err := helpers.HashPassword(newPassword, s.opts.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		next.Password = hash
	}
	if err := s.Repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	*u = next
	return u, nil
}

// DeleteAccount removes the user together with every task it owns.
func (s *UserService) DeleteAccount(ctx context.Context, u *entity.User) error {
	if err := s.Repo.DeleteWithTasks(ctx, u.ID); err != nil {
		return err
	}
	if s.opts.Index != nil {
		if err := s.opts.Index.RemoveOwner(ctx, u.ID); err != nil {
			s.warn(err, u.ID, "remove owner from task index failed")
		}
	}
	s.dropAvatarCopies(ctx, u.ID)
	s.notify(ctx, tpl.Cancellation, u)
	return nil
}

var avatarExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// AvatarMaxBytes is the largest accepted avatar upload.
func (s *UserService) AvatarMaxBytes() int64 { return s.opts.AvatarMaxBytes }

// SetAvatar validates and normalizes an uploaded image and stores it as PNG.
func (s *UserService) SetAvatar(ctx context.Context, u *entity.User, filename string, raw []byte) error {
	if !avatarExts[strings.ToLower(filepath.Ext(filename))] {
		return apperr.NewValidation("Please upload an image with png, jpg or jpeg extensions.", nil)
	}
	if int64(len(raw)) > s.opts.AvatarMaxBytes {
		return ErrAvatarTooLarge
	}
	png, err := helpers.NormalizeAvatar(raw, s.opts.AvatarSize)
	if err != nil {
		return &apperr.Error{Kind: apperr.Validation, Message: "unreadable image", Err: err}
	}

	url := ""
	if s.opts.Avatars != nil {
		if url, err = s.opts.Avatars.Put(ctx, u.ID, png); err != nil {
			s.warn(err, u.ID, "avatar mirror upload failed")
			url = ""
		}
	}
	if err := s.Repo.SetAvatar(ctx, u.ID, png, url); err != nil {
		return err
	}
	u.Avatar, u.AvatarURL = png, url
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Delete(ctx, u.ID); err != nil {
			s.warn(err, u.ID, "avatar cache invalidation failed")
		}
	}
	return nil
}

// Avatar returns the stored PNG for userID.
func (s *UserService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	if s.opts.Cache != nil {
		if b, ok, err := s.opts.Cache.Get(ctx, userID); err == nil && ok {
			return b, nil
		} else if err != nil {
			s.warn(err, userID, "avatar cache read failed")
		}
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(u.Avatar) == 0 {
		return nil, apperr.NewNotFound("avatar not found")
	}
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, userID, u.Avatar); err != nil {
			s.warn(err, userID, "avatar cache write failed")
		}
	}
	return u.Avatar, nil
}

// ClearAvatar removes the avatar. Storage failures are logged, not returned.
func (s *UserService) ClearAvatar(ctx context.Context, u *entity.User) {
	if err := s.Repo.SetAvatar(ctx, u.ID, nil, ""); err != nil {
		s.warn(err, u.ID, "clear avatar failed")
	}
	u.Avatar, u.AvatarURL = nil, ""
	s.dropAvatarCopies(ctx, u.ID)
}

func (s *UserService) dropAvatarCopies(ctx context.Context, userID string) {
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Delete(ctx, userID); err != nil {
			s.warn(err, userID, "avatar cache invalidation failed")
		}
	}
	if s.opts.Avatars != nil {
		if err := s.opts.Avatars.Remove(ctx, userID); err != nil {
			s.warn(err, userID, "avatar mirror delete failed")
		}
	}
}

// notify enqueues an account email; failures never fail the caller.
func (s *UserService) notify(ctx context.Context, template string, u *entity.User) {
	if s.opts.Mail == nil || !s.opts.MailEnabled {
		return
	}
	data := tpl.NewEmailData(s.opts.AppName, s.opts.CompanyName, s.opts.SupportURL, u.Name, u.Email, time.Now())
	job := mailer.EmailJob{To: u.Email, Template: template, Data: data}
	if err := s.opts.Mail.PublishJSON(ctx, job); err != nil {
		s.warn(err, u.ID, "enqueue "+template+" email failed")
	}
}

func (s *UserService) warn(err error, userID, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn(msg)
	}
}

func rejectUnknown(fields map[string]json.RawMessage, allowed map[string]bool) error {
	details := map[string]string{}
	for k := range fields {
		if !allowed[k] {
			details[k] = "is not an updatable field"
		}
	}
	if len(details) > 0 {
		return apperr.NewValidation("invalid updates", details)
	}
	return nil
}

// decodeField decodes fields[name] into *dst when present. A JSON null is a
// type error: none of the updatable fields are nullable.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst **T, details map[string]string) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	if string(raw) == "null" {
		details[name] = "must not be null"
		return
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		details[name] = fmt.Sprintf("must be a %T", *v)
		return
	}
	*dst = v
}

func checkVar(v any, field, tag string, details map[string]string) {
	if err := validation.Var(v, tag); err != nil {
		for _, msg := range validation.ToDetails(err) {
			details[field] = msg
		}
	}
}
