package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	repo "github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

// ErrAuthRequired is returned for every rejected token, whatever the cause.
var ErrAuthRequired = apperr.NewAuth("authentication is required", nil)

// SessionService issues signed tokens and keeps each user's allow-list of
// active tokens. A token verifies only while it is on that list.
type SessionService struct {
	Users  repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewSessionService(users repo.UserRepository, jwtm *helpers.JWTManager, logger *logrus.Logger) *SessionService {
	return &SessionService{Users: users, JWT: jwtm, Logger: logger}
}

// IssueToken signs a new token for u and appends it to u's active tokens.
func (s *SessionService) IssueToken(ctx context.Context, u *entity.User) (string, error) {
	token, _, err := s.JWT.GenerateToken(u.ID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := s.Users.AddToken(ctx, u.ID, token); err != nil {
		return "", err
	}
	u.Tokens = append(u.Tokens, token)
	return token, nil
}

// VerifyToken resolves token to its user and returns both. Bad signatures,
// expired tokens, unknown users and revoked tokens all yield an Auth error.
func (s *SessionService) VerifyToken(ctx context.Context, token string) (*entity.User, string, error) {
	if token == "" {
		return nil, "", ErrAuthRequired
	}
	claims, err := s.JWT.ParseToken(token)
	if err != nil {
		return nil, "", apperr.NewAuth("authentication is required", err)
	}
	u, err := s.Users.GetByIDAndToken(ctx, claims.UserID, token)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return nil, "", ErrAuthRequired
		}
		return nil, "", err
	}
	return u, token, nil
}

// RevokeToken removes exactly one token from u's active list.
func (s *SessionService) RevokeToken(ctx context.Context, u *entity.User, token string) error {
	if err := s.Users.RemoveToken(ctx, u.ID, token); err != nil {
		return err
	}
	kept := make([]string, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	u.Tokens = kept
	return nil
}

// RevokeAll empties u's active list.
func (s *SessionService) RevokeAll(ctx context.Context, u *entity.User) error {
	if err := s.Users.ClearTokens(ctx, u.ID); err != nil {
		return err
	}
	u.Tokens = []string{}
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("all sessions revoked")
	}
	return nil
}
