package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
// Lookups return an apperr NotFound error when nothing matches and Create/Update
// return an apperr Conflict error on a duplicate email.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIDAndToken returns the user only if token is in its active list.
	GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error

	AddToken(ctx context.Context, id, token string) error
	RemoveToken(ctx context.Context, id, token string) error
	ClearTokens(ctx context.Context, id string) error

	SetAvatar(ctx context.Context, id string, avatar []byte, avatarURL string) error

	// DeleteWithTasks removes every task owned by id and then the user,
	// atomically.
	DeleteWithTasks(ctx context.Context, id string) error
}
