package application

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// The collaborators below are optional: services skip the step when nil.

// JobPublisher queues background jobs (email notifications).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AvatarStore mirrors normalized avatars to object storage.
type AvatarStore interface {
	Put(ctx context.Context, userID string, png []byte) (url string, err error)
	Remove(ctx context.Context, userID string) error
}

// AvatarCache caches avatar bytes for the public avatar endpoint.
type AvatarCache interface {
	Get(ctx context.Context, userID string) ([]byte, bool, error)
	Set(ctx context.Context, userID string, png []byte) error
	Delete(ctx context.Context, userID string) error
}

// TaskIndex keeps a full-text index of task descriptions.
type TaskIndex interface {
	Index(ctx context.Context, t *entity.Task) error
	Remove(ctx context.Context, taskID string) error
	RemoveOwner(ctx context.Context, ownerID string) error
	Search(ctx context.Context, ownerID, query string, size int) ([]string, error)
}
