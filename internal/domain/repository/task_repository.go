package repository

import (
	"context"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
)

// TaskSortField is a sortable task column.
type TaskSortField string

const (
	SortByCreatedAt   TaskSortField = "createdAt"
	SortByUpdatedAt   TaskSortField = "updatedAt"
	SortByDescription TaskSortField = "description"
	SortByCompleted   TaskSortField = "completed"
)

// TaskFilter narrows and orders an owner's task listing.
type TaskFilter struct {
	Completed *bool
	SortBy    TaskSortField
	Desc      bool
	Limit     int
	Skip      int
}

// TaskRepository persists tasks. Every method is scoped to ownerID; a task
// owned by someone else is reported exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	ListByOwner(ctx context.Context, ownerID string, f TaskFilter) ([]*entity.Task, error)
	GetByIDs(ctx context.Context, ownerID string, ids []string) ([]*entity.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (*entity.Task, error)
	Update(ctx context.Context, t *entity.Task) error
	Delete(ctx context.Context, ownerID, id string) (*entity.Task, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
