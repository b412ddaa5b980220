package application

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	repo "github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 100
)

var errNoTasks = apperr.NewNotFound("no tasks found")

// TaskService is the owner-scoped task store.
type TaskService struct {
	Repo   repo.TaskRepository
	Index  TaskIndex
	Logger *logrus.Logger
}

func NewTaskService(r repo.TaskRepository, index TaskIndex, logger *logrus.Logger) *TaskService {
	return &TaskService{Repo: r, Index: index, Logger: logger}
}

// TaskDraft is the payload accepted on task creation.
type TaskDraft struct {
	Description string `json:"description" validate:"required"`
	Completed   bool   `json:"completed"`
}

// Create stores a new task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, d TaskDraft) (*entity.Task, error) {
	d.Description = strings.TrimSpace(d.Description)
	if err := validation.Struct(d); err != nil {
		return nil, apperr.NewValidation("invalid task", validation.ToDetails(err))
	}
	t := &entity.Task{Description: d.Description, Completed: d.Completed, OwnerID: ownerID}
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.index(ctx, t)
	return t, nil
}

// ParseListQuery builds a TaskFilter from raw query parameters. Empty values
// leave the defaults in place: newest first, no filter, no paging.
func ParseListQuery(sortParam, completed, limit, skip string) (repo.TaskFilter, error) {
	f := repo.TaskFilter{SortBy: repo.SortByCreatedAt, Desc: true}
	details := map[string]string{}

	if sortParam != "" {
		field, dir, _ := strings.Cut(sortParam, ":")
		switch repo.TaskSortField(field) {
		case repo.SortByCreatedAt, repo.SortByUpdatedAt, repo.SortByDescription, repo.SortByCompleted:
			f.SortBy = repo.TaskSortField(field)
		default:
			details["sort"] = "must be one of: createdAt, updatedAt, description, completed"
		}
		switch strings.ToLower(dir) {
		case "", "asc":
			f.Desc = false
		case "desc":
			f.Desc = true
		default:
			if msg, ok := details["sort"]; ok {
				details["sort"] = msg + "; direction must be asc or desc"
			} else {
				details["sort"] = "direction must be asc or desc"
			}
		}
	}
	if completed != "" {
		b, err := strconv.ParseBool(completed)
		if err != nil {
			details["completed"] = "must be true or false"
		} else {
			f.Completed = &b
		}
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			details["limit"] = "must be a non-negative integer"
		}
		f.Limit = n
	}
	if skip != "" {
		n, err := strconv.Atoi(skip)
		if err != nil || n < 0 {
			details["skip"] = "must be a non-negative integer"
		}
		f.Skip = n
	}
	if len(details) > 0 {
		return repo.TaskFilter{}, apperr.NewValidation("invalid query", details)
	}
	return f, nil
}

// List returns ownerID's tasks. An empty result is a NotFound error.
func (s *TaskService) List(ctx context.Context, ownerID string, f repo.TaskFilter) ([]*entity.Task, error) {
	tasks, err := s.Repo.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, errNoTasks
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	return s.Repo.GetByID(ctx, ownerID, id)
}

// TaskPatch holds the mutable task fields present in an update.
type TaskPatch struct {
	Description *string
	Completed   *bool
}

var taskPatchFields = map[string]bool{"description": true, "completed": true}

// ParseTaskPatch decodes a partial update, rejecting unknown field names.
func ParseTaskPatch(fields map[string]json.RawMessage) (TaskPatch, error) {
	var p TaskPatch
	if err := rejectUnknown(fields, taskPatchFields); err != nil {
		return p, err
	}
	details := map[string]string{}
	decodeField(fields, "description", &p.Description, details)
	decodeField(fields, "completed", &p.Completed, details)
	if p.Description != nil {
		trimmed := strings.TrimSpace(*p.Description)
		p.Description = &trimmed
		checkVar(trimmed, "description", "required", details)
	}
	if len(details) > 0 {
		return TaskPatch{}, apperr.NewValidation("invalid updates", details)
	}
	return p, nil
}

// Update applies p to the task id owned by ownerID.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, p TaskPatch) (*entity.Task, error) {
	t, err := s.Repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.index(ctx, t)
	return t, nil
}

// Delete removes the task id owned by ownerID and returns it.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*entity.Task, error) {
	t, err := s.Repo.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if s.Index != nil {
		if err := s.Index.Remove(ctx, t.ID); err != nil {
			s.warn(err, t.ID, "remove task from index failed")
		}
	}
	return t, nil
}

// Search runs a full-text query over ownerID's task descriptions. Hits are
// reloaded from the repository so stale index entries never leak.
func (s *TaskService) Search(ctx context.Context, ownerID, query string, size int) ([]*entity.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.NewValidation("invalid query", map[string]string{"q": "is required"})
	}
	if s.Index == nil {
		return nil, apperr.NewNotFound("task search is not available")
	}
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}
	ids, err := s.Index.Search(ctx, ownerID, query, size)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errNoTasks
	}
	tasks, err := s.Repo.GetByIDs(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, errNoTasks
	}
	return tasks, nil
}

func (s *TaskService) index(ctx context.Context, t *entity.Task) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, t); err != nil {
		s.warn(err, t.ID, "index task failed")
	}
}

func (s *TaskService) warn(err error, taskID, msg string) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", taskID).Warn(msg)
	}
}
