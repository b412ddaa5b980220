// Package memory keeps users and tasks in process. It backs the "memory"
// storage driver and doubles as the repository fake in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/internal/domain/apperr"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
)

// Store is shared by the user and task repositories so that a cascade delete
// sees both collections under one lock.
type Store struct {
	mu    sync.RWMutex
	users map[string]*entity.User
	tasks map[string]*entity.Task
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[string]*entity.User),
		tasks: make(map[string]*entity.Task),
		now:   time.Now,
	}
}

// SetClock replaces the time source used for timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Users returns a UserRepository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Tasks returns a TaskRepository view of the store.
func (s *Store) Tasks() *TaskRepository { return &TaskRepository{s: s} }

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Tokens = append([]string{}, u.Tokens...)
	if u.Avatar != nil {
		c.Avatar = append([]byte(nil), u.Avatar...)
	}
	return &c
}

func cloneTask(t *entity.Task) *entity.Task {
	c := *t
	return &c
}

type UserRepository struct{ s *Store }

func (r *UserRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.s.users {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return apperr.NewConflict("email is already registered", nil)
	}
	now := r.s.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	r.s.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperr.NewNotFound("user not found")
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, apperr.NewNotFound("user not found")
}

func (r *UserRepository) GetByIDAndToken(ctx context.Context, id, token string) (*entity.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.HasToken(token) {
		return nil, apperr.NewNotFound("user not found")
	}
	return u, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return apperr.NewNotFound("user not found")
	}
	if r.emailTaken(u.Email, u.ID) {
		return apperr.NewConflict("email is already registered", nil)
	}
	cur.Name, cur.Email, cur.Password, cur.Age = u.Name, u.Email, u.Password, u.Age
	cur.UpdatedAt = r.s.now()
	u.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *UserRepository) mutate(id string, fn func(u *entity.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperr.NewNotFound("user not found")
	}
	fn(u)
	return nil
}

func (r *UserRepository) AddToken(_ context.Context, id, token string) error {
	return r.mutate(id, func(u *entity.User) { u.Tokens = append(u.Tokens, token) })
}

func (r *UserRepository) RemoveToken(_ context.Context, id, token string) error {
	return r.mutate(id, func(u *entity.User) {
		kept := u.Tokens[:0]
		for _, t := range u.Tokens {
			if t != token {
				kept = append(kept, t)
			}
		}
		u.Tokens = kept
	})
}

func (r *UserRepository) ClearTokens(_ context.Context, id string) error {
	return r.mutate(id, func(u *entity.User) { u.Tokens = []string{} })
}

func (r *UserRepository) SetAvatar(_ context.Context, id string, avatar []byte, avatarURL string) error {
	return r.mutate(id, func(u *entity.User) {
		u.Avatar = append([]byte(nil), avatar...)
		u.AvatarURL = avatarURL
		u.UpdatedAt = r.s.now()
	})
}

func (r *UserRepository) DeleteWithTasks(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return apperr.NewNotFound("user not found")
	}
	for tid, t := range r.s.tasks {
		if t.OwnerID == id {
			delete(r.s.tasks, tid)
		}
	}
	delete(r.s.users, id)
	return nil
}

type TaskRepository struct{ s *Store }

func (r *TaskRepository) Create(_ context.Context, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[t.OwnerID]; !ok {
		return apperr.NewValidation("owner does not exist", nil)
	}
	now := r.s.now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *TaskRepository) ListByOwner(_ context.Context, ownerID string, f repository.TaskFilter) ([]*entity.Task, error) {
	r.s.mu.RLock()
	out := make([]*entity.Task, 0)
	for _, t := range r.s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if f.Completed != nil && t.Completed != *f.Completed {
			continue
		}
		out = append(out, cloneTask(t))
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if f.Desc {
			i, j = j, i
		}
		a, b := out[i], out[j]
		switch f.SortBy {
		case repository.SortByDescription:
			if a.Description != b.Description {
				return a.Description < b.Description
			}
		case repository.SortByCompleted:
			if a.Completed != b.Completed {
				return !a.Completed
			}
		case repository.SortByUpdatedAt:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.Before(b.UpdatedAt)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})

	if f.Skip > 0 {
		if f.Skip >= len(out) {
			return []*entity.Task{}, nil
		}
		out = out[f.Skip:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *TaskRepository) GetByIDs(_ context.Context, ownerID string, ids []string) ([]*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := r.s.tasks[id]; ok && t.OwnerID == ownerID {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (r *TaskRepository) GetByID(_ context.Context, ownerID, id string) (*entity.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.NewNotFound("no task found")
	}
	return cloneTask(t), nil
}

func (r *TaskRepository) Update(_ context.Context, t *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.tasks[t.ID]
	if !ok || cur.OwnerID != t.OwnerID {
		return apperr.NewNotFound("no task found")
	}
	cur.Description, cur.Completed = t.Description, t.Completed
	cur.UpdatedAt = r.s.now()
	t.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, ownerID, id string) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.NewNotFound("no task found")
	}
	delete(r.s.tasks, id)
	return t, nil
}

func (r *TaskRepository) CountByOwner(_ context.Context, ownerID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, t := range r.s.tasks {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.TaskRepository = (*TaskRepository)(nil)
)
