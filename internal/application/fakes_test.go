package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

// ---- fakes ----

type fakeIndex struct {
	mu    sync.Mutex
	docs  map[string]*entity.Task
	err   error
	calls int
}

func newFakeIndex() *fakeIndex { return &fakeIndex{docs: map[string]*entity.Task{}} }

func (f *fakeIndex) Index(_ context.Context, t *entity.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	c := *t
	f.docs[t.ID] = &c
	return nil
}

func (f *fakeIndex) Remove(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return f.err
}

func (f *fakeIndex) RemoveOwner(_ context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.docs {
		if t.OwnerID == ownerID {
			delete(f.docs, id)
		}
	}
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, ownerID, q string, size int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, t := range f.docs {
		if t.OwnerID == ownerID && strings.Contains(strings.ToLower(t.Description), strings.ToLower(q)) {
			ids = append(ids, id)
		}
	}
	if len(ids) > size {
		ids = ids[:size]
	}
	return ids, nil
}

type fakeCache struct {
	m map[string][]byte
}

func (f *fakeCache) Get(_ context.Context, id string) ([]byte, bool, error) {
	b, ok := f.m[id]
	return b, ok, nil
}

func (f *fakeCache) Set(_ context.Context, id string, png []byte) error {
	f.m[id] = png
	return nil
}

func (f *fakeCache) Delete(_ context.Context, id string) error {
	delete(f.m, id)
	return nil
}

type fakeAvatarStore struct {
	objects map[string][]byte
}

func (f *fakeAvatarStore) Put(_ context.Context, id string, png []byte) (string, error) {
	f.objects[id] = png
	return "https://storage.example/avatars/" + id + ".png", nil
}

func (f *fakeAvatarStore) Remove(_ context.Context, id string) error {
	delete(f.objects, id)
	return nil
}

type fakePublisher struct {
	jobs []any
}

func (f *fakePublisher) PublishJSON(_ context.Context, body any) error {
	f.jobs = append(f.jobs, body)
	return nil
}

// ---- setup ----

type fixture struct {
	store    *memory.Store
	users    *UserService
	sessions *SessionService
	tasks    *TaskService
	index    *fakeIndex
	cache    *fakeCache
	avatars  *fakeAvatarStore
	mail     *fakePublisher
}

func newFixture() *fixture {
	store := memory.NewStore()
	log := helpers.NewDiscardLogger()
	f := &fixture{
		store:   store,
		index:   newFakeIndex(),
		cache:   &fakeCache{m: map[string][]byte{}},
		avatars: &fakeAvatarStore{objects: map[string][]byte{}},
		mail:    &fakePublisher{},
	}
	f.users = NewUserService(store.Users(), log, UserOptions{
		BcryptCost:  4,
		Avatars:     f.avatars,
		Cache:       f.cache,
		Index:       f.index,
		Mail:        f.mail,
		MailEnabled: true,
		AppName:     "Task Manager",
	})
	f.sessions = NewSessionService(store.Users(), helpers.NewJWTManager("test-secret", time.Hour), log)
	f.tasks = NewTaskService(store.Tasks(), f.index, log)
	return f
}

func descriptions(tasks []*entity.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Description)
	}
	return out
}
