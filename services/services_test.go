package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/biosecret/go-todo/auth"
	"github.com/biosecret/go-todo/database"
	"github.com/biosecret/go-todo/events"
	"github.com/biosecret/go-todo/models"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	backend *database.FileBackend
	users   *database.Collection[models.User]
	tasks   *database.Collection[models.Task]
	issuer  *auth.TokenIssuer
	userSvc *UserService
	taskSvc *TaskService
	events  *recorder
}

type recorder struct {
	mu  sync.Mutex
	got []events.TaskEvent
}

func (r *recorder) Publish(ev events.TaskEvent) {
	r.mu.Lock()
	r.got = append(r.got, ev)
	r.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend, err := database.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "TodoApi",
		Audience: "TodoApi",
		TTL:      24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	f := &fixture{
		backend: backend,
		users:   database.NewCollection[models.User](backend, "users"),
		tasks:   database.NewCollection[models.Task](backend, "tasks"),
		issuer:  issuer,
		events:  &recorder{},
	}
	f.userSvc = NewUserService(f.users, hasher, issuer)
	f.taskSvc = NewTaskService(f.tasks, f.events)
	return f
}

func (f *fixture) seedTasks(t *testing.T, tasks ...models.Task) {
	t.Helper()
	if err := f.tasks.SaveAll(context.Background(), tasks); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
}
