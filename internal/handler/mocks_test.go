package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/todoman/internal/auth"
	"github.com/hitoshi/todoman/internal/model"
	"github.com/hitoshi/todoman/internal/view"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn     func(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, input auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, email, password)
	}
	return nil, nil
}

type mockSessionService struct {
	startSessionFn func(ctx context.Context, user *model.User) (string, *model.Session, error)
	resolveFn      func(ctx context.Context, token string) (*model.User, error)
	endSessionFn   func(ctx context.Context, token string) error
}

func (m *mockSessionService) StartSession(ctx context.Context, user *model.User) (string, *model.Session, error) {
	if m.startSessionFn != nil {
		return m.startSessionFn(ctx, user)
	}
	return "", nil, nil
}

func (m *mockSessionService) Resolve(ctx context.Context, token string) (*model.User, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, token)
	}
	return nil, nil
}

func (m *mockSessionService) EndSession(ctx context.Context, token string) error {
	if m.endSessionFn != nil {
		return m.endSessionFn(ctx, token)
	}
	return nil
}

type mockTaskService struct {
	listTasksFn  func(ctx context.Context, owner *model.User) ([]*model.Task, error)
	createTaskFn func(ctx context.Context, owner *model.User, title string) (*model.Task, error)
	toggleTaskFn func(ctx context.Context, owner *model.User, taskID int64) (*model.Task, error)
	deleteTaskFn func(ctx context.Context, owner *model.User, taskID int64) error
}

func (m *mockTaskService) ListTasks(ctx context.Context, owner *model.User) ([]*model.Task, error) {
	if m.listTasksFn != nil {
		return m.listTasksFn(ctx, owner)
	}
	return nil, nil
}

func (m *mockTaskService) CreateTask(ctx context.Context, owner *model.User, title string) (*model.Task, error) {
	if m.createTaskFn != nil {
		return m.createTaskFn(ctx, owner, title)
	}
	return nil, nil
}

func (m *mockTaskService) ToggleTask(ctx context.Context, owner *model.User, taskID int64) (*model.Task, error) {
	if m.toggleTaskFn != nil {
		return m.toggleTaskFn(ctx, owner, taskID)
	}
	return nil, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, owner *model.User, taskID int64) error {
	if m.deleteTaskFn != nil {
		return m.deleteTaskFn(ctx, owner, taskID)
	}
	return nil
}

// mockRenderer は描画要求を記録する。
type mockRenderer struct {
	page   string
	status int
	data   view.PageData
}

func (m *mockRenderer) Render(w http.ResponseWriter, status int, page string, data view.PageData) {
	m.page = page
	m.status = status
	m.data = data
	w.WriteHeader(status)
}

// recordingCollector は記録されたメトリクスの結果ラベルを保持する。
type recordingCollector struct {
	mu            sync.Mutex
	registrations []string
	logins        []string
	taskOps       []string
}

func (c *recordingCollector) RecordRegistration(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations = append(c.registrations, result)
}

func (c *recordingCollector) RecordLogin(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logins = append(c.logins, result)
}

func (c *recordingCollector) RecordTaskOperation(operation, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taskOps = append(c.taskOps, operation+":"+result)
}

func (c *recordingCollector) RecordHTTPStatus(int) {}

func (c *recordingCollector) RecordRequestLatency(time.Duration) {}

func (c *recordingCollector) RecordSessionsCleaned(int64) {}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(context.Context) error {
	return m.err
}

// --- インメモリ実装 ---
// ルーター経由の通しテストで実際のサービスと組み合わせて使う。

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*model.User)}
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return model.NewDuplicateEmailError()
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.sessions[session.ID] = &copied
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *memSessionRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if !s.ExpiresAt.After(time.Now()) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

type memTaskRepo struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*model.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[int64]*model.Task)}
}

func (r *memTaskRepo) ListByUserID(_ context.Context, userID int64) ([]*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Task
	for _, t := range r.tasks {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memTaskRepo) Create(_ context.Context, task *model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task.ID = r.nextID
	task.CreatedAt = time.Now()
	copied := *task
	r.tasks[task.ID] = &copied
	return nil
}

func (r *memTaskRepo) ToggleCompleted(_ context.Context, id, userID int64) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	t.Completed = !t.Completed
	copied := *t
	return &copied, nil
}

func (r *memTaskRepo) DeleteByIDAndUserID(_ context.Context, id, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}
