package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/taskdeck/backend/api/handler"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/internal/middleware"
	"github.com/taskdeck/backend/internal/router"
	authUC "github.com/taskdeck/backend/usecase/auth"
	taskUC "github.com/taskdeck/backend/usecase/task"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]domain.User), byEmail: make(map[string]string)}
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	user := m.byID[id]
	return &user, nil
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[user.Email]; exists {
		return domain.ErrDuplicateEmail
	}
	m.byID[user.ID] = *user
	m.byEmail[user.Email] = user.ID
	return nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]domain.Task)}
}

func (m *memTaskRepo) GetByID(_ context.Context, userID, id string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	clone := task
	return &clone, nil
}

func (m *memTaskRepo) ListByUser(_ context.Context, userID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks []domain.Task
	for _, task := range m.tasks {
		if task.UserID == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *memTaskRepo) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	m.tasks[task.ID] = *task
	return task, nil
}

func (m *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	m.tasks[task.ID] = *task
	return nil
}

func (m *memTaskRepo) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.UserID != userID {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

// setupAPI wires real usecases over in-memory repositories behind the real
// router and auth middleware.
func setupAPI(t *testing.T) fasthttp.RequestHandler {
	t.Helper()

	authUseCase := authUC.New(newMemUserRepo(), authUC.Config{
		Secret: strings.Repeat("s", 32),
		Issuer: "test",
		TTL:    time.Hour,
	}, nil)
	taskUseCase := taskUC.New(newMemTaskRepo(), nil, nil, nil)

	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authUseCase, nil, nil),
		Task:   handler.NewTaskHandler(taskUseCase, nil, nil, 50),
		Health: handler.NewHealthHandler(nil, nil, nil),
	}

	return router.New(handlers, middleware.BearerAuth(authUseCase.Verify, nil)).Handler
}

func doRequest(t *testing.T, h fasthttp.RequestHandler, method, path, token, body string) *fasthttp.RequestCtx {
	t.Helper()

	var ctx fasthttp.RequestCtx
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI("http://test" + path)
	req.Header.SetContentType("application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.SetBodyString(body)
	}
	ctx.Init(&req, nil, nil)

	h(&ctx)
	return &ctx
}

func registerUser(t *testing.T, h fasthttp.RequestHandler, username, email string) (string, string) {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"password1"}`, username, email)
	ctx := doRequest(t, h, http.MethodPost, "/api/auth/register", "", body)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("Register returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(ctx.Response.Body(), &resp); err != nil {
		t.Fatalf("Bad register response: %v", err)
	}
	return resp.Token, resp.User.ID
}

func TestRegisterLoginCycle(t *testing.T) {
	h := setupAPI(t)

	token, userID := registerUser(t, h, "alice", "a@x.com")
	if token == "" || userID == "" {
		t.Fatal("Register did not return token and user id")
	}

	ctx := doRequest(t, h, http.MethodPost, "/api/auth/login", "",
		`{"email":"a@x.com","password":"password1"}`)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Login returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if strings.Contains(string(ctx.Response.Body()), "password") {
		t.Error("Login response leaks password material")
	}
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	h := setupAPI(t)
	registerUser(t, h, "alice", "a@x.com")

	ctx := doRequest(t, h, http.MethodPost, "/api/auth/register", "",
		`{"username":"mallory","email":"a@x.com","password":"password1"}`)
	if ctx.Response.StatusCode() != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", ctx.Response.StatusCode())
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := setupAPI(t)
	registerUser(t, h, "alice", "a@x.com")

	tests := []struct {
		name string
		body string
	}{
		{"Wrong password", `{"email":"a@x.com","password":"wrongpass1"}`},
		{"Unknown email", `{"email":"b@x.com","password":"password1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := doRequest(t, h, http.MethodPost, "/api/auth/login", "", tt.body)
			if ctx.Response.StatusCode() != http.StatusUnauthorized {
				t.Errorf("Expected 401, got %d", ctx.Response.StatusCode())
			}
			if !strings.Contains(string(ctx.Response.Body()), "invalid email or password") {
				t.Errorf("Expected uniform credentials message, got %s", ctx.Response.Body())
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := setupAPI(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks"},
		{http.MethodGet, "/api/tasks/some-id"},
		{http.MethodPatch, "/api/tasks/some-id"},
		{http.MethodDelete, "/api/tasks/some-id"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodGet, "/api/activity"},
	} {
		ctx := doRequest(t, h, route.method, route.path, "", "")
		if ctx.Response.StatusCode() != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d",
				route.method, route.path, ctx.Response.StatusCode())
		}
	}
}

func TestTaskCreateValidation(t *testing.T) {
	h := setupAPI(t)
	token, _ := registerUser(t, h, "alice", "a@x.com")

	tests := []struct {
		name string
		body string
	}{
		{"Missing title", `{"category":"errand"}`},
		{"Missing category", `{"title":"Buy milk"}`},
		{"Invalid priority", `{"title":"Buy milk","category":"errand","priority":"urgent"}`},
		{"Invalid status", `{"title":"Buy milk","category":"errand","status":"done"}`},
		{"Bad due date", `{"title":"Buy milk","category":"errand","dueDate":"tomorrow"}`},
		{"Broken JSON", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := doRequest(t, h, http.MethodPost, "/api/tasks", token, tt.body)
			if ctx.Response.StatusCode() != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
			}
		})
	}
}

func TestForeignTasksAreInvisible(t *testing.T) {
	h := setupAPI(t)
	aliceToken, _ := registerUser(t, h, "alice", "a@x.com")
	bobToken, _ := registerUser(t, h, "bob", "b@x.com")

	ctx := doRequest(t, h, http.MethodPost, "/api/tasks", aliceToken,
		`{"title":"Buy milk","category":"errand"}`)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("Create returned %d", ctx.Response.StatusCode())
	}
	var created domain.Task
	if err := json.Unmarshal(ctx.Response.Body(), &created); err != nil {
		t.Fatalf("Bad create response: %v", err)
	}

	for _, attempt := range []struct{ method, body string }{
		{http.MethodGet, ""},
		{http.MethodPatch, `{"title":"hijacked"}`},
		{http.MethodDelete, ""},
	} {
		ctx := doRequest(t, h, attempt.method, "/api/tasks/"+created.ID, bobToken, attempt.body)
		if ctx.Response.StatusCode() != http.StatusNotFound {
			t.Errorf("%s on foreign task: expected 404, got %d", attempt.method, ctx.Response.StatusCode())
		}
	}

	// The owner still sees the task untouched.
	ctx = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID, aliceToken, "")
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Owner get returned %d", ctx.Response.StatusCode())
	}
	var kept domain.Task
	if err := json.Unmarshal(ctx.Response.Body(), &kept); err != nil {
		t.Fatalf("Bad get response: %v", err)
	}
	if kept.Title != "Buy milk" {
		t.Errorf("Foreign PATCH modified the task: %q", kept.Title)
	}
}

// TestTaskLifecycle walks the full flow: register, create, list, complete,
// delete, observe 404.
func TestTaskLifecycle(t *testing.T) {
	h := setupAPI(t)
	token, userID := registerUser(t, h, "alice", "a@x.com")

	ctx := doRequest(t, h, http.MethodPost, "/api/tasks", token,
		`{"title":"Buy milk","category":"errand","priority":"high"}`)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	var created map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &created); err != nil {
		t.Fatalf("Bad create response: %v", err)
	}
	id, _ := created["_id"].(string)
	if id == "" {
		t.Fatalf("Expected generated _id in %s", ctx.Response.Body())
	}
	if created["user"] != userID {
		t.Errorf("Expected task owned by %s, got %v", userID, created["user"])
	}
	if created["priority"] != "high" {
		t.Errorf("Priority not round-tripped: %v", created["priority"])
	}
	if created["status"] != "todo" {
		t.Errorf("Expected default status todo, got %v", created["status"])
	}

	ctx = doRequest(t, h, http.MethodGet, "/api/tasks", token, "")
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("List returned %d", ctx.Response.StatusCode())
	}
	var list []map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &list); err != nil {
		t.Fatalf("Bad list response: %v", err)
	}
	if len(list) != 1 || list[0]["_id"] != id {
		t.Fatalf("Expected exactly the created task in list, got %s", ctx.Response.Body())
	}

	ctx = doRequest(t, h, http.MethodPatch, "/api/tasks/"+id, token, `{"status":"completed"}`)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Update returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var updated map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &updated); err != nil {
		t.Fatalf("Bad update response: %v", err)
	}
	if updated["status"] != "completed" {
		t.Errorf("Expected status completed, got %v", updated["status"])
	}
	if updated["title"] != "Buy milk" {
		t.Errorf("Partial update changed the title: %v", updated["title"])
	}

	ctx = doRequest(t, h, http.MethodDelete, "/api/tasks/"+id, token, "")
	if ctx.Response.StatusCode() != http.StatusNoContent {
		t.Fatalf("Delete returned %d", ctx.Response.StatusCode())
	}
	if len(ctx.Response.Body()) != 0 {
		t.Errorf("Delete response has a body: %s", ctx.Response.Body())
	}

	ctx = doRequest(t, h, http.MethodGet, "/api/tasks/"+id, token, "")
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Errorf("Get after delete: expected 404, got %d", ctx.Response.StatusCode())
	}

	ctx = doRequest(t, h, http.MethodDelete, "/api/tasks/"+id, token, "")
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Errorf("Second delete: expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestPatchEmptyDueDateClearsIt(t *testing.T) {
	h := setupAPI(t)
	token, _ := registerUser(t, h, "alice", "a@x.com")

	ctx := doRequest(t, h, http.MethodPost, "/api/tasks", token,
		`{"title":"Buy milk","category":"errand","dueDate":"2024-06-01T12:00:00Z"}`)
	if ctx.Response.StatusCode() != http.StatusCreated {
		t.Fatalf("Create returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	var created domain.Task
	if err := json.Unmarshal(ctx.Response.Body(), &created); err != nil {
		t.Fatalf("Bad create response: %v", err)
	}
	if created.DueDate == nil {
		t.Fatal("Due date not set on create")
	}

	ctx = doRequest(t, h, http.MethodPatch, "/api/tasks/"+created.ID, token, `{"dueDate":""}`)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Update returned %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if strings.Contains(string(ctx.Response.Body()), "dueDate") {
		t.Errorf("Due date not cleared: %s", ctx.Response.Body())
	}

	ctx = doRequest(t, h, http.MethodGet, "/api/tasks/"+created.ID, token, "")
	var got domain.Task
	if err := json.Unmarshal(ctx.Response.Body(), &got); err != nil {
		t.Fatalf("Bad get response: %v", err)
	}
	if got.DueDate != nil {
		t.Errorf("Cleared due date came back: %v", got.DueDate)
	}
}

func TestMe(t *testing.T) {
	h := setupAPI(t)
	token, userID := registerUser(t, h, "alice", "a@x.com")

	ctx := doRequest(t, h, http.MethodGet, "/api/auth/me", token, "")
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("Me returned %d", ctx.Response.StatusCode())
	}
	var user map[string]interface{}
	if err := json.Unmarshal(ctx.Response.Body(), &user); err != nil {
		t.Fatalf("Bad me response: %v", err)
	}
	if user["id"] != userID || user["username"] != "alice" || user["email"] != "a@x.com" {
		t.Errorf("Unexpected me payload: %v", user)
	}
}
