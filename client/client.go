package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// Client talks to the task API and keeps the session store in sync. A 401 on
// an authenticated call clears the stored token so the caller can prompt for
// a fresh login.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	session *SessionStore
	timeout time.Duration
}

func New(baseURL string, session *SessionStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &fasthttp.Client{},
		session: session,
		timeout: 10 * time.Second,
	}
}

// Session exposes the underlying session store.
func (c *Client) Session() *SessionStore {
	return c.session
}

// Register creates an account and starts a session.
func (c *Client) Register(username, email, password string) (*domain.User, error) {
	return c.authenticate("/api/auth/register", transport.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

// Login starts a session with existing credentials.
func (c *Client) Login(email, password string) (*domain.User, error) {
	return c.authenticate("/api/auth/login", transport.LoginRequest{
		Email:    email,
		Password: password,
	})
}

// Logout clears the session locally. Tokens are stateless so there is
// nothing to revoke server-side.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Me fetches the current account and refreshes the in-memory user.
func (c *Client) Me() (*domain.User, error) {
	var user domain.User
	if err := c.do(http.MethodGet, "/api/auth/me", nil, &user, true); err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

// Tasks lists every task owned by the current user.
func (c *Client) Tasks() ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.do(http.MethodGet, "/api/tasks", nil, &tasks, true); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Task fetches one task by id.
func (c *Client) Task(id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(http.MethodGet, "/api/tasks/"+id, nil, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask persists a new task and returns the server-assigned version.
func (c *Client) CreateTask(req transport.TaskCreateRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(http.MethodPost, "/api/tasks", req, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update and returns the resulting task.
func (c *Client) UpdateTask(id string, req transport.TaskUpdateRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(http.MethodPatch, "/api/tasks/"+id, req, &task, true); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id string) error {
	return c.do(http.MethodDelete, "/api/tasks/"+id, nil, nil, true)
}

// Activity returns the current user's recent task mutations.
func (c *Client) Activity() ([]domain.Activity, error) {
	var entries []domain.Activity
	if err := c.do(http.MethodGet, "/api/activity", nil, &entries, true); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) authenticate(path string, payload interface{}) (*domain.User, error) {
	var resp transport.AuthResponse
	if err := c.do(http.MethodPost, path, payload, &resp, false); err != nil {
		return nil, err
	}
	if err := c.session.Save(resp.User, resp.Token); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *Client) do(method, path string, payload, out interface{}, authed bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.session.Token())
	}

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		return err
	}

	status := resp.StatusCode()
	if status >= http.StatusBadRequest {
		apiErr := &APIError{Status: status}
		var errBody transport.ErrorResponse
		if json.Unmarshal(resp.Body(), &errBody) == nil {
			apiErr.Message = errBody.Message
		}
		if authed && status == http.StatusUnauthorized {
			// The stored token is no longer provisionally valid.
			_ = c.session.Clear()
		}
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Body(), out)
}
