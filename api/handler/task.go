package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/httpcontext"
	taskUC "github.com/taskdeck/backend/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc            *taskUC.UseCase
	activityLimit int
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, activityLimit int) *TaskHandler {
	if activityLimit <= 0 {
		activityLimit = 50
	}
	return &TaskHandler{
		baseHandler:   newBaseHandler(adapter, logger),
		uc:            uc,
		activityLimit: activityLimit,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.List(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, tasks)
}

// @Summary Create task
// @Tags tasks
// @Router /api/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: domain.ErrInvalidPayload.Message})
		return
	}

	due, err := parseDueDate(req.DueDate)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	task := &domain.Task{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     due,
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, task)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, created)
}

// @Summary Get task
// @Tags tasks
// @Router /api/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, userID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, task)
}

// @Summary Partially update task
// @Tags tasks
// @Router /api/tasks/{id} [patch]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)
	id, _ := ctx.UserValue("id").(string)

	var req transport.TaskUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: domain.ErrInvalidPayload.Message})
		return
	}

	fields := taskUC.UpdateFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Category:    req.Category,
	}
	if req.DueDate != nil {
		// An explicit empty string removes the due date.
		if *req.DueDate == "" {
			fields.ClearDueDate = true
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				h.respondError(ctx, err)
				return
			}
			fields.DueDate = due
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, userID, id, fields)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)
	id, _ := ctx.UserValue("id").(string)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, userID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusNoContent, nil)
}

// @Summary Recent task activity
// @Tags tasks
// @Router /api/activity [get]
func (h *TaskHandler) Activity(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.uc.Activity(stdCtx, userID, h.activityLimit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, entries)
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, domain.Invalid("dueDate must be an RFC 3339 timestamp")
	}
	return &parsed, nil
}
