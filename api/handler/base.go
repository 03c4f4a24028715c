package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if payload == nil {
		return
	}
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Unclassified failures never leak detail to the client.
		h.logger.Error("request failed", zap.Error(err))
		message = "Something went wrong!"
	}
	h.respondJSON(ctx, status, transport.ErrorResponse{Message: message})
}

// authenticatedUser returns the user id stamped by the auth middleware.
func authenticatedUser(ctx *fasthttp.RequestCtx) string {
	return string(ctx.Request.Header.Peek("X-User-ID"))
}

func mapError(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeValidation):
		return http.StatusBadRequest
	case domain.IsDomainError(err, domain.ErrCodeUnauthenticated):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	case domain.IsDomainError(err, domain.ErrCodeDuplicateEmail):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
