package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
	"github.com/taskdeck/backend/pkg/httpcontext"
	authUC "github.com/taskdeck/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new account
// @Tags auth
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: domain.ErrInvalidPayload.Message})
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, token, err := h.uc.Register(stdCtx, req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusCreated, transport.AuthResponse{Token: token, User: user})
}

// @Summary Log in with email and password
// @Tags auth
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.ErrorResponse{Message: domain.ErrInvalidPayload.Message})
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, token, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.AuthResponse{Token: token, User: user})
}

// @Summary Current account
// @Tags auth
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(ctx *fasthttp.RequestCtx) {
	userID := authenticatedUser(ctx)
	if userID == "" {
		h.respondError(ctx, domain.ErrUnauthenticated)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Me(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, user)
}
