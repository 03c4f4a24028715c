package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/taskdeck/backend/api/transport"
	"github.com/taskdeck/backend/domain"
)

// TokenVerifier validates a bearer token and returns the bound user id.
type TokenVerifier func(token string) (string, error)

// BearerAuth rejects requests without a valid bearer token and stamps the
// authenticated user id onto the request for downstream handlers.
func BearerAuth(verify TokenVerifier, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			userID, err := verify(tokenString)
			if err != nil {
				logger.Warn("rejected bearer token", zap.Error(err))
				reject(ctx)
				return
			}

			// Never trust a client-supplied identity header.
			ctx.Request.Header.Set("X-User-ID", userID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

func reject(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	body, _ := json.Marshal(transport.ErrorResponse{Message: domain.ErrUnauthenticated.Message})
	ctx.SetBody(body)
}
