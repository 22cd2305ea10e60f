package auth

import (
	"net/http"

	"github.com/frahmantamala/role-permission-api/internal"
	"github.com/frahmantamala/role-permission-api/internal/transport"
	"github.com/frahmantamala/role-permission-api/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Tokens TokenGeneratorAPI
}

func NewHandler(baseHandler *transport.BaseHandler, tokens TokenGeneratorAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Tokens:      tokens,
	}
}

// AuthMiddleware rejects requests without a valid bearer token and stores the principal in the context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)

		claims, err := h.Tokens.ValidateToken(token)
		if err != nil {
			h.Logger.Warn("auth middleware: rejected request", "error", err, "path", r.URL.Path)
			h.WriteAppError(w, r, internal.NewUnauthorizedError("Unauthenticated.").WithCause(err))
			return
		}

		principal := &internal.Principal{ID: claims.Subject, Email: claims.Email}
		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "principal_id", principal.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
