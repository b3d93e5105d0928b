package auth

import (
	"net/http"
	"strings"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/pkg/logger"
)

// Middleware validates the bearer token and stores the resolved principal
// in the request context.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearer(r)
		if tokenString == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateAccessToken(tokenString)
		if err != nil {
			h.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		principal := claims.Principal()
		ctx := internal.ContextWithPrincipal(r.Context(), principal)
		ctx = logger.With(ctx, "principal_id", principal.ID, "user_type", string(principal.UserType))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearer(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
