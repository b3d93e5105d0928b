package middleware

import (
	"log/slog"
	"net/http"

	"github.com/viaviktor/rfisys/internal"
	"github.com/viaviktor/rfisys/internal/auth"
)

// RequireAdmin gates administrative routes: access-request decisions and
// repair operations. Denials carry no detail about which rule failed.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !auth.CanAdminister(principal) {
				logger.Warn("access denied: admin required",
					"principal_id", principal.ID,
					"user_type", principal.UserType)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireInviter allows internal users and L1 stakeholders through; L2
// stakeholders and anonymous callers are rejected.
func RequireInviter(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !auth.CanInvite(principal) {
				logger.Warn("access denied: invite permission required",
					"principal_id", principal.ID,
					"role", principal.Role)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
