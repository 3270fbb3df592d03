package jwt

import (
	"net/http"

	"ride-hail-realtime/internal/domain/user"
)

// Middleware validates bearer tokens and injects claims into the request
// context. When subject is non-empty the token must have been issued to it.
func Middleware(mgr *Manager, subject string, allowedRoles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := FromAuthorization(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := mgr.ParseAndValidate(raw)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if err := RoleAllowed(claims, allowedRoles...); err != nil {
				http.Error(w, err.Error(), http.StatusForbidden)
				return
			}
			if subject != "" && claims.Subject != subject {
				http.Error(w, "subject mismatch", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(InjectClaims(r.Context(), claims)))
		})
	}
}
