package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/quartzhr/attendance-sync-go/internal/handler/http/response"
)

// AdminOnly guards the ops surfaces: sync triggers, mapping review and
// company-wide attendance listings.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != "admin" {
			response.Forbidden(w, "Admin privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
