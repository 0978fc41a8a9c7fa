package middleware

import (
	"net/http"

	"github.com/jo-2640/firstmyapp/internal/services"
)

// UpdateLastActiveMiddleware stamps the authenticated user's
// last-active time on every request passing through it.
func UpdateLastActiveMiddleware(userService *services.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				_ = userService.UpdateLastActive(r.Context(), claims.UserID)
			}
			next.ServeHTTP(w, r)
		})
	}
}
