package middleware

import (
	"context"
	"net/http"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/transport"
)

type Authorizer interface {
	Authorize(ctx context.Context, username string, required []string) error
}

// RequireRoles lets a request through only when the claimed user is the
// session's user and holds every one of roles. Declaring no roles locks the
// route.
func RequireRoles(authz Authorizer, roles ...string) func(http.Handler) http.Handler {
	required := append([]string(nil), roles...)
	return func(next http.Handler) http.Handler {
		h := transport.NewBaseHandler(nil)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := internal.UsernameFromContext(r.Context())
			if err := authz.Authorize(r.Context(), username, required); err != nil {
				h.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
