package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/transport"
	"github.com/frahmantamala/access-control/pkg/logger"
)

// UsernameHeader names the user a request claims to act as. The claim is only
// trusted once the access validator matches it against the session.
const UsernameHeader = "X-Username"

// SessionContext attaches the session token and the claimed username to the
// request context. It authenticates nothing by itself.
func SessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if token := transport.ExtractToken(r); token != "" {
			ctx = internal.ContextWithSessionToken(ctx, token)
		}
		if username := strings.TrimSpace(r.Header.Get(UsernameHeader)); username != "" {
			ctx = internal.ContextWithUsername(ctx, username)
			ctx = logger.With(ctx, "username", username)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
