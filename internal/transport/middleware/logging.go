package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/access-control/pkg/logger"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// sensitiveHeaders are masked before a request is logged
var sensitiveHeaders = []string{
	"authorization",
	"cookie",
	"token",
	"secret",
	"password",
	"session",
}

// LoggingMiddleware logs one line per request. Bodies are never logged since
// login requests carry passwords.
func LoggingMiddleware(base *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= 400 && status < 500 {
				level = slog.LevelWarn
			} else if status >= 500 {
				level = slog.LevelError
			}

			lg := base
			if lg == nil {
				lg = logger.From(r.Context())
			}
			lg.Log(r.Context(), level, "http request",
				"request_id", chiMiddleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status_code", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", ww.BytesWritten(),
				"headers", filterSensitiveHeaders(r.Header),
			)
		})
	}
}

func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			filtered[name] = "[FILTERED]"
			continue
		}
		filtered[name] = strings.Join(values, ", ")
	}
	return filtered
}

func isSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveHeaders {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}
