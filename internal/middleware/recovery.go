package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"ecochamps/internal/contextutils"
	"ecochamps/internal/response"
	"ecochamps/internal/services"
)

// Recovery converts downstream panics into 500 responses. The stack goes to
// the log, never to the client.
func Recovery(builder *response.Builder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Panic recovered",
						zap.Any("panic", rec),
						zap.String("request_id", contextutils.GetRequestID(r.Context())),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)
					builder.WriteError(w, r, services.NewInternalError("unexpected server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
