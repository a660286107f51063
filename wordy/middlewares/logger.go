package middlewares

import (
	"context"
	"net/http"
	"time"
	"wordy/wordy/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger writes one entry per request to the request log and puts the
// chi request id on the context for LogDuration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		if reqID != "" {
			r = r.WithContext(context.WithValue(r.Context(), logging.TraceIDKey, reqID))
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logging.RequestLogger.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("remote", r.RemoteAddr),
			zap.String("trace_id", reqID),
		)
	})
}
