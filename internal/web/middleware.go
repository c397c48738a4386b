package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/justestif/go-release-radar/internal/logging"
)

// requestLogger attaches a request-scoped logger and correlation id to the
// context and logs each completed request.
func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(correlationIDHeader)
			if id == "" || len(id) > 64 {
				id = logging.NewCorrelationID()
			}
			w.Header().Set(correlationIDHeader, id)

			l := base.With().
				Str("correlation_id", id).
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()
			ctx := logging.WithCorrelationID(l.WithContext(r.Context()), id)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := l.Info()
			if status >= http.StatusInternalServerError {
				event = l.Warn()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}

// rateLimit limits API requests per client IP. A non-positive limit
// disables it.
func rateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, &APIError{
				Code:    CodeRateLimited,
				Message: "too many requests",
			})
		}),
	)
}
