package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/chaosgame/pkg/observability"
)

// HeaderRequestID carries the per-request ID assigned by the server.
const HeaderRequestID = "X-Request-ID"

type ctxKey int

const loggerKey ctxKey = 0

// requestLogger tags each request with an ID, fires the HTTP hooks and logs
// the response status, size and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set(HeaderRequestID, id)

		logger := s.logger.With("req", id[:8])
		ctx := context.WithValue(r.Context(), loggerKey, logger)
		r = r.WithContext(ctx)

		observability.HTTP().OnRequest(ctx, r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(ctx, r.Method, r.URL.Path, status, elapsed)

		logFn := logger.Info
		if status >= http.StatusInternalServerError {
			logFn = logger.Error
		}
		logFn("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"size", humanize.Bytes(uint64(ww.BytesWritten())),
			"duration", elapsed.Round(time.Microsecond))
	})
}

// requestLog returns the request-scoped logger.
func (s *Server) requestLog(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return s.logger
}
