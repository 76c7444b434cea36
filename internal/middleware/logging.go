// internal/middleware/logging.go
//
// Access log, request IDs, and panic recovery.
//
// Context
// -------
// Every request gets an ID (the inbound X-Request-ID when a proxy set one,
// otherwise a fresh UUID).  The ID is echoed in the response header and
// attached to a request-scoped *zap.Logger that handlers fetch with
// LoggerFrom.  One "http request" line is written per request after the
// handler returns, together with the route latency histogram.
//
// Recover must sit inside AccessLog so the 500 it writes is logged.

package middleware

import (
	"context"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/jobboard/internal/metrics"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type ctxKey struct{}

// LoggerFrom returns the request-scoped logger, or the global one.
func LoggerFrom(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.L()
}

// RequestID returns the ID AccessLog assigned, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ridKey{}).(string); ok {
		return id
	}
	return ""
}

type ridKey struct{}

// AccessLog logs one line per request and observes its latency.
func AccessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			rl := log.With(zap.String("request_id", id))
			ctx := context.WithValue(r.Context(), ctxKey{}, rl)
			ctx = context.WithValue(ctx, ridKey{}, id)
			r = r.WithContext(ctx)

			sw := wrap(w)
			next.ServeHTTP(sw, r)

			elapsed := time.Since(start)
			route := routePattern(r)
			metrics.HTTPRequestDuration.
				WithLabelValues(r.Method, route, strconv.Itoa(sw.code())).
				Observe(elapsed.Seconds())

			rl.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", route),
				zap.Int("status", sw.code()),
				zap.Int("bytes", sw.bytes),
				zap.Duration("duration", elapsed),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// Recover turns a handler panic into a plain 500 page.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			metrics.PanicsTotal.Inc()
			LoggerFrom(r.Context()).Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.ByteString("stack", debug.Stack()),
			)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// routePattern is the matched chi pattern, or "unmatched" for 404s.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
