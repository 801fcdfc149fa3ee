// Package middleware composes the HTTP middleware stack of the serve command.
package middleware

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/conneroisu/viewnav/internal/logging"
)

// Middleware represents a single middleware function
type Middleware func(http.Handler) http.Handler

// MiddlewareChain applies middlewares in the order they were added: the first
// added middleware is the outermost wrapper.
type MiddlewareChain struct {
	middlewares []Middleware
}

// NewMiddlewareChain creates a chain of middlewares.
func NewMiddlewareChain(middlewares ...Middleware) *MiddlewareChain {
	mc := &MiddlewareChain{middlewares: make([]Middleware, 0, len(middlewares))}
	for _, m := range middlewares {
		mc.AddMiddleware(m)
	}
	return mc
}

// NewDefaultChain returns the standard stack: logging, panic recovery and
// security headers, outer to inner.
func NewDefaultChain(logger logging.Logger) *MiddlewareChain {
	return NewMiddlewareChain(Logging(logger), Recover(logger), SecurityHeaders())
}

// AddMiddleware appends an inner middleware. Nil middlewares are ignored.
func (mc *MiddlewareChain) AddMiddleware(middleware Middleware) {
	if middleware != nil {
		mc.middlewares = append(mc.middlewares, middleware)
	}
}

// Len returns the number of middlewares in the chain.
func (mc *MiddlewareChain) Len() int { return len(mc.middlewares) }

// Apply wraps handler with every middleware of the chain.
func (mc *MiddlewareChain) Apply(handler http.Handler) http.Handler {
	if handler == nil {
		panic("MiddlewareChain.Apply: handler cannot be nil")
	}
	wrapped := handler
	for i := len(mc.middlewares) - 1; i >= 0; i-- {
		wrapped = mc.middlewares[i](wrapped)
	}
	return wrapped
}

// Logging logs one line per request with its status and duration.
func Logging(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.WithComponent("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start))
		})
	}
}

// Recover turns a panicking handler into a 500 response.
func Recover(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error(context.WithoutCancel(r.Context()), fmt.Errorf("%v", rec),
						"handler panicked", "path", r.URL.Path)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets conservative browser security headers.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "same-origin")
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder keeps the response status. It stays hijackable so that
// websocket upgrades pass through.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot hijack", s.ResponseWriter)
	}
	s.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
