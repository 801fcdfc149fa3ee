package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeResolve  ErrorType = "resolve"
	ErrorTypeRender   ErrorType = "render"
	ErrorTypeGuard    ErrorType = "guard"
	ErrorTypeRouter   ErrorType = "router"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeInternal ErrorType = "internal"
)

// Sentinel errors shared across the engine.
var (
	// ErrNavigationRejected reports a vetoed navigation. It is a normal
	// outcome, never surfaced by Show.
	ErrNavigationRejected = errors.New("navigation rejected")

	// ErrDestroyed is returned when a destroyed view is asked to render.
	ErrDestroyed = errors.New("view destroyed")

	// ErrNotStarted is returned by Show before the first render built the router.
	ErrNotStarted = errors.New("application not started")

	// ErrUnsupportedView is returned when a loaded value is no view implementation.
	ErrUnsupportedView = errors.New("unsupported view implementation")
)

// NavError is a structured error type with context.
type NavError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Page        string
	Recoverable bool
}

// Error implements the error interface.
func (e *NavError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Page != "" {
		parts = append(parts, "page:"+e.Page)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *NavError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *NavError) Is(target error) bool {
	var t *NavError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *NavError) WithContext(key string, value interface{}) *NavError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPage adds the page the error relates to.
func (e *NavError) WithPage(page string) *NavError {
	e.Page = page

	return e
}

// Common error codes.
const (
	ErrCodeLoadFailed      = "ERR_LOAD_FAILED"
	ErrCodeViewNotFound    = "ERR_VIEW_NOT_FOUND"
	ErrCodeUnsupportedView = "ERR_UNSUPPORTED_VIEW"
	ErrCodeRenderFailed    = "ERR_RENDER_FAILED"
	ErrCodeHookPanicked    = "ERR_HOOK_PANICKED"
	ErrCodeRouterFailed    = "ERR_ROUTER_FAILED"
	ErrCodeConfigInvalid   = "ERR_CONFIG_INVALID"
	ErrCodeInternalError   = "ERR_INTERNAL"
)

// Error creation functions

// NewResolveError creates a view resolution error. Resolution failures are
// recovered by substituting a placeholder view.
func NewResolveError(code, page string, cause error) *NavError {
	return &NavError{
		Type:        ErrorTypeResolve,
		Code:        code,
		Message:     "cannot resolve view",
		Cause:       cause,
		Page:        page,
		Recoverable: true,
	}
}

// NewRenderError creates a render error.
func NewRenderError(code, message string, cause error) *NavError {
	return &NavError{
		Type:        ErrorTypeRender,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewRouterError creates a router adapter error.
func NewRouterError(code, message string, cause error) *NavError {
	return &NavError{
		Type:        ErrorTypeRouter,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *NavError {
	return &NavError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *NavError {
	return &NavError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// FromPanic converts a recovered panic value into an error.
func FromPanic(code string, recovered interface{}) *NavError {
	if err, ok := recovered.(error); ok {
		return NewInternalError(code, "panic recovered", err)
	}
	return NewInternalError(code, fmt.Sprintf("panic recovered: %v", recovered), nil)
}

// Error recovery and handling utilities

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Recoverable
	}

	return false
}

// IsResolveError checks if an error comes from view resolution.
func IsResolveError(err error) bool {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Type == ErrorTypeResolve
	}

	return false
}

// IsRenderError checks if an error comes from the render stage.
func IsRenderError(err error) bool {
	var ne *NavError
	if errors.As(err, &ne) {
		return ne.Type == ErrorTypeRender
	}

	return false
}

// IsRejected reports whether err is a vetoed navigation.
func IsRejected(err error) bool {
	return errors.Is(err, ErrNavigationRejected)
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs an error with a level matching its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var ne *NavError
	if !errors.As(err, &ne) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch ne.Type {
	case ErrorTypeResolve:
		h.logger.Warn(ctx, err, "View resolution failed",
			"type", ne.Type,
			"code", ne.Code,
			"page", ne.Page)
	case ErrorTypeRender:
		h.logger.Error(ctx, err, "Render failed",
			"type", ne.Type,
			"code", ne.Code,
			"page", ne.Page)
	case ErrorTypeGuard:
		// rejected navigations are expected
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", ne.Type,
			"code", ne.Code)
	}
}
