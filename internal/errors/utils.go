package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with additional context, creating a NavError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *NavError {
	if err == nil {
		return nil
	}

	// If it's already a NavError, keep its page and context
	var ne *NavError
	if errors.As(err, &ne) {
		return &NavError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ne,
			Context:     ne.Context,
			Page:        ne.Page,
			Recoverable: ne.Recoverable,
		}
	}

	return &NavError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeResolve || errType == ErrorTypeRender,
	}
}

// WrapRender wraps an error raised inside the render stage. A render error is
// returned unchanged, with page filled in when it had none.
func WrapRender(err error, page string) *NavError {
	if ne, ok := err.(*NavError); ok && ne.Type == ErrorTypeRender {
		if ne.Page != "" || page == "" {
			return ne
		}
		withPage := *ne
		withPage.Page = page
		return &withPage
	}
	wrapped := Wrap(err, ErrorTypeRender, ErrCodeRenderFailed, "render failed")
	if wrapped != nil && page != "" {
		wrapped.Page = page
	}
	return wrapped
}

// FormatError formats an error for user display
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// GetErrorContext extracts context information from a NavError
func GetErrorContext(err error) map[string]interface{} {
	var ne *NavError
	if errors.As(err, &ne) {
		context := make(map[string]interface{})
		for k, v := range ne.Context {
			context[k] = v
		}
		if ne.Page != "" {
			context["page"] = ne.Page
		}
		context["type"] = string(ne.Type)
		context["code"] = ne.Code
		context["recoverable"] = ne.Recoverable
		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// ExtractCause extracts the root cause from a wrapped error
func ExtractCause(err error) error {
	for err != nil {
		var ne *NavError
		if !errors.As(err, &ne) {
			return err
		}
		if ne.Cause == nil {
			return ne
		}
		err = ne.Cause
	}
	return nil
}

// CollectErrors helper for common error collection patterns
func CollectErrors(errs ...error) []error {
	var collected []error
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	return collected
}

// CombineErrors combines multiple errors into a single error with context
func CombineErrors(errs ...error) error {
	nonNilErrs := CollectErrors(errs...)
	if len(nonNilErrs) == 0 {
		return nil
	}
	if len(nonNilErrs) == 1 {
		return nonNilErrs[0]
	}

	return &NavError{
		Type:    ErrorTypeInternal,
		Code:    "ERR_MULTIPLE_ERRORS",
		Message: fmt.Sprintf("multiple errors occurred: %d errors", len(nonNilErrs)),
		Cause:   errors.Join(nonNilErrs...),
		Context: map[string]interface{}{
			"error_count": len(nonNilErrs),
		},
	}
}
