package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// InvalidConfig creates an AppError for a configuration field that failed validation.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// AlreadyStarted creates an AppError for a component started more than once.
func AlreadyStarted(component string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyStarted, Message: fmt.Sprintf("The %s has already been started.", component),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"component": component},
	}
}

// NotStarted creates an AppError for an operation on a component that was never started.
func NotStarted(component string) *AppError {
	return &AppError{
		Code: ErrCodeNotStarted, Message: fmt.Sprintf("The %s has not been started.", component),
		HTTPStatus: http.StatusConflict, Retryable: false,
		Details: map[string]any{"component": component},
	}
}

// Timeout creates an AppError for a wait that did not complete in time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("The %s did not complete in time.", operation),
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// TransformFailed creates an AppError for a transform that returned an error.
func TransformFailed(worker int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTransformFailed, Message: "A transform returned an error; the run was aborted.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"worker": worker}, Cause: cause,
	}
}

// WorkerPanic creates an AppError for a transform that panicked.
func WorkerPanic(worker int, recovered any) *AppError {
	return &AppError{
		Code: ErrCodeWorkerPanic, Message: "A transform panicked; the run was aborted.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false,
		Details: map[string]any{"worker": worker, "panic": fmt.Sprint(recovered)},
	}
}

// SourceFailed creates an AppError for a source that hit an I/O error.
func SourceFailed(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailed, Message: fmt.Sprintf("Reading from %s failed.", source),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// SinkFailed creates an AppError for a sink that hit an I/O error.
func SinkFailed(sink string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSinkFailed, Message: fmt.Sprintf("Writing to %s failed.", sink),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"sink": sink}, Cause: cause,
	}
}

// Internal creates an AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
