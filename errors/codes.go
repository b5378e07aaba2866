package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration and lifecycle errors
const (
	// ErrCodeInvalidConfig indicates a configuration value failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeAlreadyStarted indicates a one-shot component was started twice.
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	// ErrCodeNotStarted indicates an operation that requires a started component.
	ErrCodeNotStarted ErrorCode = "NOT_STARTED"
	// ErrCodeTimeout indicates a bounded wait ran out of time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Run errors
const (
	// ErrCodeTransformFailed indicates a transform returned an error.
	ErrCodeTransformFailed ErrorCode = "TRANSFORM_FAILED"
	// ErrCodeWorkerPanic indicates a transform panicked inside a worker.
	ErrCodeWorkerPanic ErrorCode = "WORKER_PANIC"
	// ErrCodeSourceFailed indicates the source collaborator reported an I/O error.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
	// ErrCodeSinkFailed indicates the sink collaborator reported an I/O error.
	ErrCodeSinkFailed ErrorCode = "SINK_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:      true,
	ErrCodeSourceFailed: true,
	ErrCodeSinkFailed:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
