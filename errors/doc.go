// Package errors provides the structured error type used across slotpipe.
//
// Flow control inside the pipeline is modelled as boolean state, never as
// errors. AppError is reserved for the conditions a caller has to act on:
// invalid configuration, lifecycle misuse and a failed run (a transform that
// returned an error or panicked). Each carries a machine-readable code and an
// HTTP status so the status endpoint can render it directly.
package errors
