// Package errors defines the sentinel errors used across the harvester and
// maps them to HTTP status codes. Per-item pipeline failures (fetch timeout,
// oversized payload, invalid content, storage write) are recorded in the
// batch report and never surface as HTTP errors on their own.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput marks a missing or malformed request field. The batch
	// is never started.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSourceFetchFailed marks an unreachable source page. The batch is
	// never started.
	ErrSourceFetchFailed = errors.New("source page fetch failed")
	// ErrFetchTimeout marks a single document download exceeding the
	// configured deadline.
	ErrFetchTimeout = errors.New("fetch timed out")
	// ErrPayloadTooLarge marks a single document exceeding the payload cap.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrInvalidContent marks a response that is neither declared nor
	// signature-verified as the expected content kind.
	ErrInvalidContent = errors.New("invalid content")
	// ErrStorageWriteFailed marks a failed object-store put.
	ErrStorageWriteFailed = errors.New("storage write failed")
	// ErrNotFound marks an unknown route or missing resource.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited marks a client exceeding the request rate limit.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInternal marks an unexpected failure anywhere in the pipeline.
	ErrInternal = errors.New("internal error")
)

// AppError pairs a sentinel with a human-readable message and an explicit
// HTTP status code.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// Kind returns the short machine-readable name for a pipeline error, used in
// batch reports and metrics labels.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrFetchTimeout):
		return "FetchTimeout"
	case errors.Is(err, ErrPayloadTooLarge):
		return "PayloadTooLarge"
	case errors.Is(err, ErrInvalidContent):
		return "InvalidContent"
	case errors.Is(err, ErrStorageWriteFailed):
		return "StorageWriteFailed"
	case errors.Is(err, ErrSourceFetchFailed):
		return "SourceFetchFailed"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	default:
		return "InternalError"
	}
}

// HTTPStatusCode maps an error to the status code it should surface as.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		// SourceFetchFailed and any uncaught pipeline error surface as a
		// generic internal failure envelope.
		return http.StatusInternalServerError
	}
}
