package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying delivery failures. Everything not tagged with a
// non-retryable marker is treated as transient and retried with backoff.
var (
	ErrTransient       = errors.New("transient failure")
	ErrBadPayload      = errors.New("payload rejected")
	ErrAuthRejected    = errors.New("credentials rejected")
	ErrUploadFailed    = errors.New("upload failed")
	ErrMissingFileData = errors.New("file payload unavailable")
)

// Canonical error codes carried by the remote API and surfaced on item status.
const (
	CodeBadPayload        = "BAD_PAYLOAD"
	CodeAuthRejected      = "AUTH_REJECTED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidKey        = "INVALID_KEY"
	CodeUploadFailed      = "UPLOAD_FAILED"
	CodeMissingFileData   = "MISSING_FILE_DATA"
	CodeMissingSessionKey = "MISSING_SESSION_KEY"
)

// Coder is implemented by errors that carry a remote error code.
type Coder interface {
	ErrorCode() string
}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a remote error code to its sentinel marker. Unknown or empty
// codes are transient.
func Classify(code string) error {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case CodeBadPayload:
		return ErrBadPayload
	case CodeAuthRejected, CodeUnauthorized, CodeInvalidKey:
		return ErrAuthRejected
	case CodeUploadFailed:
		return ErrUploadFailed
	case CodeMissingFileData, CodeMissingSessionKey:
		return ErrMissingFileData
	default:
		return ErrTransient
	}
}

// Retryable reports whether a delivery failure should be retried with backoff.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrBadPayload),
		errors.Is(err, ErrAuthRejected),
		errors.Is(err, ErrUploadFailed),
		errors.Is(err, ErrMissingFileData):
		return false
	default:
		return true
	}
}

// CodeOf extracts the error code to record on an item's sync status. Errors
// carrying a remote code report it verbatim; otherwise the marker's canonical
// code is used. Transient failures have no code.
func CodeOf(err error) string {
	var coder Coder
	if errors.As(err, &coder) {
		if code := strings.TrimSpace(coder.ErrorCode()); code != "" {
			return code
		}
	}
	switch {
	case errors.Is(err, ErrBadPayload):
		return CodeBadPayload
	case errors.Is(err, ErrAuthRejected):
		return CodeAuthRejected
	case errors.Is(err, ErrUploadFailed):
		return CodeUploadFailed
	case errors.Is(err, ErrMissingFileData):
		return CodeMissingFileData
	default:
		return ""
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
